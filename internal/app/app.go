package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"portfolio-risk-alerts/internal/alerting"
	"portfolio-risk-alerts/internal/config"
	"portfolio-risk-alerts/internal/fetcher"
	"portfolio-risk-alerts/internal/risk"
	"portfolio-risk-alerts/internal/scheduler"
	"portfolio-risk-alerts/internal/server"
	"portfolio-risk-alerts/internal/service"
	"portfolio-risk-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI
// commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// core bundles the wired analysis pipeline shared by run/serve/score.
type core struct {
	engine   *alerting.Engine
	svc      *service.Service
	macro    fetcher.CorrelationFetcher
	closeFns []func()
}

func (c *core) close() {
	for _, fn := range c.closeFns {
		fn()
	}
}

func (a *App) newFetchers() (fetcher.PortfolioFetcher, fetcher.CorrelationFetcher) {
	portfolio := fetcher.NewPortfolio(fetcher.PortfolioOptions{
		BaseURL:   a.Config.Portfolio.BaseURL,
		Timeout:   a.Config.Portfolio.RequestTimeout,
		UserAgent: a.Config.Portfolio.UserAgent,
	}, a.Logger)

	macro := fetcher.NewMacro(fetcher.MacroOptions{
		BaseURL: a.Config.Macro.BaseURL,
		Timeout: a.Config.Macro.RequestTimeout,
	}, a.Logger)

	return portfolio, macro
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// openStores resolves the alert and score stores: Postgres when a DSN
// is configured, the in-process store otherwise.
func (a *App) openStores(ctx context.Context) (storage.AlertStore, storage.ScoreStore, func(), error) {
	if a.Config.Database.DSN == "" {
		a.Logger.Info().Msg("database.dsn not configured; using in-process store")
		mem := storage.NewMemoryStore()
		return mem, mem, func() {}, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	store := storage.NewStore(pool)
	return store, store, store.Close, nil
}

// buildCore wires scorer, engine, stores, fetchers, and service.
func (a *App) buildCore(ctx context.Context) (*core, error) {
	alertStore, scoreStore, closeStores, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	scorer, err := risk.NewScorer(risk.Options{Weights: a.Config.Risk.Weights}, a.Logger)
	if err != nil {
		closeStores()
		return nil, err
	}

	thresholds := alerting.Thresholds{
		HighRiskScore:        a.Config.Alerting.HighRiskThreshold,
		ConcentrationWarning: a.Config.Alerting.ConcentrationThreshold,
		MarketStress:         a.Config.Alerting.MarketStressThreshold,
	}
	engine := alerting.NewEngine(alerting.DefaultRules(thresholds, a.Config.Alerting.Cooldown), alertStore, a.Logger)

	portfolio, macro := a.newFetchers()
	svc := service.New(a.Config, a.newScheduler(), portfolio, macro, scorer, engine, scoreStore, a.newNotifier(), a.Logger)

	return &core{
		engine:   engine,
		svc:      svc,
		macro:    macro,
		closeFns: []func(){closeStores},
	}, nil
}

func (a *App) newScheduler() *scheduler.Scheduler {
	return scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)
}

// Run executes the long-running analysis loop plus the HTTP API.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := a.buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	srv := server.New(a.Config.Server, c.engine, c.svc, a.macroDefault(c), a.Logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.svc.Run(groupCtx) })
	group.Go(func() error { return srv.Run(groupCtx) })

	a.Logger.Info().Msg("starting risk monitoring service")
	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("risk monitoring service stopped")
	return nil
}

// Serve executes the HTTP API without the scheduled loop; useful when
// alerts live in Postgres and another instance runs the analysis.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := a.buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	srv := server.New(a.Config.Server, c.engine, c.svc, a.macroDefault(c), a.Logger)

	err = srv.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// macroDefault adapts the correlation fetcher into the server's
// fallback signal source.
func (a *App) macroDefault(c *core) func(ctx context.Context) *float64 {
	return func(ctx context.Context) *float64 {
		correlation, err := c.macro.FetchCorrelation(ctx)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("correlation signal unavailable")
			return nil
		}
		return correlation
	}
}

// ScoreOptions configure the one-shot score command.
type ScoreOptions struct {
	Wallet      string
	Correlation *float64
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Wallet string
	Limit  int
	Scores bool
}

// ExportOptions hold parameters for exporting score history.
type ExportOptions struct {
	Wallet    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}
