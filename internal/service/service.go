package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portfolio-risk-alerts/internal/alerting"
	"portfolio-risk-alerts/internal/config"
	"portfolio-risk-alerts/internal/fetcher"
	"portfolio-risk-alerts/internal/risk"
	"portfolio-risk-alerts/internal/scheduler"
	"portfolio-risk-alerts/internal/storage"
)

// Task result statuses surfaced to the orchestration boundary.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TaskResult is the structured outcome of one wallet analysis. A
// failure is reported here rather than propagated as a fault.
type TaskResult struct {
	Status          string               `json:"status"`
	WalletAddress   string               `json:"wallet_address"`
	Network         string               `json:"network,omitempty"`
	Error           string               `json:"error,omitempty"`
	RiskAnalysis    *risk.Assessment     `json:"risk_analysis,omitempty"`
	MarketCondition risk.MarketCondition `json:"market_condition,omitempty"`
	Alerts          []storage.Alert      `json:"alerts,omitempty"`
}

// Service orchestrates scheduled risk analysis: snapshot fetch,
// scoring, alert evaluation, and delivery.
type Service struct {
	scheduler *scheduler.Scheduler
	portfolio fetcher.PortfolioFetcher
	macro     fetcher.CorrelationFetcher
	scorer    *risk.Scorer
	engine    *alerting.Engine
	scores    storage.ScoreStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	wallets  []string
	network  string
	alertsOn bool
}

// New constructs the analysis service.
func New(cfg *config.Config, sched *scheduler.Scheduler, portfolio fetcher.PortfolioFetcher, macro fetcher.CorrelationFetcher, scorer *risk.Scorer, engine *alerting.Engine, scores storage.ScoreStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		portfolio: portfolio,
		macro:     macro,
		scorer:    scorer,
		engine:    engine,
		scores:    scores,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		wallets:   cfg.Risk.Wallets,
		network:   cfg.Risk.Network,
		alertsOn:  cfg.Alerting.Enabled,
	}
}

// Run begins the aligned analysis loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	if len(s.wallets) == 0 {
		s.logger.Warn().Msg("risk.wallets is empty; nothing to analyze on schedule")
	}
	return s.scheduler.Run(ctx, s.ProcessCycle)
}

// ProcessCycle analyzes every watched wallet once. The correlation
// signal is fetched once per cycle and shared; the scorer is stateless
// and the engine is lock-guarded, so wallets run in parallel.
func (s *Service) ProcessCycle(ctx context.Context, tick time.Time) error {
	correlation := s.fetchCorrelation(ctx)

	var wg sync.WaitGroup
	for _, wallet := range s.wallets {
		wg.Add(1)
		go func(wallet string) {
			defer wg.Done()
			result := s.AnalyzeWallet(ctx, wallet, correlation)
			if result.Status == StatusFailed {
				s.logger.Error().
					Str("wallet", wallet).
					Str("error", result.Error).
					Time("tick", tick).
					Msg("wallet analysis failed")
				return
			}
			s.logger.Info().
				Str("wallet", wallet).
				Float64("score", result.RiskAnalysis.Score).
				Str("level", string(result.RiskAnalysis.Level)).
				Int("alerts", len(result.Alerts)).
				Time("tick", tick).
				Msg("wallet analyzed")
		}(wallet)
	}
	wg.Wait()

	return nil
}

// AnalyzeWallet runs one full analysis for a wallet and returns the
// structured task result. Any internal fault, including a panic, is
// converted into a failed result instead of crashing the worker.
func (s *Service) AnalyzeWallet(ctx context.Context, wallet string, correlation *float64) (result TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("wallet", wallet).Interface("panic", r).Msg("analysis panicked")
			result = s.failed(wallet, fmt.Errorf("internal failure: %v", r))
		}
	}()

	assets, err := s.portfolio.FetchPortfolio(ctx, wallet)
	if err != nil {
		return s.failed(wallet, fmt.Errorf("fetch portfolio: %w", err))
	}

	assessment := s.scorer.Analyze(wallet, assets, correlation)

	if s.scores != nil {
		sample := storage.RiskScoreSample{
			WalletAddress:   wallet,
			Score:           assessment.Score,
			Level:           string(assessment.Level),
			MarketCondition: string(assessment.MarketCondition),
			Factors:         assessment.Factors,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.scores.InsertScoreSample(ctx, sample); err != nil {
			s.logger.Error().Err(err).Str("wallet", wallet).Msg("failed to persist score sample")
		}
	}

	var fired []storage.Alert
	if s.alertsOn && s.engine != nil {
		fired, err = s.engine.Evaluate(ctx, wallet, assessment)
		if err != nil {
			return s.failed(wallet, fmt.Errorf("evaluate alerts: %w", err))
		}
		s.deliver(ctx, fired)
	}

	return TaskResult{
		Status:          StatusCompleted,
		WalletAddress:   wallet,
		Network:         s.network,
		RiskAnalysis:    &assessment,
		MarketCondition: assessment.MarketCondition,
		Alerts:          fired,
	}
}

// deliver pushes newly fired alerts through the notifier and records
// successful deliveries. Delivery failures leave the alert queued for
// the external drain of the undelivered list.
func (s *Service) deliver(ctx context.Context, fired []storage.Alert) {
	if s.notifier == nil {
		return
	}
	for _, alert := range fired {
		if err := s.notifier.Notify(ctx, alert); err != nil {
			s.logger.Error().Err(err).Str("alert_id", alert.AlertID).Msg("failed to dispatch alert")
			continue
		}
		if err := s.engine.MarkDelivered(ctx, alert.AlertID, s.notifier.Method()); err != nil {
			s.logger.Error().Err(err).Str("alert_id", alert.AlertID).Msg("failed to record delivery")
		}
	}
}

func (s *Service) fetchCorrelation(ctx context.Context) *float64 {
	if s.macro == nil {
		return nil
	}
	correlation, err := s.macro.FetchCorrelation(ctx)
	if err != nil {
		// Treated like an absent signal: scoring degrades to neutral.
		s.logger.Warn().Err(err).Msg("correlation signal unavailable")
		return nil
	}
	return correlation
}

func (s *Service) failed(wallet string, err error) TaskResult {
	return TaskResult{
		Status:        StatusFailed,
		WalletAddress: wallet,
		Network:       s.network,
		Error:         err.Error(),
	}
}
