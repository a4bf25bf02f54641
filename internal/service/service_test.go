package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portfolio-risk-alerts/internal/alerting"
	"portfolio-risk-alerts/internal/config"
	"portfolio-risk-alerts/internal/risk"
	"portfolio-risk-alerts/internal/storage"
)

type staticPortfolio struct {
	assets []risk.PortfolioAsset
	err    error
}

func (s *staticPortfolio) FetchPortfolio(_ context.Context, _ string) ([]risk.PortfolioAsset, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.assets, nil
}

type staticMacro struct {
	correlation *float64
}

func (s *staticMacro) FetchCorrelation(_ context.Context) (*float64, error) {
	return s.correlation, nil
}

type recordingNotifier struct {
	delivered []string
	fail      bool
}

func (r *recordingNotifier) Notify(_ context.Context, alert storage.Alert) error {
	if r.fail {
		return errors.New("channel down")
	}
	r.delivered = append(r.delivered, alert.AlertID)
	return nil
}

func (r *recordingNotifier) Method() string { return "test" }

func newTestService(t *testing.T, portfolio *staticPortfolio, notifier alerting.Notifier) (*Service, *storage.MemoryStore) {
	t.Helper()

	scorer, err := risk.NewScorer(risk.Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("scorer construction should succeed: %v", err)
	}

	store := storage.NewMemoryStore()
	engine := alerting.NewEngine(alerting.DefaultRules(alerting.DefaultThresholds(), time.Minute), store, zerolog.Nop())

	cfg := &config.Config{}
	cfg.Risk.Network = "mantle"
	cfg.Risk.Wallets = []string{"0x123"}
	cfg.Alerting.Enabled = true

	c := 0.8
	svc := New(cfg, nil, portfolio, &staticMacro{correlation: &c}, scorer, engine, store, notifier, zerolog.Nop())
	return svc, store
}

func riskyPortfolio() *staticPortfolio {
	return &staticPortfolio{assets: []risk.PortfolioAsset{{
		Symbol:   "RANDOM",
		Balance:  decimal.NewFromInt(1000),
		USDValue: decimal.NewFromInt(5000),
		Protocol: "unknown_dex",
	}}}
}

func TestAnalyzeWalletCompleted(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, riskyPortfolio(), notifier)

	c := 0.8
	result := svc.AnalyzeWallet(context.Background(), "0x123", &c)

	if result.Status != StatusCompleted {
		t.Fatalf("expected completed result, got %s (%s)", result.Status, result.Error)
	}
	if result.RiskAnalysis == nil {
		t.Fatal("completed result should carry the assessment")
	}
	if result.MarketCondition != risk.MarketStressedCorrelation {
		t.Fatalf("correlation 0.8 should report a stressed regime, got %s", result.MarketCondition)
	}
	if len(result.Alerts) == 0 {
		t.Fatal("a concentrated unknown-protocol portfolio in a stressed market should fire alerts")
	}
	if len(notifier.delivered) != len(result.Alerts) {
		t.Fatalf("every fired alert should be dispatched, got %d of %d", len(notifier.delivered), len(result.Alerts))
	}
}

func TestAnalyzeWalletDeliveryBookkeeping(t *testing.T) {
	svc, store := newTestService(t, riskyPortfolio(), &recordingNotifier{})

	c := 0.8
	result := svc.AnalyzeWallet(context.Background(), "0x123", &c)
	if result.Status != StatusCompleted {
		t.Fatalf("setup analysis failed: %s", result.Error)
	}

	pending, err := store.ListUndelivered(context.Background())
	if err != nil {
		t.Fatalf("undelivered query should succeed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("successfully dispatched alerts should be marked delivered, %d pending", len(pending))
	}
}

func TestAnalyzeWalletFailedDeliveryStaysQueued(t *testing.T) {
	svc, store := newTestService(t, riskyPortfolio(), &recordingNotifier{fail: true})

	c := 0.8
	result := svc.AnalyzeWallet(context.Background(), "0x123", &c)
	if result.Status != StatusCompleted {
		t.Fatalf("delivery failure must not fail the analysis: %s", result.Error)
	}

	pending, err := store.ListUndelivered(context.Background())
	if err != nil {
		t.Fatalf("undelivered query should succeed: %v", err)
	}
	if len(pending) != len(result.Alerts) {
		t.Fatalf("undispatched alerts should stay queued, got %d of %d", len(pending), len(result.Alerts))
	}
}

func TestAnalyzeWalletFetchFailure(t *testing.T) {
	svc, _ := newTestService(t, &staticPortfolio{err: errors.New("upstream down")}, &recordingNotifier{})

	result := svc.AnalyzeWallet(context.Background(), "0x123", nil)

	if result.Status != StatusFailed {
		t.Fatalf("fetch failure should produce a failed result, got %s", result.Status)
	}
	if result.Error == "" || result.WalletAddress != "0x123" {
		t.Fatalf("failed payload should carry error and wallet, got %+v", result)
	}
	if result.RiskAnalysis != nil {
		t.Fatal("failed result should not carry an assessment")
	}
}

func TestAnalyzeWalletScoreHistoryPersisted(t *testing.T) {
	svc, store := newTestService(t, riskyPortfolio(), &recordingNotifier{})

	c := 0.3
	if result := svc.AnalyzeWallet(context.Background(), "0x123", &c); result.Status != StatusCompleted {
		t.Fatalf("setup analysis failed: %s", result.Error)
	}

	samples, err := store.ListRecentScores(context.Background(), "0x123", 10)
	if err != nil {
		t.Fatalf("score history query should succeed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("one analysis should persist one score sample, got %d", len(samples))
	}
	if samples[0].MarketCondition != string(risk.MarketHealthyRotation) {
		t.Fatalf("sample should record the regime, got %s", samples[0].MarketCondition)
	}
}
