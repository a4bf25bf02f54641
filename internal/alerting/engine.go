package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"portfolio-risk-alerts/internal/risk"
	"portfolio-risk-alerts/internal/storage"
)

// triggeredBy identifies the producer recorded on every alert.
const triggeredBy = "risk_scorer"

type cooldownKey struct {
	wallet    string
	alertType AlertType
}

// Engine evaluates trigger rules against assessments, deduplicates
// firings per (wallet, type) via cooldown windows, and answers alert
// queries. A single mutex guards the cooldown map for the whole
// check-and-fire sequence, so concurrent Evaluate calls for the same
// key cannot both fire.
type Engine struct {
	mu        sync.Mutex
	cooldowns map[cooldownKey]time.Time

	rules  []TriggerRule
	store  storage.AlertStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine constructs an alert engine over the given rule set and
// store. Rules and store are fixed for the engine's lifetime.
func NewEngine(rules []TriggerRule, store storage.AlertStore, logger zerolog.Logger) *Engine {
	return &Engine{
		cooldowns: make(map[cooldownKey]time.Time),
		rules:     rules,
		store:     store,
		logger:    logger.With().Str("component", "alert_engine").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate runs every rule against the assessment and returns the
// alerts that newly fired. Matches inside their cooldown window are
// skipped silently. An alert's store insert and its cooldown update
// commit together: a failed insert leaves the cooldown untouched.
func (e *Engine) Evaluate(ctx context.Context, wallet string, assessment risk.Assessment) ([]storage.Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fired := make([]storage.Alert, 0)
	now := e.now()

	for _, rule := range e.rules {
		if !rule.Matches(assessment) {
			continue
		}

		key := cooldownKey{wallet: wallet, alertType: rule.Type}
		if last, ok := e.cooldowns[key]; ok && now.Sub(last) < rule.Cooldown {
			e.logger.Debug().
				Str("wallet", wallet).
				Str("alert_type", string(rule.Type)).
				Time("last_fired", last).
				Msg("alert suppressed by cooldown")
			continue
		}

		title, message := rule.Describe(wallet, assessment)
		alert := storage.Alert{
			AlertID:       uuid.NewString(),
			Type:          string(rule.Type),
			Severity:      string(rule.Severity),
			Title:         title,
			Message:       message,
			WalletAddress: wallet,
			TriggeredBy:   triggeredBy,
			CreatedAt:     now,
		}

		if err := e.store.InsertAlert(ctx, alert); err != nil {
			return fired, err
		}
		e.cooldowns[key] = now
		fired = append(fired, alert)

		e.logger.Info().
			Str("wallet", wallet).
			Str("alert_type", string(rule.Type)).
			Str("severity", string(rule.Severity)).
			Str("alert_id", alert.AlertID).
			Msg("alert fired")
	}

	return fired, nil
}

// ListAlerts returns up to limit stored alerts, most recent first,
// optionally filtered by wallet.
func (e *Engine) ListAlerts(ctx context.Context, wallet string, limit int) ([]storage.Alert, error) {
	return e.store.ListAlerts(ctx, wallet, limit)
}

// Undelivered returns every stored alert still pending delivery.
func (e *Engine) Undelivered(ctx context.Context) ([]storage.Alert, error) {
	return e.store.ListUndelivered(ctx)
}

// MarkDelivered records a completed delivery for an alert id.
func (e *Engine) MarkDelivered(ctx context.Context, alertID, method string) error {
	return e.store.MarkDelivered(ctx, alertID, method)
}

// Stats reports alert counts for the health surface.
func (e *Engine) Stats(ctx context.Context) (total, undelivered int64, err error) {
	return e.store.CountAlerts(ctx)
}

// AlertTypes lists the configured rule types in evaluation order.
func (e *Engine) AlertTypes() []string {
	types := make([]string, 0, len(e.rules))
	for _, rule := range e.rules {
		types = append(types, string(rule.Type))
	}
	return types
}
