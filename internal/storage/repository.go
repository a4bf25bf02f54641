package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrAlertNotFound indicates the referenced alert id is unknown.
	ErrAlertNotFound = errors.New("storage: alert not found")
)

const (
	insertAlertSQL = `INSERT INTO alerts (
        alert_id,
        alert_type,
        severity,
        title,
        message,
        wallet_address,
        triggered_by,
        delivered,
        delivery_method,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    );`

	listAlertsSQL = `SELECT
        alert_id, alert_type, severity, title, message,
        wallet_address, triggered_by, delivered, delivery_method, created_at
    FROM alerts
    WHERE ($1 = '' OR wallet_address = $1)
    ORDER BY created_at DESC
    LIMIT $2;`

	listUndeliveredSQL = `SELECT
        alert_id, alert_type, severity, title, message,
        wallet_address, triggered_by, delivered, delivery_method, created_at
    FROM alerts
    WHERE delivered = FALSE
    ORDER BY created_at DESC;`

	markDeliveredSQL = `UPDATE alerts
    SET delivered = TRUE, delivery_method = $2
    WHERE alert_id = $1;`

	countAlertsSQL = `SELECT
        COUNT(*),
        COUNT(*) FILTER (WHERE delivered = FALSE)
    FROM alerts;`

	insertScoreSampleSQL = `INSERT INTO risk_scores (
        wallet_address,
        score,
        level,
        market_condition,
        factors,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    );`

	listScoresBetweenSQL = `SELECT
        wallet_address, score, level, market_condition, factors, created_at
    FROM risk_scores
    WHERE ($1 = '' OR wallet_address = $1)
      AND created_at >= $2
      AND created_at < $3
    ORDER BY created_at;`

	listRecentScoresSQL = `SELECT
        wallet_address, score, level, market_condition, factors, created_at
    FROM risk_scores
    WHERE ($1 = '' OR wallet_address = $1)
    ORDER BY created_at DESC
    LIMIT $2;`
)

// AlertStore defines persistence for triggered alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert Alert) error
	ListAlerts(ctx context.Context, wallet string, limit int) ([]Alert, error)
	ListUndelivered(ctx context.Context) ([]Alert, error)
	MarkDelivered(ctx context.Context, alertID, method string) error
	CountAlerts(ctx context.Context) (total, undelivered int64, err error)
}

// ScoreStore defines persistence for analysis history.
type ScoreStore interface {
	InsertScoreSample(ctx context.Context, sample RiskScoreSample) error
	ListScoresBetween(ctx context.Context, wallet string, from, to time.Time) ([]RiskScoreSample, error)
	ListRecentScores(ctx context.Context, wallet string, limit int) ([]RiskScoreSample, error)
}

// Store is the Postgres-backed implementation of both stores.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAlert persists a newly triggered alert.
func (s *Store) InsertAlert(ctx context.Context, alert Alert) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var method interface{}
	if alert.DeliveryMethod != "" {
		method = alert.DeliveryMethod
	}

	if _, execErr := pool.Exec(ctx, insertAlertSQL,
		alert.AlertID,
		alert.Type,
		alert.Severity,
		alert.Title,
		alert.Message,
		alert.WalletAddress,
		alert.TriggeredBy,
		alert.Delivered,
		method,
		alert.CreatedAt,
	); execErr != nil {
		return fmt.Errorf("insert alert: %w", execErr)
	}
	return nil
}

// ListAlerts lists the most recent alerts, optionally wallet-filtered.
func (s *Store) ListAlerts(ctx context.Context, wallet string, limit int) ([]Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertsSQL, wallet, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts: %w", queryErr)
	}
	defer rows.Close()

	return scanAlerts(rows, limit)
}

// ListUndelivered lists every alert pending delivery.
func (s *Store) ListUndelivered(ctx context.Context) ([]Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listUndeliveredSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list undelivered alerts: %w", queryErr)
	}
	defer rows.Close()

	return scanAlerts(rows, 0)
}

// MarkDelivered flags an alert as delivered. Unknown ids return
// ErrAlertNotFound; repeating the call with the same arguments is a
// harmless idempotent update.
func (s *Store) MarkDelivered(ctx context.Context, alertID, method string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	cmdTag, execErr := pool.Exec(ctx, markDeliveredSQL, alertID, method)
	if execErr != nil {
		return fmt.Errorf("mark alert delivered: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// CountAlerts returns total and undelivered alert counts.
func (s *Store) CountAlerts(ctx context.Context) (int64, int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, 0, err
	}

	var total, undelivered int64
	if scanErr := pool.QueryRow(ctx, countAlertsSQL).Scan(&total, &undelivered); scanErr != nil {
		return 0, 0, fmt.Errorf("count alerts: %w", scanErr)
	}
	return total, undelivered, nil
}

// InsertScoreSample persists one completed analysis.
func (s *Store) InsertScoreSample(ctx context.Context, sample RiskScoreSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	factors, marshalErr := json.Marshal(sample.Factors)
	if marshalErr != nil {
		return fmt.Errorf("marshal factors: %w", marshalErr)
	}

	if _, execErr := pool.Exec(ctx, insertScoreSampleSQL,
		sample.WalletAddress,
		sample.Score,
		sample.Level,
		sample.MarketCondition,
		factors,
		sample.CreatedAt,
	); execErr != nil {
		return fmt.Errorf("insert score sample: %w", execErr)
	}
	return nil
}

// ListScoresBetween lists score samples within a time window.
func (s *Store) ListScoresBetween(ctx context.Context, wallet string, from, to time.Time) ([]RiskScoreSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listScoresBetweenSQL, wallet, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list scores between: %w", queryErr)
	}
	defer rows.Close()

	return scanScoreSamples(rows)
}

// ListRecentScores lists the most recent score samples.
func (s *Store) ListRecentScores(ctx context.Context, wallet string, limit int) ([]RiskScoreSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentScoresSQL, wallet, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent scores: %w", queryErr)
	}
	defer rows.Close()

	return scanScoreSamples(rows)
}

func scanAlerts(rows pgx.Rows, capacity int) ([]Alert, error) {
	alerts := make([]Alert, 0, capacity)
	for rows.Next() {
		var alert Alert
		var method *string
		if err := rows.Scan(
			&alert.AlertID,
			&alert.Type,
			&alert.Severity,
			&alert.Title,
			&alert.Message,
			&alert.WalletAddress,
			&alert.TriggeredBy,
			&alert.Delivered,
			&method,
			&alert.CreatedAt,
		); err != nil {
			return nil, err
		}
		if method != nil {
			alert.DeliveryMethod = *method
		}
		alerts = append(alerts, alert)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func scanScoreSamples(rows pgx.Rows) ([]RiskScoreSample, error) {
	samples := make([]RiskScoreSample, 0)
	for rows.Next() {
		var sample RiskScoreSample
		var factors []byte
		if err := rows.Scan(
			&sample.WalletAddress,
			&sample.Score,
			&sample.Level,
			&sample.MarketCondition,
			&factors,
			&sample.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(factors) > 0 {
			if err := json.Unmarshal(factors, &sample.Factors); err != nil {
				return nil, fmt.Errorf("parse factors: %w", err)
			}
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

var (
	_ AlertStore = (*Store)(nil)
	_ ScoreStore = (*Store)(nil)
)
