package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process alert and score store. It is the
// default backend; a Postgres Store can replace it when a DSN is
// configured. All methods are safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	alerts []Alert
	scores []RiskScoreSample
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertAlert appends a new alert.
func (m *MemoryStore) InsertAlert(_ context.Context, alert Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return nil
}

// ListAlerts returns up to limit alerts, most recently created first,
// optionally filtered by wallet address.
func (m *MemoryStore) ListAlerts(_ context.Context, wallet string, limit int) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Alert, 0, limit)
	for i := len(m.alerts) - 1; i >= 0 && len(result) < limit; i-- {
		if wallet != "" && m.alerts[i].WalletAddress != wallet {
			continue
		}
		result = append(result, m.alerts[i])
	}
	return result, nil
}

// ListUndelivered returns every alert not yet marked delivered.
func (m *MemoryStore) ListUndelivered(_ context.Context) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Alert, 0)
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if !m.alerts[i].Delivered {
			result = append(result, m.alerts[i])
		}
	}
	return result, nil
}

// MarkDelivered records a successful delivery. Unknown ids return
// ErrAlertNotFound; re-marking an already delivered alert is a no-op.
func (m *MemoryStore) MarkDelivered(_ context.Context, alertID, method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].AlertID == alertID {
			m.alerts[i].Delivered = true
			m.alerts[i].DeliveryMethod = method
			return nil
		}
	}
	return ErrAlertNotFound
}

// CountAlerts returns the total and undelivered alert counts.
func (m *MemoryStore) CountAlerts(_ context.Context) (total, undelivered int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total = int64(len(m.alerts))
	for _, alert := range m.alerts {
		if !alert.Delivered {
			undelivered++
		}
	}
	return total, undelivered, nil
}

// InsertScoreSample appends a completed analysis sample.
func (m *MemoryStore) InsertScoreSample(_ context.Context, sample RiskScoreSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, sample)
	return nil
}

// ListScoresBetween lists score samples for a wallet within [from, to).
func (m *MemoryStore) ListScoresBetween(_ context.Context, wallet string, from, to time.Time) ([]RiskScoreSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]RiskScoreSample, 0)
	for _, sample := range m.scores {
		if wallet != "" && sample.WalletAddress != wallet {
			continue
		}
		if sample.CreatedAt.Before(from) || !sample.CreatedAt.Before(to) {
			continue
		}
		result = append(result, sample)
	}
	return result, nil
}

// ListRecentScores lists the most recent samples, newest first.
func (m *MemoryStore) ListRecentScores(_ context.Context, wallet string, limit int) ([]RiskScoreSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]RiskScoreSample, 0, limit)
	for i := len(m.scores) - 1; i >= 0 && len(result) < limit; i-- {
		if wallet != "" && m.scores[i].WalletAddress != wallet {
			continue
		}
		result = append(result, m.scores[i])
	}
	return result, nil
}

var (
	_ AlertStore = (*MemoryStore)(nil)
	_ ScoreStore = (*MemoryStore)(nil)
)
