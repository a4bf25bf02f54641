package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedAlert(id, wallet string, delivered bool) Alert {
	return Alert{
		AlertID:       id,
		Type:          "high_risk_score",
		Severity:      "high",
		Title:         "High Risk",
		Message:       "test",
		WalletAddress: wallet,
		TriggeredBy:   "risk_scorer",
		Delivered:     delivered,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestMemoryStoreWalletFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		wallet := fmt.Sprintf("0x%d", i)
		if err := store.InsertAlert(ctx, seedAlert(fmt.Sprintf("id-%d", i), wallet, false)); err != nil {
			t.Fatalf("insert should succeed: %v", err)
		}
	}

	alerts, err := store.ListAlerts(ctx, "0x1", 50)
	if err != nil {
		t.Fatalf("list should succeed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert for 0x1, got %d", len(alerts))
	}
	if alerts[0].WalletAddress != "0x1" {
		t.Fatalf("wrong wallet returned: %s", alerts[0].WalletAddress)
	}
}

func TestMemoryStoreListOrderAndLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.InsertAlert(ctx, seedAlert(fmt.Sprintf("id-%d", i), "0xabc", false)); err != nil {
			t.Fatalf("insert should succeed: %v", err)
		}
	}

	alerts, err := store.ListAlerts(ctx, "", 3)
	if err != nil {
		t.Fatalf("list should succeed: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("limit should cap results at 3, got %d", len(alerts))
	}
	if alerts[0].AlertID != "id-4" {
		t.Fatalf("most recent alert should come first, got %s", alerts[0].AlertID)
	}
}

func TestMemoryStoreUndelivered(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.InsertAlert(ctx, seedAlert("done", "0x1", true)); err != nil {
		t.Fatalf("insert should succeed: %v", err)
	}
	if err := store.InsertAlert(ctx, seedAlert("pending", "0x1", false)); err != nil {
		t.Fatalf("insert should succeed: %v", err)
	}

	pending, err := store.ListUndelivered(ctx)
	if err != nil {
		t.Fatalf("list undelivered should succeed: %v", err)
	}
	if len(pending) != 1 || pending[0].AlertID != "pending" {
		t.Fatalf("only the undelivered alert should be listed, got %v", pending)
	}
}

func TestMemoryStoreMarkDeliveredIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.InsertAlert(ctx, seedAlert("id-1", "0x1", false)); err != nil {
		t.Fatalf("insert should succeed: %v", err)
	}

	if err := store.MarkDelivered(ctx, "id-1", "telegram"); err != nil {
		t.Fatalf("first mark should succeed: %v", err)
	}
	if err := store.MarkDelivered(ctx, "id-1", "telegram"); err != nil {
		t.Fatalf("repeated mark with same arguments should be a no-op: %v", err)
	}

	alerts, err := store.ListAlerts(ctx, "0x1", 1)
	if err != nil {
		t.Fatalf("list should succeed: %v", err)
	}
	if !alerts[0].Delivered || alerts[0].DeliveryMethod != "telegram" {
		t.Fatalf("delivery state not recorded: %+v", alerts[0])
	}

	if err := store.MarkDelivered(ctx, "missing", "telegram"); !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("unknown id should return ErrAlertNotFound, got %v", err)
	}
}

func TestMemoryStoreScoreHistory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		sample := RiskScoreSample{
			WalletAddress:   "0x1",
			Score:           float64(40 + i),
			Level:           "medium",
			MarketCondition: "neutral_consolidation",
			Factors:         map[string]float64{"concentration": 25},
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.InsertScoreSample(ctx, sample); err != nil {
			t.Fatalf("insert sample should succeed: %v", err)
		}
	}

	window, err := store.ListScoresBetween(ctx, "0x1", base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("window query should succeed: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected two samples in window, got %d", len(window))
	}

	recent, err := store.ListRecentScores(ctx, "0x1", 2)
	if err != nil {
		t.Fatalf("recent query should succeed: %v", err)
	}
	if len(recent) != 2 || recent[0].Score != 43 {
		t.Fatalf("recent scores should be newest first, got %v", recent)
	}
}
