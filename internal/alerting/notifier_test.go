package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"portfolio-risk-alerts/internal/storage"
)

func sampleAlert() storage.Alert {
	return storage.Alert{
		AlertID:       "abc-123",
		Type:          string(AlertCriticalRiskScore),
		Severity:      string(SeverityCritical),
		Title:         "Critical Portfolio Risk",
		Message:       "score 90.0 is in the critical band",
		WalletAddress: "0x123",
		TriggeredBy:   "risk_scorer",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())

	if err := notifier.Notify(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("telegram notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("unexpected chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "Critical Portfolio Risk") {
		t.Fatalf("message text should carry the alert title, got %q", received["text"])
	}
	if notifier.Method() != "telegram" {
		t.Fatalf("delivery method should be telegram, got %s", notifier.Method())
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())

	if err := notifier.Notify(context.Background(), sampleAlert()); err == nil {
		t.Fatal("ok=false should surface an error")
	}
}
