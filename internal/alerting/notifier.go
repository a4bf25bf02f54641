package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolio-risk-alerts/internal/storage"
)

// Notifier pushes a fired alert to an external delivery channel.
type Notifier interface {
	Notify(ctx context.Context, alert storage.Alert) error
	// Method is the delivery-method string recorded on success.
	Method() string
}

// TelegramNotifier delivers alerts via the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram delivery channel.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Method returns the delivery-method identifier.
func (n *TelegramNotifier) Method() string {
	return "telegram"
}

// Notify sends the alert text via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, alert storage.Alert) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(alert),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("alert_id", alert.AlertID).
		Str("alert_type", alert.Type).
		Str("wallet", alert.WalletAddress).
		Msg("alert delivered (Telegram)")
	return nil
}

func renderMessage(alert storage.Alert) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[%s] %s\n", strings.ToUpper(alert.Severity), alert.Title))
	builder.WriteString(alert.Message + "\n")
	if alert.WalletAddress != "" {
		builder.WriteString(fmt.Sprintf("Wallet: %s\n", alert.WalletAddress))
	}
	builder.WriteString(fmt.Sprintf("Type: %s\n", alert.Type))
	builder.WriteString(fmt.Sprintf("Triggered: %s UTC\n", alert.CreatedAt.UTC().Format(time.RFC3339)))
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
