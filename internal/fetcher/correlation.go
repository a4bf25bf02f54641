package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const correlationPath = "/api/v1/market/correlation"

// MacroOptions parameterise the macro-signal client.
type MacroOptions struct {
	BaseURL string
	Timeout time.Duration
}

// Macro fetches the market-wide correlation scalar.
type Macro struct {
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewMacro constructs a macro-signal client.
func NewMacro(opts MacroOptions, logger zerolog.Logger) *Macro {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8002"
	}

	return &Macro{
		logger:  logger.With().Str("component", "macro_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type correlationResponse struct {
	Correlation *float64 `json:"correlation"`
	UpdatedAt   string   `json:"updated_at"`
}

// FetchCorrelation retrieves the current correlation scalar. A 404 or
// an empty payload means no signal is published yet and returns nil
// without error; scoring falls back to the neutral regime.
func (m *Macro) FetchCorrelation(ctx context.Context) (*float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+correlationPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		m.logger.Debug().Msg("no correlation signal published")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError("macro api", resp.StatusCode, payload)
	}

	var parsed correlationResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("parse correlation response: %w", err)
	}
	if parsed.Correlation == nil {
		return nil, nil
	}

	c := *parsed.Correlation
	if c < 0 || c > 1 {
		return nil, fmt.Errorf("correlation %v outside [0,1]", c)
	}

	m.logger.Debug().Float64("correlation", c).Msg("market correlation fetched")
	return &c, nil
}

var _ CorrelationFetcher = (*Macro)(nil)
