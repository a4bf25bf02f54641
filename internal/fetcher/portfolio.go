package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolio-risk-alerts/internal/risk"
)

const portfolioPath = "/api/v1/portfolio"

// PortfolioOptions parameterise the portfolio-data client.
type PortfolioOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Portfolio fetches wallet snapshots over HTTP.
type Portfolio struct {
	opts    PortfolioOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewPortfolio constructs a portfolio-data client.
func NewPortfolio(opts PortfolioOptions, logger zerolog.Logger) *Portfolio {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}

	return &Portfolio{
		opts:    opts,
		logger:  logger.With().Str("component", "portfolio_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type portfolioResponse struct {
	WalletAddress string                `json:"wallet_address"`
	Assets        []risk.PortfolioAsset `json:"assets"`
}

// FetchPortfolio retrieves the current snapshot for a wallet.
func (p *Portfolio) FetchPortfolio(ctx context.Context, wallet string) ([]risk.PortfolioAsset, error) {
	if strings.TrimSpace(wallet) == "" {
		return nil, errors.New("wallet address required")
	}

	endpoint := fmt.Sprintf("%s%s/%s", p.baseURL, portfolioPath, url.PathEscape(wallet))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(p.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError("portfolio api", resp.StatusCode, payload)
	}

	var parsed portfolioResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("parse portfolio response: %w", err)
	}

	p.logger.Debug().
		Str("wallet", wallet).
		Int("assets", len(parsed.Assets)).
		Msg("portfolio snapshot fetched")

	return parsed.Assets, nil
}

type errorResponse struct {
	ErrorType   string `json:"error_type"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func parseHTTPError(source string, status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Description != "" {
			return fmt.Errorf("%s error (%d): %s", source, status, apiErr.Description)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%s error (%d): %s", source, status, apiErr.Message)
		}
		if apiErr.ErrorType != "" {
			return fmt.Errorf("%s error (%d): %s", source, status, apiErr.ErrorType)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("%s error (%d): %s", source, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%s error (%d)", source, status)
}

var _ PortfolioFetcher = (*Portfolio)(nil)
