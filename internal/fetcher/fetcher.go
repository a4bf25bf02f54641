package fetcher

import (
	"context"

	"portfolio-risk-alerts/internal/risk"
)

// PortfolioFetcher retrieves a wallet snapshot from the portfolio-data
// collaborator.
type PortfolioFetcher interface {
	FetchPortfolio(ctx context.Context, wallet string) ([]risk.PortfolioAsset, error)
}

// CorrelationFetcher retrieves the market-wide correlation scalar from
// the macro-signal collaborator. A nil value with a nil error means no
// signal is currently published; callers fall back to the neutral
// regime.
type CorrelationFetcher interface {
	FetchCorrelation(ctx context.Context) (*float64, error)
}
