package risk

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// neutralScore is used when a snapshot gives a factor nothing to
// assess. Mid-range keeps empty portfolios out of both extremes.
const neutralScore = 50.0

// Options parameterise a Scorer. Zero values fall back to the built-in
// weights and tier table.
type Options struct {
	Weights Weights
	Tiers   TierTable
}

// Scorer computes portfolio risk assessments. It holds only immutable
// configuration and is safe for concurrent use.
type Scorer struct {
	weights Weights
	tiers   TierTable
	vols    volatilityTable
	logger  zerolog.Logger
}

// NewScorer validates the weight set and constructs a Scorer. Invalid
// weights are a fatal configuration error.
func NewScorer(opts Options, logger zerolog.Logger) (*Scorer, error) {
	weights := opts.Weights
	if weights.IsZero() {
		weights = DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	tiers := opts.Tiers
	if tiers == nil {
		tiers = DefaultTierTable()
	}

	return &Scorer{
		weights: weights,
		tiers:   tiers,
		vols:    defaultVolatilityTable(),
		logger:  logger.With().Str("component", "risk_scorer").Logger(),
	}, nil
}

// Analyze scores a wallet snapshot against all five factors and returns
// a fresh Assessment. marketCorrelation is the optional market-wide
// correlation scalar in [0,1]; nil defaults to the neutral regime.
// Analyze never fails: malformed or empty snapshots degrade to
// documented defaults.
func (s *Scorer) Analyze(wallet string, assets []PortfolioAsset, marketCorrelation *float64) Assessment {
	shares := assetShares(assets)

	correlationScore, condition := s.correlationRisk(marketCorrelation)

	factors := map[string]float64{
		FactorConcentration:   s.concentration(shares),
		FactorLiquidity:       s.liquidity(assets, shares),
		FactorVolatility:      s.volatility(assets, shares),
		FactorContractRisk:    s.contractRisk(assets, shares),
		FactorCorrelationRisk: correlationScore,
	}

	overall := clampScore(
		s.weights.Concentration*factors[FactorConcentration] +
			s.weights.Liquidity*factors[FactorLiquidity] +
			s.weights.Volatility*factors[FactorVolatility] +
			s.weights.ContractRisk*factors[FactorContractRisk] +
			s.weights.CorrelationRisk*factors[FactorCorrelationRisk],
	)

	assessment := Assessment{
		Score:           overall,
		Level:           LevelForScore(overall),
		Factors:         factors,
		MarketCondition: condition,
		Recommendations: s.recommendations(factors, condition),
	}

	s.logger.Debug().
		Str("wallet", wallet).
		Float64("score", overall).
		Str("level", string(assessment.Level)).
		Str("market_condition", string(condition)).
		Msg("portfolio analyzed")

	return assessment
}

// concentration is the Herfindahl-Hirschman Index of the share vector,
// scaled to 0-100. One asset scores 100, N equal assets score 100/N.
func (s *Scorer) concentration(shares []float64) float64 {
	if len(shares) == 0 {
		return 0
	}
	hhi := 0.0
	for _, share := range shares {
		hhi += share * share
	}
	return clampScore(hhi * 100)
}

func (s *Scorer) liquidity(assets []PortfolioAsset, shares []float64) float64 {
	return s.shareWeighted(assets, shares, func(asset PortfolioAsset) float64 {
		return s.tiers.Lookup(asset.Protocol).liquidityRisk()
	})
}

func (s *Scorer) volatility(assets []PortfolioAsset, shares []float64) float64 {
	return s.shareWeighted(assets, shares, func(asset PortfolioAsset) float64 {
		return s.vols.lookup(asset.Symbol)
	})
}

func (s *Scorer) contractRisk(assets []PortfolioAsset, shares []float64) float64 {
	return s.shareWeighted(assets, shares, func(asset PortfolioAsset) float64 {
		return s.tiers.Lookup(asset.Protocol).contractRisk()
	})
}

// correlationRisk maps the market correlation scalar onto a risk score
// and a market regime via three contiguous bands.
func (s *Scorer) correlationRisk(correlation *float64) (float64, MarketCondition) {
	if correlation == nil {
		return 40, MarketNeutralConsolidation
	}

	c := *correlation
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}

	switch {
	case c < 0.4:
		// Low cross-asset correlation: independent rotation.
		return clampScore(c / 0.4 * 25), MarketHealthyRotation
	case c <= 0.6:
		return clampScore(30 + (c-0.4)/0.2*20), MarketNeutralConsolidation
	default:
		return clampScore(60 + (c-0.6)*100), MarketStressedCorrelation
	}
}

// shareWeighted averages a per-asset risk value weighted by each
// asset's share of total value. An empty snapshot has nothing to
// assess and returns the neutral mid score.
func (s *Scorer) shareWeighted(assets []PortfolioAsset, shares []float64, riskOf func(PortfolioAsset) float64) float64 {
	if len(assets) == 0 || len(shares) != len(assets) {
		return neutralScore
	}
	total := 0.0
	for i, asset := range assets {
		total += shares[i] * riskOf(asset)
	}
	return clampScore(total)
}

// assetShares resolves each asset's fractional share of the portfolio.
// USD values are authoritative; if the snapshot carries no value at
// all it falls back to the reported percentages, then to equal shares.
// The result always sums to 1 for a non-empty snapshot.
func assetShares(assets []PortfolioAsset) []float64 {
	if len(assets) == 0 {
		return nil
	}

	totalUSD := decimal.Zero
	for _, asset := range assets {
		if asset.USDValue.Sign() > 0 {
			totalUSD = totalUSD.Add(asset.USDValue)
		}
	}

	shares := make([]float64, len(assets))
	if totalUSD.Sign() > 0 {
		for i, asset := range assets {
			if asset.USDValue.Sign() > 0 {
				shares[i] = asset.USDValue.Div(totalUSD).InexactFloat64()
			}
		}
		return shares
	}

	totalPct := 0.0
	for _, asset := range assets {
		if asset.PortfolioPct > 0 {
			totalPct += asset.PortfolioPct
		}
	}
	if totalPct > 0 {
		for i, asset := range assets {
			if asset.PortfolioPct > 0 {
				shares[i] = asset.PortfolioPct / totalPct
			}
		}
		return shares
	}

	for i := range shares {
		shares[i] = 1.0 / float64(len(assets))
	}
	return shares
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
