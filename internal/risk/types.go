package risk

import (
	"github.com/shopspring/decimal"
)

// Factor names used in weights, factor scores, and trigger predicates.
const (
	FactorConcentration   = "concentration"
	FactorLiquidity       = "liquidity"
	FactorVolatility      = "volatility"
	FactorContractRisk    = "contract_risk"
	FactorCorrelationRisk = "correlation_risk"
)

// FactorNames lists the five factors in deterministic scoring order.
var FactorNames = []string{
	FactorConcentration,
	FactorLiquidity,
	FactorVolatility,
	FactorContractRisk,
	FactorCorrelationRisk,
}

// Level is the qualitative band of an overall risk score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// MarketCondition is the market regime derived from the correlation signal.
type MarketCondition string

const (
	MarketHealthyRotation      MarketCondition = "healthy_rotation"
	MarketNeutralConsolidation MarketCondition = "neutral_consolidation"
	MarketStressedCorrelation  MarketCondition = "stressed_correlation"
)

// PortfolioAsset is a single holding within a wallet snapshot.
type PortfolioAsset struct {
	Symbol          string          `json:"symbol"`
	ContractAddress string          `json:"contract_address"`
	Balance         decimal.Decimal `json:"balance"`
	USDValue        decimal.Decimal `json:"usd_value"`
	PortfolioPct    float64         `json:"percentage_of_portfolio"`
	Protocol        string          `json:"protocol,omitempty"`
}

// Assessment is the immutable result of one Analyze call.
type Assessment struct {
	Score           float64            `json:"score"`
	Level           Level              `json:"level"`
	Factors         map[string]float64 `json:"factors"`
	MarketCondition MarketCondition    `json:"market_condition"`
	Recommendations []string           `json:"recommendations"`
}

// LevelForScore maps an overall score onto its qualitative band.
func LevelForScore(score float64) Level {
	switch {
	case score < 40:
		return LevelLow
	case score < 60:
		return LevelMedium
	case score < 80:
		return LevelHigh
	default:
		return LevelCritical
	}
}
