package risk

import (
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	scorer, err := NewScorer(Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("default scorer construction should succeed: %v", err)
	}
	return scorer
}

func asset(symbol string, usd int64, protocol string) PortfolioAsset {
	return PortfolioAsset{
		Symbol:          symbol,
		ContractAddress: "0x" + symbol,
		Balance:         decimal.NewFromInt(1),
		USDValue:        decimal.NewFromInt(usd),
		Protocol:        protocol,
	}
}

func TestWeightValidation(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights should validate: %v", err)
	}

	bad := Weights{Concentration: 0.5, Liquidity: 0.5, Volatility: 0.5, ContractRisk: 0.5, CorrelationRisk: 0.5}
	if _, err := NewScorer(Options{Weights: bad}, zerolog.Nop()); err == nil {
		t.Fatal("weights summing to 2.5 should fail construction")
	}

	negative := Weights{Concentration: 1.2, Liquidity: 0.1, Volatility: 0.1, ContractRisk: -0.2, CorrelationRisk: -0.2}
	if _, err := NewScorer(Options{Weights: negative}, zerolog.Nop()); err == nil {
		t.Fatal("non-positive weight should fail construction")
	}
}

func TestConcentrationHHI(t *testing.T) {
	scorer := newTestScorer(t)

	single := scorer.Analyze("0x123", []PortfolioAsset{asset("ETH", 3000, "")}, nil)
	if got := single.Factors[FactorConcentration]; got != 100 {
		t.Fatalf("single asset concentration should be 100, got %v", got)
	}

	equal := []PortfolioAsset{
		asset("A", 2500, ""),
		asset("B", 2500, ""),
		asset("C", 2500, ""),
		asset("D", 2500, ""),
	}
	diversified := scorer.Analyze("0x123", equal, nil)
	if got := diversified.Factors[FactorConcentration]; got < 20 || got > 30 {
		t.Fatalf("4 equal assets should score HHI around 25, got %v", got)
	}

	empty := scorer.Analyze("0x123", nil, nil)
	if got := empty.Factors[FactorConcentration]; got != 0 {
		t.Fatalf("empty snapshot concentration should be 0, got %v", got)
	}
}

func TestConcentrationExtremeValues(t *testing.T) {
	scorer := newTestScorer(t)

	extreme := []PortfolioAsset{{
		Symbol:   "TOKEN",
		Balance:  decimal.New(999999999, 0),
		USDValue: decimal.New(999999999999, 0),
	}}
	if got := scorer.Analyze("0x123", extreme, nil).Factors[FactorConcentration]; got != 100 {
		t.Fatalf("single asset should always be 100%% concentration, got %v", got)
	}
}

func TestLiquidityTiers(t *testing.T) {
	scorer := newTestScorer(t)

	establishedOnly := []PortfolioAsset{
		asset("USDC", 10000, "merchant_moe"),
		asset("mETH", 10000, "fusionx"),
	}
	if got := scorer.Analyze("0x123", establishedOnly, nil).Factors[FactorLiquidity]; got >= 30 {
		t.Fatalf("established venues should score below 30 liquidity risk, got %v", got)
	}

	thin := []PortfolioAsset{asset("TOKEN", 5000, "clipper_dex")}
	if got := scorer.Analyze("0x123", thin, nil).Factors[FactorLiquidity]; got <= 50 {
		t.Fatalf("emerging venue should score above 50 liquidity risk, got %v", got)
	}
}

func TestVolatilityClasses(t *testing.T) {
	scorer := newTestScorer(t)

	stables := []PortfolioAsset{asset("USDC", 10000, "")}
	if got := scorer.Analyze("0x123", stables, nil).Factors[FactorVolatility]; got >= 10 {
		t.Fatalf("all-stablecoin snapshot should score below 10 volatility, got %v", got)
	}

	native := []PortfolioAsset{asset("MNT", 5000, "")}
	if got := scorer.Analyze("0x123", native, nil).Factors[FactorVolatility]; got <= 50 {
		t.Fatalf("native token should score above 50 volatility, got %v", got)
	}
}

func TestContractRiskTiers(t *testing.T) {
	scorer := newTestScorer(t)

	established := []PortfolioAsset{asset("mETH", 35000, "merchant_moe")}
	if got := scorer.Analyze("0x123", established, nil).Factors[FactorContractRisk]; got >= 20 {
		t.Fatalf("established protocol should score below 20 contract risk, got %v", got)
	}

	unknown := []PortfolioAsset{asset("RANDOM", 5000, "unknown_dex")}
	if got := scorer.Analyze("0x123", unknown, nil).Factors[FactorContractRisk]; got <= 50 {
		t.Fatalf("unknown protocol should score above 50 contract risk, got %v", got)
	}
}

func TestCorrelationRegimes(t *testing.T) {
	scorer := newTestScorer(t)

	cases := []struct {
		correlation float64
		condition   MarketCondition
		min, max    float64
	}{
		{0.3, MarketHealthyRotation, 0, 30},
		{0.5, MarketNeutralConsolidation, 30, 50},
		{0.8, MarketStressedCorrelation, 60, 100},
	}

	for _, tc := range cases {
		c := tc.correlation
		result := scorer.Analyze("0x123", []PortfolioAsset{asset("USDC", 1000, "")}, &c)
		if result.MarketCondition != tc.condition {
			t.Fatalf("correlation %v: expected condition %s, got %s", c, tc.condition, result.MarketCondition)
		}
		score := result.Factors[FactorCorrelationRisk]
		if score < tc.min || score > tc.max {
			t.Fatalf("correlation %v: score %v outside [%v,%v]", c, score, tc.min, tc.max)
		}
	}
}

func TestCorrelationDefaultsToNeutral(t *testing.T) {
	scorer := newTestScorer(t)

	result := scorer.Analyze("0x123", []PortfolioAsset{asset("USDC", 1000, "")}, nil)
	if result.MarketCondition != MarketNeutralConsolidation {
		t.Fatalf("missing correlation should default to neutral, got %s", result.MarketCondition)
	}
	score := result.Factors[FactorCorrelationRisk]
	if score < 30 || score > 50 {
		t.Fatalf("missing correlation should score in the neutral band, got %v", score)
	}
}

func TestLevelMapping(t *testing.T) {
	cases := map[float64]Level{
		25: LevelLow,
		40: LevelMedium,
		60: LevelHigh,
		85: LevelCritical,
	}
	for score, expected := range cases {
		if got := LevelForScore(score); got != expected {
			t.Fatalf("score %v should map to %s, got %s", score, expected, got)
		}
	}
}

func TestAnalyzeFullPortfolio(t *testing.T) {
	scorer := newTestScorer(t)

	assets := []PortfolioAsset{
		asset("USDC", 10000, "merchant_moe"),
		asset("mETH", 20000, "fusionx"),
		asset("MNT", 5000, ""),
	}

	for _, correlation := range []float64{0.3, 0.5, 0.8} {
		c := correlation
		result := scorer.Analyze("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb", assets, &c)

		if result.Score < 0 || result.Score > 100 {
			t.Fatalf("overall score out of range: %v", result.Score)
		}
		for _, name := range FactorNames {
			if _, ok := result.Factors[name]; !ok {
				t.Fatalf("factor %s missing from assessment", name)
			}
		}
		if len(result.Recommendations) == 0 {
			t.Fatal("non-trivial snapshot should always carry recommendations")
		}
		if result.Level != LevelForScore(result.Score) {
			t.Fatalf("level %s inconsistent with score %v", result.Level, result.Score)
		}
	}
}

func TestAnalyzeWeightedAggregation(t *testing.T) {
	scorer := newTestScorer(t)

	c := 0.3
	result := scorer.Analyze("0x123", []PortfolioAsset{asset("USDC", 10000, "")}, &c)

	if result.Factors[FactorConcentration] != 100 {
		t.Fatalf("single stablecoin concentration should be 100, got %v", result.Factors[FactorConcentration])
	}
	if result.Factors[FactorVolatility] >= 10 {
		t.Fatalf("stablecoin volatility should be below 10, got %v", result.Factors[FactorVolatility])
	}
	if result.Factors[FactorCorrelationRisk] >= 30 {
		t.Fatalf("correlation 0.3 should score below 30, got %v", result.Factors[FactorCorrelationRisk])
	}
	if result.MarketCondition != MarketHealthyRotation {
		t.Fatalf("correlation 0.3 should be healthy_rotation, got %s", result.MarketCondition)
	}

	weights := DefaultWeights()
	expected := weights.Concentration*result.Factors[FactorConcentration] +
		weights.Liquidity*result.Factors[FactorLiquidity] +
		weights.Volatility*result.Factors[FactorVolatility] +
		weights.ContractRisk*result.Factors[FactorContractRisk] +
		weights.CorrelationRisk*result.Factors[FactorCorrelationRisk]
	if math.Abs(result.Score-expected) > 1e-9 {
		t.Fatalf("overall score %v does not match weighted formula %v", result.Score, expected)
	}
}

func TestRecommendationsMentionConcentration(t *testing.T) {
	scorer := newTestScorer(t)

	factors := map[string]float64{
		FactorConcentration:   70,
		FactorLiquidity:       20,
		FactorVolatility:      30,
		FactorContractRisk:    10,
		FactorCorrelationRisk: 15,
	}
	recs := scorer.recommendations(factors, MarketHealthyRotation)
	if len(recs) == 0 {
		t.Fatal("high concentration should produce a recommendation")
	}
	found := false
	for _, rec := range recs {
		if containsFold(rec, "concentration") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a concentration recommendation, got %v", recs)
	}
}

func TestRecommendationsStressedMarket(t *testing.T) {
	scorer := newTestScorer(t)

	calm := map[string]float64{
		FactorConcentration:   10,
		FactorLiquidity:       10,
		FactorVolatility:      10,
		FactorContractRisk:    10,
		FactorCorrelationRisk: 10,
	}
	recs := scorer.recommendations(calm, MarketStressedCorrelation)
	found := false
	for _, rec := range recs {
		if containsFold(rec, "stressed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("stressed regime should add a market-timing note regardless of factors, got %v", recs)
	}
}

func TestEmptySnapshotDegradesGracefully(t *testing.T) {
	scorer := newTestScorer(t)

	result := scorer.Analyze("0x123", nil, nil)
	if result.Factors[FactorConcentration] != 0 {
		t.Fatalf("empty snapshot concentration should be 0, got %v", result.Factors[FactorConcentration])
	}
	for _, name := range []string{FactorLiquidity, FactorVolatility, FactorContractRisk} {
		if got := result.Factors[name]; got != neutralScore {
			t.Fatalf("empty snapshot %s should default to %v, got %v", name, neutralScore, got)
		}
	}
	if result.Score < 0 || result.Score > 100 {
		t.Fatalf("degenerate score should still be valid: %v", result.Score)
	}
}

func TestSharesFallBackToPercentages(t *testing.T) {
	assets := []PortfolioAsset{
		{Symbol: "A", PortfolioPct: 75},
		{Symbol: "B", PortfolioPct: 25},
	}
	shares := assetShares(assets)
	if math.Abs(shares[0]-0.75) > 1e-9 || math.Abs(shares[1]-0.25) > 1e-9 {
		t.Fatalf("zero-value snapshot should use reported percentages, got %v", shares)
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
