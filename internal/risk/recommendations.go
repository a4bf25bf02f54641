package risk

// Per-factor thresholds above which a recommendation is emitted.
const (
	recConcentrationThreshold = 60.0
	recLiquidityThreshold     = 50.0
	recVolatilityThreshold    = 60.0
	recContractThreshold      = 50.0
	recCorrelationThreshold   = 60.0
)

// recommendations produces the ordered advisory list for an
// assessment: one entry per factor above its threshold, in factor
// order, then a market-timing note for a stressed regime. A portfolio
// with nothing to flag still gets a baseline entry.
func (s *Scorer) recommendations(factors map[string]float64, condition MarketCondition) []string {
	recs := make([]string, 0, len(FactorNames)+1)

	if factors[FactorConcentration] > recConcentrationThreshold {
		recs = append(recs, "High concentration detected: diversify holdings across more assets to reduce single-asset exposure")
	}
	if factors[FactorLiquidity] > recLiquidityThreshold {
		recs = append(recs, "Low liquidity exposure: shift positions toward deeper, established venues to reduce exit risk")
	}
	if factors[FactorVolatility] > recVolatilityThreshold {
		recs = append(recs, "High volatility exposure: consider increasing the stablecoin allocation to dampen drawdowns")
	}
	if factors[FactorContractRisk] > recContractThreshold {
		recs = append(recs, "Elevated contract risk: reduce exposure to unaudited or unrecognized protocols")
	}
	if factors[FactorCorrelationRisk] > recCorrelationThreshold {
		recs = append(recs, "Correlation risk elevated: positions are likely to move together in a drawdown")
	}

	if condition == MarketStressedCorrelation {
		recs = append(recs, "Market regime is stressed: correlations are elevated market-wide, avoid adding leverage and keep dry powder")
	}

	if len(recs) == 0 {
		recs = append(recs, "Portfolio risk factors are within normal ranges; maintain current allocation and monitoring cadence")
	}

	return recs
}
