package risk

import (
	"fmt"
	"math"
)

// weightSumTolerance bounds how far the weight sum may drift from 1.0.
const weightSumTolerance = 0.01

// Weights assigns a relative importance to each risk factor.
type Weights struct {
	Concentration   float64 `mapstructure:"concentration"`
	Liquidity       float64 `mapstructure:"liquidity"`
	Volatility      float64 `mapstructure:"volatility"`
	ContractRisk    float64 `mapstructure:"contract_risk"`
	CorrelationRisk float64 `mapstructure:"correlation_risk"`
}

// DefaultWeights returns the production weighting of the five factors.
func DefaultWeights() Weights {
	return Weights{
		Concentration:   0.30,
		Liquidity:       0.20,
		Volatility:      0.20,
		ContractRisk:    0.15,
		CorrelationRisk: 0.15,
	}
}

// Validate checks that every weight is positive and the sum is 1.0
// within tolerance. A failure here is a configuration error.
func (w Weights) Validate() error {
	for name, value := range w.byFactor() {
		if value <= 0 {
			return fmt.Errorf("risk weight %s must be positive, got %v", name, value)
		}
	}
	sum := w.Concentration + w.Liquidity + w.Volatility + w.ContractRisk + w.CorrelationRisk
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("risk weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// IsZero reports whether no weight has been configured at all.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

func (w Weights) byFactor() map[string]float64 {
	return map[string]float64{
		FactorConcentration:   w.Concentration,
		FactorLiquidity:       w.Liquidity,
		FactorVolatility:      w.Volatility,
		FactorContractRisk:    w.ContractRisk,
		FactorCorrelationRisk: w.CorrelationRisk,
	}
}
