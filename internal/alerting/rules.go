package alerting

import (
	"fmt"
	"time"

	"portfolio-risk-alerts/internal/risk"
)

// AlertType is the closed set of alert categories the engine can fire.
type AlertType string

const (
	AlertCriticalRiskScore    AlertType = "critical_risk_score"
	AlertHighRiskScore        AlertType = "high_risk_score"
	AlertConcentrationWarning AlertType = "concentration_warning"
	AlertMarketStress         AlertType = "market_stress"
)

// Severity ranks an alert's urgency.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// TriggerRule decides whether one alert type fires for an assessment.
type TriggerRule struct {
	Type     AlertType
	Severity Severity
	Cooldown time.Duration
	Matches  func(a risk.Assessment) bool
	Describe func(wallet string, a risk.Assessment) (title, message string)
}

// Thresholds are the tunable trigger boundaries. The production values
// are inferred from observed behaviour, not fixed by contract, so they
// stay configurable.
type Thresholds struct {
	HighRiskScore        float64 `mapstructure:"high_risk_threshold"`
	ConcentrationWarning float64 `mapstructure:"concentration_threshold"`
	MarketStress         float64 `mapstructure:"market_stress_threshold"`
}

// DefaultThresholds returns the observed trigger boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighRiskScore:        60,
		ConcentrationWarning: 60,
		MarketStress:         70,
	}
}

// DefaultRules builds the fixed rule set evaluated on every
// assessment. Rule order is the order alerts are emitted in.
func DefaultRules(th Thresholds, cooldown time.Duration) []TriggerRule {
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}

	return []TriggerRule{
		{
			Type:     AlertCriticalRiskScore,
			Severity: SeverityCritical,
			Cooldown: cooldown,
			Matches: func(a risk.Assessment) bool {
				return a.Level == risk.LevelCritical
			},
			Describe: func(wallet string, a risk.Assessment) (string, string) {
				return "Critical Portfolio Risk",
					fmt.Sprintf("Portfolio risk score %.1f for wallet %s is in the critical band; immediate de-risking is advised", a.Score, wallet)
			},
		},
		{
			Type:     AlertHighRiskScore,
			Severity: SeverityHigh,
			Cooldown: cooldown,
			// Suppressed whenever the critical rule matched the same
			// assessment: the high band excludes the critical one.
			Matches: func(a risk.Assessment) bool {
				return a.Score >= th.HighRiskScore && a.Level != risk.LevelCritical
			},
			Describe: func(wallet string, a risk.Assessment) (string, string) {
				return "High Portfolio Risk",
					fmt.Sprintf("Portfolio risk score %.1f for wallet %s is elevated; review the flagged factors", a.Score, wallet)
			},
		},
		{
			Type:     AlertConcentrationWarning,
			Severity: SeverityWarning,
			Cooldown: cooldown,
			Matches: func(a risk.Assessment) bool {
				return a.Factors[risk.FactorConcentration] > th.ConcentrationWarning
			},
			Describe: func(wallet string, a risk.Assessment) (string, string) {
				return "Concentration Warning",
					fmt.Sprintf("Concentration factor %.1f for wallet %s exceeds the diversification threshold", a.Factors[risk.FactorConcentration], wallet)
			},
		},
		{
			Type:     AlertMarketStress,
			Severity: SeverityHigh,
			Cooldown: cooldown,
			Matches: func(a risk.Assessment) bool {
				return a.Factors[risk.FactorCorrelationRisk] >= th.MarketStress &&
					a.MarketCondition == risk.MarketStressedCorrelation
			},
			Describe: func(wallet string, a risk.Assessment) (string, string) {
				return "Market Stress",
					fmt.Sprintf("Market-wide correlation is stressed (factor %.1f); wallet %s positions are likely to move together", a.Factors[risk.FactorCorrelationRisk], wallet)
			},
		},
	}
}
