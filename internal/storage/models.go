package storage

import (
	"time"
)

// Alert is one triggered risk alert. Lifecycle: created by the alert
// engine, mutated only by delivery marking, never deleted here.
type Alert struct {
	AlertID        string    `json:"alert_id"`
	Type           string    `json:"alert_type"`
	Severity       string    `json:"severity"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	WalletAddress  string    `json:"wallet_address,omitempty"`
	TriggeredBy    string    `json:"triggered_by"`
	Delivered      bool      `json:"delivered"`
	DeliveryMethod string    `json:"delivery_method,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RiskScoreSample records one completed portfolio analysis, kept for
// the show/export history views.
type RiskScoreSample struct {
	WalletAddress   string             `json:"wallet_address"`
	Score           float64            `json:"score"`
	Level           string             `json:"level"`
	MarketCondition string             `json:"market_condition"`
	Factors         map[string]float64 `json:"factors"`
	CreatedAt       time.Time          `json:"created_at"`
}
