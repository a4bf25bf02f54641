package risk

import "strings"

// ProtocolTier is a coarse trust and liquidity ranking for a DeFi
// protocol. It drives both the liquidity and the contract risk factors.
type ProtocolTier int

const (
	// TierEstablished covers audited, high-TVL protocols.
	TierEstablished ProtocolTier = iota
	// TierGrowth covers mid-size protocols with a track record.
	TierGrowth
	// TierEmerging covers young or thin-liquidity protocols.
	TierEmerging
	// TierUnknown is the fallback for anything unrecognised.
	TierUnknown
)

// TierTable maps protocol names to their tier. Lookups are
// case-insensitive; a miss resolves to TierUnknown, never an error.
type TierTable map[string]ProtocolTier

// DefaultTierTable returns the built-in protocol ranking for the
// Mantle DeFi ecosystem.
func DefaultTierTable() TierTable {
	return TierTable{
		"merchant_moe": TierEstablished,
		"fusionx":      TierEstablished,
		"agni":         TierEstablished,
		"lendle":       TierGrowth,
		"init_capital": TierGrowth,
		"izumi":        TierGrowth,
		"butter":       TierEmerging,
		"clipper_dex":  TierEmerging,
		"swapsicle":    TierEmerging,
	}
}

// Lookup resolves a protocol name, defaulting to TierUnknown. An asset
// held outside any protocol is also treated as TierUnknown: there is no
// venue depth to lean on, which is the conservative reading.
func (t TierTable) Lookup(protocol string) ProtocolTier {
	tier, ok := t[strings.ToLower(strings.TrimSpace(protocol))]
	if !ok {
		return TierUnknown
	}
	return tier
}

// liquidityRisk converts a tier into a 0-100 liquidity risk value.
func (p ProtocolTier) liquidityRisk() float64 {
	switch p {
	case TierEstablished:
		return 15
	case TierGrowth:
		return 35
	case TierEmerging:
		return 65
	default:
		return 80
	}
}

// contractRisk converts a tier into a 0-100 smart-contract risk value.
func (p ProtocolTier) contractRisk() float64 {
	switch p {
	case TierEstablished:
		return 10
	case TierGrowth:
		return 30
	case TierEmerging:
		return 60
	default:
		return 80
	}
}

// Volatility classes keyed by token symbol. Unclassified symbols score
// volUnclassified, the conservative default.
const (
	volStable       = 5.0
	volMajor        = 55.0
	volNative       = 70.0
	volUnclassified = 75.0
)

type volatilityTable map[string]float64

func defaultVolatilityTable() volatilityTable {
	return volatilityTable{
		"usdc":  volStable,
		"usdt":  volStable,
		"dai":   volStable,
		"usde":  volStable,
		"usdy":  volStable,
		"eth":   volMajor,
		"weth":  volMajor,
		"wbtc":  volMajor,
		"meth":  volMajor,
		"cmeth": volMajor,
		"mnt":   volNative,
		"wmnt":  volNative,
	}
}

func (v volatilityTable) lookup(symbol string) float64 {
	if score, ok := v[strings.ToLower(strings.TrimSpace(symbol))]; ok {
		return score
	}
	return volUnclassified
}
