package tariff

import (
	"strings"
)

// Tier is a consumer tariff tier.
type Tier string

const (
	TierI   Tier = "I"
	TierIIA Tier = "II-A"
	TierIIB Tier = "II-B"
	TierIII Tier = "III"
)

// Tiers lists every supported tier in display order.
var Tiers = []Tier{TierI, TierIIA, TierIIB, TierIII}

// ParseTier accepts "I", "II-A", "IIA", "Tier II-B", "3" and similar spellings.
func ParseTier(value string) (Tier, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	v = strings.TrimPrefix(v, "TIER")
	v = strings.TrimSpace(v)
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	switch v {
	case "I", "1":
		return TierI, nil
	case "IIA", "2A":
		return TierIIA, nil
	case "IIB", "2B":
		return TierIIB, nil
	case "III", "3":
		return TierIII, nil
	default:
		return "", ErrUnknownTier
	}
}

// Valid reports whether t is a supported tier.
func (t Tier) Valid() bool {
	switch t {
	case TierI, TierIIA, TierIIB, TierIII:
		return true
	default:
		return false
	}
}
