package application

import (
	"strconv"
	"strings"
)

// ParseLoss reads an optional percentage field. Empty text returns nil.
func ParseLoss(field, value string) (*float64, error) {
	v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	if v == "" {
		return nil, nil
	}
	pct, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, invalid(CodeInvalidLoss, field, "loss percentage must be a number")
	}
	return &pct, nil
}

// ParseMultiplier reads the consumption multiplier. Empty text means 1.
func ParseMultiplier(value string) (float64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 1, nil
	}
	m, err := strconv.ParseFloat(v, 64)
	if err != nil || !(m > 0) {
		return 0, invalid(CodeInvalidMultiplier, "multiplier", "multiplier must be a positive number")
	}
	return m, nil
}

// ParseBool reads a checkbox style flag; empty text returns def.
func ParseBool(field, value string, def bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return def, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, invalid(CodeInvalidInput, field, "expected true or false")
	}
}
