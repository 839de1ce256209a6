package coin

import (
	"errors"
	"strings"
)

// FeeLevel is the coarse fee selection passed to transaction construction.
type FeeLevel string

// Fee levels.
const (
	FeeLow    FeeLevel = "low"
	FeeMedium FeeLevel = "medium"
	FeeHigh   FeeLevel = "high"
)

// DefaultFeeLevel is used when the caller does not pick one.
const DefaultFeeLevel = FeeMedium

var (
	// ErrUnknownCoin indicates a coin key or ID that is not supported.
	ErrUnknownCoin = errors.New("unknown coin")

	// ErrInvalidFeeLevel indicates a fee level outside low/medium/high.
	ErrInvalidFeeLevel = errors.New("invalid fee level")
)

// ParseFeeLevel parses a fee level string. An empty string yields the default.
func ParseFeeLevel(s string) (FeeLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultFeeLevel, nil
	case "low", "slow":
		return FeeLow, nil
	case "medium", "normal":
		return FeeMedium, nil
	case "high", "fast":
		return FeeHigh, nil
	default:
		return "", ErrInvalidFeeLevel
	}
}

// IsValid returns true for the three known fee levels.
func (f FeeLevel) IsValid() bool {
	switch f {
	case FeeLow, FeeMedium, FeeHigh:
		return true
	default:
		return false
	}
}

// String returns the fee level string.
func (f FeeLevel) String() string {
	return string(f)
}
