package coin

import (
	"errors"
	"math/big"
	"strings"
)

// ErrInvalidAmount indicates an amount string that cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a human-readable amount ("0.015") into the coin's
// smallest unit.
func (c Coin) ParseAmount(amount string) (*big.Int, error) {
	return ParseDecimalAmount(amount, c.Decimals())
}

// FormatAmount renders an amount in the smallest unit as a decimal string.
func (c Coin) FormatAmount(amount *big.Int) string {
	return FormatSignedDecimalAmount(amount, c.Decimals())
}

// ParseDecimalAmount parses a decimal amount string to big.Int with the given decimal places.
// For example, "1.5" with 8 decimals returns 150000000. Extra fractional digits are truncated.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int) (*big.Int, error) {
	if amount == "" || strings.HasPrefix(amount, "-") {
		return nil, ErrInvalidAmount
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, ErrInvalidAmount
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if intPart == "" {
		intPart = "0"
	}
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return nil, ErrInvalidAmount
		}
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalPlaces)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart == "" {
		return result, nil
	}

	for _, c := range decPart {
		if c < '0' || c > '9' {
			return nil, ErrInvalidAmount
		}
	}

	for len(decPart) < decimalPlaces {
		decPart += "0"
	}
	decPart = decPart[:decimalPlaces]
	if decPart == "" {
		return result, nil
	}

	decVal, ok := new(big.Int).SetString(decPart, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}

	return result.Add(result, decVal), nil
}

// FormatDecimalAmount converts a big.Int to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed, keeping at least one digit.
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()
	for len(str) <= decimalPlaces {
		str = "0" + str
	}

	decimalPos := len(str) - decimalPlaces
	result := str[:decimalPos] + "." + str[decimalPos:]

	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}

	return result
}

// FormatSignedDecimalAmount formats a possibly-negative amount with the correct decimals.
func FormatSignedDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	if amount.Sign() >= 0 {
		return FormatDecimalAmount(amount, decimalPlaces)
	}
	abs := new(big.Int).Abs(amount)
	return "-" + FormatDecimalAmount(abs, decimalPlaces)
}
