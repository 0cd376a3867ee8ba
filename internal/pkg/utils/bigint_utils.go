package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatBigInt converts a smallest-unit amount to a human-readable decimal string.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if strings.HasPrefix(formatted, ".") {
		formatted = "0" + formatted
	}
	if formatted == "" {
		if amount.Sign() == 0 {
			return "0", nil
		}
		return "", fmt.Errorf("formatting resulted in empty string for non-zero value %s", amount.String())
	}
	return formatted, nil
}

// ParseUnits converts a decimal string to a smallest-unit integer.
// Example: value="1.2345", decimals=18 => 1234500000000000000.
// Digits beyond the token's precision are rejected rather than silently truncated.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}

	negative := strings.HasPrefix(value, "-")
	if negative {
		value = value[1:]
	}

	intPart := value
	fracPart := ""
	if idx := strings.Index(value, "."); idx >= 0 {
		intPart = value[:idx]
		fracPart = value[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", value, decimals)
	}
	fracPart += strings.Repeat("0", int(decimals)-len(fracPart))

	result, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	if negative {
		result.Neg(result)
	}
	return result, nil
}

// CalculateValueUSD computes the USD value of a smallest-unit amount at the given price.
func CalculateValueUSD(amount *big.Int, decimals uint8, priceUSD float64) (float64, error) {
	if amount == nil {
		return 0, nil
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor)
	value.Mul(value, big.NewFloat(priceUSD))

	result, _ := value.Float64()
	return result, nil
}
