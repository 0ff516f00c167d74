package valueobjects

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNonFiniteAmount is returned for NaN and infinite inputs.
var ErrNonFiniteAmount = errors.New("amount must be a finite number")

// ErrInvalidAmountFormat is returned when the input is not a decimal number.
var ErrInvalidAmountFormat = errors.New("amount is not a number")

// ParseAmount parses a decimal amount in yen. Fractions are preserved so that
// callers can reject sub-unit amounts explicitly.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "nan", "inf", "infinity":
		return decimal.Zero, ErrNonFiniteAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, raw)
	}
	return d, nil
}

// IsWhole reports whether d has no fractional part.
func IsWhole(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}

// Yen returns the integer part of d, saturating at the int64 range.
func Yen(d decimal.Decimal) int64 {
	whole := d.Truncate(0)
	if !whole.BigInt().IsInt64() {
		if whole.IsNegative() {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return whole.IntPart()
}
