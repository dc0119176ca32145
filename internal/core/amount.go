package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountDecimals is the number of decimal places between a whole coin and
// the micro-units an Amount is counted in.
const AmountDecimals = 6

// Format renders the amount as whole coins, e.g. 6500000 -> "6.5".
func (a Amount) Format() string {
	return decimal.New(int64(a), -AmountDecimals).String() //nolint:gosec // amounts stay far below 2^63
}

// ParseAmount parses a whole-coin value such as "5" or "0.25" into micro-units.
// Fractions finer than one micro-unit are rejected.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("parse amount %q: negative", s)
	}
	micro := d.Mul(decimal.New(1, AmountDecimals))
	if !micro.Equal(micro.Truncate(0)) {
		return 0, fmt.Errorf("parse amount %q: more than %d decimal places", s, AmountDecimals)
	}
	return Amount(micro.IntPart()), nil //nolint:gosec // checked non-negative above
}
