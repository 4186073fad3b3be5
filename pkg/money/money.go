// Package money represents currency amounts as integer minor units (cents).
//
// Arithmetic inside the module stays on int64 cents so that repeated
// division never drifts. Decimals appear only when parsing user input and
// when rendering output, both rounded to two places.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places carried by an Amount.
const Places = 2

// MaxAmount is the largest magnitude Parse accepts: one trillion currency
// units. Sums of bounded amounts are checked separately by Add and Sum.
const MaxAmount Amount = 100_000_000_000_000

var (
	// ErrInvalidAmount is returned when a value cannot be parsed as an amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrOverflow is returned when arithmetic leaves the representable range.
	ErrOverflow = errors.New("amount out of range")
)

var (
	centsPerUnit = decimal.New(1, Places)
	maxCents     = decimal.NewFromInt(int64(MaxAmount))
)

// Amount is a signed quantity of minor currency units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Parse reads a decimal string ("45", "45.5", "-3.14") into an Amount,
// rounding half away from zero to two places. Values whose magnitude exceeds
// MaxAmount are rejected.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Mul(centsPerUnit).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidAmount, s, MaxAmount)
	}
	return Amount(cents.IntPart()), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount as a decimal with two places.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Places)
}

// String renders the amount with exactly two decimal places.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Places)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a > 0
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Add returns a + b, or ErrOverflow if the result does not fit.
// math.MinInt64 counts as out of range because it cannot be negated.
func Add(a, b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) || sum == math.MinInt64 {
		return 0, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return sum, nil
}

// Sum adds up amounts with overflow checking.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		if total, err = Add(total, a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// DivRound divides a by n, rounding half away from zero. It returns Zero
// when n is not positive.
func (a Amount) DivRound(n int) Amount {
	if n <= 0 {
		return Zero
	}
	q := decimal.NewFromInt(int64(a)).DivRound(decimal.NewFromInt(int64(n)), 0)
	return Amount(q.IntPart())
}

// Split divides a into n shares that add up to a exactly.
// When a is not evenly divisible, the leftover minor units are handed out
// one at a time starting from the first share.
func (a Amount) Split(n int) ([]Amount, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot split into %d shares", n)
	}
	base := int64(a) / int64(n)
	rem := int64(a) % int64(n)

	step := int64(1)
	if rem < 0 {
		step = -1
		rem = -rem
	}

	shares := make([]Amount, n)
	for i := range shares {
		shares[i] = Amount(base)
		if int64(i) < rem {
			shares[i] += Amount(step)
		}
	}
	return shares, nil
}

// MarshalJSON encodes the amount as a quoted two-place decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
