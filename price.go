package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a price may carry.
// Prices are compared on their value scaled by 10^PriceScale.
const PriceScale = 3

// PriceValidity describes why a raw price can or cannot be used on the book.
type PriceValidity int8

const (
	PriceValid PriceValidity = iota
	PriceNonPositive
	PriceExtraDecimal
	PriceMalformed
	PriceOutOfRange
)

var (
	maxTicks = decimal.NewFromInt(math.MaxInt64)
	minTicks = decimal.NewFromInt(math.MinInt64)
)

var priceValidityReasons = map[PriceValidity]string{
	PriceValid:        "",
	PriceNonPositive:  "The input price should be a positive value",
	PriceExtraDecimal: fmt.Sprintf("The input price can have at most %d decimal places", PriceScale),
	PriceMalformed:    "The input price is not a number",
	PriceOutOfRange:   "The input price is too large",
}

// Price is an exactly comparable fixed point price.
//
// The raw decimal is kept for display only. Equality, ordering and tick
// arithmetic use ticks, the raw value scaled by 10^PriceScale and floored.
type Price struct {
	raw      decimal.Decimal
	ticks    int64
	validity PriceValidity
}

// NewPrice creates a Price from a raw decimal value.
func NewPrice(raw decimal.Decimal) Price {
	scaled := raw.Shift(PriceScale)
	floored := scaled.Floor()

	// IntPart wraps outside int64.
	if floored.GreaterThan(maxTicks) || floored.LessThan(minTicks) {
		p := Price{raw: raw, validity: PriceOutOfRange}
		if raw.Sign() <= 0 {
			p.validity = PriceNonPositive
		}
		return p
	}

	p := Price{
		raw:   raw,
		ticks: floored.IntPart(),
	}

	switch {
	case raw.Sign() <= 0:
		p.validity = PriceNonPositive
	case !scaled.Equal(floored):
		p.validity = PriceExtraDecimal
	default:
		p.validity = PriceValid
	}

	return p
}

// NewPriceFromFloat creates a Price from a float using its shortest decimal representation.
func NewPriceFromFloat(raw float64) Price {
	return NewPrice(decimal.NewFromFloat(raw))
}

// ParsePrice creates a Price from a decimal string. A string that is not a
// number yields an invalid Price instead of an error, so callers can report
// it through the same reject path as any other bad price.
func ParsePrice(raw string) Price {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Price{validity: PriceMalformed}
	}
	return NewPrice(d)
}

// priceFromTicks creates a valid Price directly from its scaled integer.
func priceFromTicks(ticks int64) Price {
	return Price{
		raw:      decimal.New(ticks, -PriceScale),
		ticks:    ticks,
		validity: PriceValid,
	}
}

// Raw returns the decimal value the price was created from.
func (p Price) Raw() decimal.Decimal {
	return p.raw
}

// Ticks returns the price scaled by 10^PriceScale.
func (p Price) Ticks() int64 {
	return p.ticks
}

func (p Price) IsValid() bool {
	return p.validity == PriceValid
}

func (p Price) Validity() PriceValidity {
	return p.validity
}

// Reason returns a human readable explanation of an invalid price, or "" if valid.
func (p Price) Reason() string {
	return priceValidityReasons[p.validity]
}

// IsZero reports whether p is the zero Price, which stands for "no price" on market orders.
func (p Price) IsZero() bool {
	return p.ticks == 0 && p.raw.IsZero() && p.validity == PriceValid
}

// Cmp returns -1, 0 or +1 depending on whether p is below, equal to or above other.
func (p Price) Cmp(other Price) int {
	switch {
	case p.ticks < other.ticks:
		return -1
	case p.ticks > other.ticks:
		return 1
	default:
		return 0
	}
}

func (p Price) Equal(other Price) bool {
	return p.ticks == other.ticks
}

func (p Price) LessThan(other Price) bool {
	return p.ticks < other.ticks
}

func (p Price) GreaterThan(other Price) bool {
	return p.ticks > other.ticks
}

// String renders whole prices without a fraction ("10") and others in their
// shortest form ("9.5").
func (p Price) String() string {
	if !p.IsValid() {
		return p.raw.String()
	}
	return decimal.New(p.ticks, -PriceScale).String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	*p = ParsePrice(strings.Trim(string(data), `"`))
	if p.validity == PriceMalformed {
		return fmt.Errorf("match: invalid price %s", data)
	}
	return nil
}
