package commission

import (
	"settlementapi/src/model"

	"github.com/shopspring/decimal"
)

// BaseAmount is a monetary amount denominated in the base currency of a pair.
// Keeping base and quote amounts as distinct types forces the spread-profit
// conversion to be explicit instead of silently mixing currency units.
type BaseAmount struct {
	value decimal.Decimal
}

// QuoteAmount is a monetary amount denominated in the quote currency.
type QuoteAmount struct {
	value decimal.Decimal
}

func NewBaseAmount(d decimal.Decimal) BaseAmount   { return BaseAmount{value: d} }
func NewQuoteAmount(d decimal.Decimal) QuoteAmount { return QuoteAmount{value: d} }

func (b BaseAmount) Decimal() decimal.Decimal  { return b.value }
func (q QuoteAmount) Decimal() decimal.Decimal { return q.value }

func (b BaseAmount) Add(o BaseAmount) BaseAmount { return BaseAmount{value: b.value.Add(o.value)} }
func (b BaseAmount) Sub(o BaseAmount) BaseAmount { return BaseAmount{value: b.value.Sub(o.value)} }

// Percent returns pct percent of the amount.
func (b BaseAmount) Percent(pct decimal.Decimal) BaseAmount {
	return BaseAmount{value: b.value.Mul(pct).Div(decimal.NewFromInt(100))}
}

// InBase converts a quote-currency amount into base currency units using the
// given base→quote rate.
func (q QuoteAmount) InBase(rate decimal.Decimal) (BaseAmount, error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return BaseAmount{}, model.NewValidationError("buy_rate", "must be positive to convert spread profit")
	}
	return BaseAmount{value: q.value.Div(rate)}, nil
}

// ToQuote converts a base-currency amount into quote units according to the
// pair's calculation type.
func (b BaseAmount) ToQuote(rate decimal.Decimal, calculationType string) (QuoteAmount, error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return QuoteAmount{}, model.NewValidationError("applied_rate", "must be positive")
	}
	if calculationType == model.CalculationTypeDivide {
		return QuoteAmount{value: b.value.Div(rate)}, nil
	}
	return QuoteAmount{value: b.value.Mul(rate)}, nil
}
