package commission

import (
	"settlementapi/src/model"

	"github.com/shopspring/decimal"
)

// Config carries process-wide pricing configuration. The platform rate is
// injected here so Compute stays a pure function of its inputs.
type Config struct {
	PlatformRatePercent decimal.Decimal
}

// Input is everything needed to price one order.
type Input struct {
	BaseAmount  decimal.Decimal
	AppliedRate decimal.Decimal

	// multiply or divide, from the currency pair.
	CalculationType string

	// percentage / mixed model input.
	HouseCommissionPercent decimal.Decimal

	// spread / mixed model input.
	BuyRate  decimal.Decimal
	SellRate decimal.Decimal
}

// Result is the commission split for one order. House, platform, exchange and
// net amounts are base-currency; quote amount and spread profit are
// quote-currency.
type Result struct {
	HouseCommissionAmount BaseAmount
	PlatformCommission    BaseAmount
	ExchangeCommission    BaseAmount
	NetAmount             BaseAmount
	QuoteAmount           QuoteAmount
	SpreadProfit          QuoteAmount
}

// Compute prices an order under the given commission model.
//
// percentage: the house charges an explicit fee on the base amount and the
// platform takes its configured cut out of that fee.
//
// spread: the house earns (sell_rate - buy_rate) * base_amount in quote
// currency; that profit is converted to base currency at the buy rate before
// being treated as exchange commission.
//
// mixed: percentage fee plus spread profit, both in base units before summing.
func Compute(in Input, commissionModel string, cfg Config) (Result, error) {
	if err := validate(in, commissionModel, cfg); err != nil {
		return Result{}, err
	}

	base := NewBaseAmount(in.BaseAmount)
	platform := base.Percent(cfg.PlatformRatePercent)

	switch commissionModel {
	case model.CommissionModelPercentage:
		house := base.Percent(in.HouseCommissionPercent)
		net := base.Sub(house)
		quote, err := net.ToQuote(in.AppliedRate, in.CalculationType)
		if err != nil {
			return Result{}, err
		}
		return Result{
			HouseCommissionAmount: house,
			PlatformCommission:    platform,
			ExchangeCommission:    house.Sub(platform),
			NetAmount:             net,
			QuoteAmount:           quote,
		}, nil

	case model.CommissionModelSpread:
		spreadProfit := NewQuoteAmount(in.SellRate.Sub(in.BuyRate).Mul(in.BaseAmount))
		exchange, err := spreadProfit.InBase(in.BuyRate)
		if err != nil {
			return Result{}, err
		}
		// The customer is not charged an explicit fee; profit comes from
		// the rate margin, so the full base amount converts.
		quote, err := base.ToQuote(in.AppliedRate, in.CalculationType)
		if err != nil {
			return Result{}, err
		}
		return Result{
			HouseCommissionAmount: exchange.Add(platform),
			PlatformCommission:    platform,
			ExchangeCommission:    exchange,
			NetAmount:             base,
			QuoteAmount:           quote,
			SpreadProfit:          spreadProfit,
		}, nil

	case model.CommissionModelMixed:
		percentageFee := base.Percent(in.HouseCommissionPercent)
		spreadProfit := NewQuoteAmount(in.SellRate.Sub(in.BuyRate).Mul(in.BaseAmount))
		spreadInBase, err := spreadProfit.InBase(in.BuyRate)
		if err != nil {
			return Result{}, err
		}
		house := percentageFee.Add(spreadInBase)
		net := base.Sub(percentageFee)
		quote, err := net.ToQuote(in.AppliedRate, in.CalculationType)
		if err != nil {
			return Result{}, err
		}
		return Result{
			HouseCommissionAmount: house,
			PlatformCommission:    platform,
			ExchangeCommission:    house.Sub(platform),
			NetAmount:             net,
			QuoteAmount:           quote,
			SpreadProfit:          spreadProfit,
		}, nil
	}

	return Result{}, model.NewValidationError("commission_model", "unknown commission model: "+commissionModel)
}

func validate(in Input, commissionModel string, cfg Config) error {
	fields := map[string]string{}

	if in.BaseAmount.LessThanOrEqual(decimal.Zero) {
		fields["base_amount"] = "must be positive"
	}
	if in.AppliedRate.LessThanOrEqual(decimal.Zero) {
		fields["applied_rate"] = "must be positive"
	}
	if cfg.PlatformRatePercent.IsNegative() {
		fields["platform_rate_percent"] = "must not be negative"
	}

	switch commissionModel {
	case model.CommissionModelPercentage, model.CommissionModelMixed:
		if in.HouseCommissionPercent.IsNegative() || in.HouseCommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
			fields["house_commission_percent"] = "must be between 0 and 100"
		}
	}

	switch commissionModel {
	case model.CommissionModelSpread, model.CommissionModelMixed:
		if in.BuyRate.LessThanOrEqual(decimal.Zero) {
			fields["buy_rate"] = "must be positive"
		}
		if in.SellRate.LessThanOrEqual(decimal.Zero) {
			fields["sell_rate"] = "must be positive"
		}
	}

	if len(fields) > 0 {
		return &model.ValidationError{Fields: fields}
	}
	return nil
}
