package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlementapi/src/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultConfig() Config {
	return Config{PlatformRatePercent: d("0.15")}
}

func TestComputePercentageModel(t *testing.T) {
	// base 1000, house 5%, platform 0.15%, rate 36.5 multiply
	result, err := Compute(Input{
		BaseAmount:             d("1000"),
		AppliedRate:            d("36.5"),
		CalculationType:        model.CalculationTypeMultiply,
		HouseCommissionPercent: d("5"),
	}, model.CommissionModelPercentage, defaultConfig())
	require.NoError(t, err)

	assert.True(t, result.HouseCommissionAmount.Decimal().Equal(d("50")),
		"house commission = %s", result.HouseCommissionAmount.Decimal())
	assert.True(t, result.PlatformCommission.Decimal().Equal(d("1.5")),
		"platform commission = %s", result.PlatformCommission.Decimal())
	assert.True(t, result.ExchangeCommission.Decimal().Equal(d("48.5")),
		"exchange commission = %s", result.ExchangeCommission.Decimal())
	assert.True(t, result.NetAmount.Decimal().Equal(d("950")),
		"net amount = %s", result.NetAmount.Decimal())
	assert.True(t, result.QuoteAmount.Decimal().Equal(d("34675")),
		"quote amount = %s", result.QuoteAmount.Decimal())
}

func TestComputePercentageModelInvariants(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		rate     string
		housePct string
	}{
		{name: "small order", base: "120.50", rate: "17.35", housePct: "2.5"},
		{name: "large order", base: "250000", rate: "0.9132", housePct: "7"},
		{name: "zero house fee", base: "1000", rate: "36.5", housePct: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Compute(Input{
				BaseAmount:             d(tt.base),
				AppliedRate:            d(tt.rate),
				CalculationType:        model.CalculationTypeMultiply,
				HouseCommissionPercent: d(tt.housePct),
			}, model.CommissionModelPercentage, defaultConfig())
			require.NoError(t, err)

			// exchange = house - platform, net = base - house
			assert.True(t, result.ExchangeCommission.Decimal().Equal(
				result.HouseCommissionAmount.Decimal().Sub(result.PlatformCommission.Decimal())))
			assert.True(t, result.NetAmount.Decimal().Equal(
				d(tt.base).Sub(result.HouseCommissionAmount.Decimal())))
		})
	}
}

func TestComputeDivideCalculationType(t *testing.T) {
	result, err := Compute(Input{
		BaseAmount:             d("1000"),
		AppliedRate:            d("4"),
		CalculationType:        model.CalculationTypeDivide,
		HouseCommissionPercent: d("5"),
	}, model.CommissionModelPercentage, defaultConfig())
	require.NoError(t, err)

	// net 950 / rate 4
	assert.True(t, result.QuoteAmount.Decimal().Equal(d("237.5")),
		"quote amount = %s", result.QuoteAmount.Decimal())
}

func TestComputeSpreadModel(t *testing.T) {
	result, err := Compute(Input{
		BaseAmount:      d("1000"),
		AppliedRate:     d("36.5"),
		CalculationType: model.CalculationTypeMultiply,
		BuyRate:         d("36.2"),
		SellRate:        d("36.7"),
	}, model.CommissionModelSpread, defaultConfig())
	require.NoError(t, err)

	// spread profit in quote currency: (36.7 - 36.2) * 1000 = 500
	assert.True(t, result.SpreadProfit.Decimal().Equal(d("500")),
		"spread profit = %s", result.SpreadProfit.Decimal())

	// converted to base at the buy rate: 500 / 36.2
	expectedExchange := d("500").Div(d("36.2"))
	assert.True(t, result.ExchangeCommission.Decimal().Equal(expectedExchange),
		"exchange commission = %s", result.ExchangeCommission.Decimal())

	// platform cut is independent of the model
	assert.True(t, result.PlatformCommission.Decimal().Equal(d("1.5")))

	// house take = exchange + platform, both already base currency
	assert.True(t, result.HouseCommissionAmount.Decimal().Equal(
		expectedExchange.Add(d("1.5"))))

	// no explicit fee deducted: the full base converts
	assert.True(t, result.NetAmount.Decimal().Equal(d("1000")))
	assert.True(t, result.QuoteAmount.Decimal().Equal(d("36500")))
}

func TestComputeMixedModel(t *testing.T) {
	result, err := Compute(Input{
		BaseAmount:             d("1000"),
		AppliedRate:            d("36.5"),
		CalculationType:        model.CalculationTypeMultiply,
		HouseCommissionPercent: d("5"),
		BuyRate:                d("36.2"),
		SellRate:               d("36.7"),
	}, model.CommissionModelMixed, defaultConfig())
	require.NoError(t, err)

	spreadInBase := d("500").Div(d("36.2"))

	// house = percentage fee + spread profit, both in base units
	assert.True(t, result.HouseCommissionAmount.Decimal().Equal(d("50").Add(spreadInBase)),
		"house commission = %s", result.HouseCommissionAmount.Decimal())
	assert.True(t, result.ExchangeCommission.Decimal().Equal(
		result.HouseCommissionAmount.Decimal().Sub(d("1.5"))))

	// only the explicit percentage fee reduces what converts
	assert.True(t, result.NetAmount.Decimal().Equal(d("950")))
	assert.True(t, result.QuoteAmount.Decimal().Equal(d("34675")))
}

func TestComputeValidation(t *testing.T) {
	tests := []struct {
		name      string
		input     Input
		model     string
		wantField string
	}{
		{
			name: "non-positive base amount",
			input: Input{
				BaseAmount:  d("0"),
				AppliedRate: d("36.5"),
			},
			model:     model.CommissionModelPercentage,
			wantField: "base_amount",
		},
		{
			name: "non-positive rate",
			input: Input{
				BaseAmount:  d("1000"),
				AppliedRate: d("-1"),
			},
			model:     model.CommissionModelPercentage,
			wantField: "applied_rate",
		},
		{
			name: "house percent above 100",
			input: Input{
				BaseAmount:             d("1000"),
				AppliedRate:            d("36.5"),
				HouseCommissionPercent: d("101"),
			},
			model:     model.CommissionModelPercentage,
			wantField: "house_commission_percent",
		},
		{
			name: "spread model without buy rate",
			input: Input{
				BaseAmount:  d("1000"),
				AppliedRate: d("36.5"),
				SellRate:    d("36.7"),
			},
			model:     model.CommissionModelSpread,
			wantField: "buy_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.input, tt.model, defaultConfig())
			require.Error(t, err)

			var validationErr *model.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tt.wantField)
		})
	}
}

func TestComputeUnknownModel(t *testing.T) {
	_, err := Compute(Input{
		BaseAmount:  d("1000"),
		AppliedRate: d("36.5"),
	}, "flat_fee", defaultConfig())
	require.Error(t, err)

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "commission_model")
}

func TestQuoteAmountInBaseRequiresPositiveRate(t *testing.T) {
	_, err := NewQuoteAmount(d("500")).InBase(decimal.Zero)
	require.Error(t, err)
}
