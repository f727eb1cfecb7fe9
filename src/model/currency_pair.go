package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CalculationTypeMultiply = "multiply"
	CalculationTypeDivide   = "divide"
)

// CurrencyPair describes a tradeable base/quote pair and how quote amounts
// are derived from the applied rate.
type CurrencyPair struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BaseCurrency  string `gorm:"size:8;not null;uniqueIndex:idx_pair_currencies" json:"base_currency"`
	QuoteCurrency string `gorm:"size:8;not null;uniqueIndex:idx_pair_currencies" json:"quote_currency"`

	// multiply: quote = net * rate. divide: quote = net / rate.
	CalculationType string `gorm:"size:10;not null;default:multiply" json:"calculation_type"`

	MinAmount decimal.Decimal `gorm:"type:numeric" json:"min_amount"`
	MaxAmount decimal.Decimal `gorm:"type:numeric" json:"max_amount"`

	MarketRate decimal.Decimal `gorm:"type:numeric" json:"market_rate"`
	BuyRate    decimal.Decimal `gorm:"type:numeric" json:"buy_rate"`
	SellRate   decimal.Decimal `gorm:"type:numeric" json:"sell_rate"`

	Active bool `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CurrencyPair) TableName() string {
	return "currency_pairs"
}
