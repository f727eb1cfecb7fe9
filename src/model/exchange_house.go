package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeHouse is a tenant operating currency-exchange orders on the platform.
type ExchangeHouse struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:150;not null" json:"name"`
	Active bool   `gorm:"not null;default:true" json:"active"`

	// Default pricing for orders created by this house.
	CommissionModel        string          `gorm:"size:20;not null;default:percentage" json:"commission_model"`
	HouseCommissionPercent decimal.Decimal `gorm:"type:numeric" json:"house_commission_percent"`

	// Optional per-tenant overrides of the currency pair amount limits.
	MinAmountOverride decimal.NullDecimal `gorm:"type:numeric" json:"min_amount_override"`
	MaxAmountOverride decimal.NullDecimal `gorm:"type:numeric" json:"max_amount_override"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ExchangeHouse) TableName() string {
	return "exchange_houses"
}
