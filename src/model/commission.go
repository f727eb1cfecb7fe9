package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CommissionTypePlatform      = "platform"
	CommissionTypeExchangeHouse = "exchange_house"

	CommissionStatusPending   = "pending"
	CommissionStatusPaid      = "paid"
	CommissionStatusCancelled = "cancelled"
)

// Commission is the amount owed to the platform or to the exchange house for
// one order. Created once per order per type; only the status may change after
// creation.
type Commission struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OrderID         uint `gorm:"index;not null;uniqueIndex:idx_commission_order_type" json:"order_id"`
	ExchangeHouseID uint `gorm:"index;not null" json:"exchange_house_id"`

	Type string `gorm:"size:20;not null;uniqueIndex:idx_commission_order_type" json:"type"`

	RatePercent decimal.Decimal `gorm:"type:numeric" json:"rate_percent"`
	Amount      decimal.Decimal `gorm:"type:numeric" json:"amount"`

	// BaseAmount snapshots the order base amount at materialization time.
	BaseAmount decimal.Decimal `gorm:"type:numeric" json:"base_amount"`

	Status string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaidAt *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Commission) TableName() string {
	return "commissions"
}
