package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusFailed     = "failed"

	CommissionModelPercentage = "percentage"
	CommissionModelSpread     = "spread"
	CommissionModelMixed      = "mixed"
)

// Order represents a single currency-exchange transaction executed by an
// operator of an exchange house.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"size:60;uniqueIndex;not null" json:"order_number"`

	ExchangeHouseID uint  `gorm:"index;not null" json:"exchange_house_id"`
	CurrencyPairID  uint  `gorm:"index;not null" json:"currency_pair_id"`
	UserID          uint  `gorm:"index;not null" json:"user_id"`
	CustomerID      *uint `gorm:"index" json:"customer_id,omitempty"`

	BaseAmount  decimal.Decimal `gorm:"type:numeric" json:"base_amount"`
	QuoteAmount decimal.Decimal `gorm:"type:numeric" json:"quote_amount"`

	MarketRate  decimal.Decimal `gorm:"type:numeric" json:"market_rate"`
	AppliedRate decimal.Decimal `gorm:"type:numeric" json:"applied_rate"`

	ExpectedMarginPercent decimal.Decimal `gorm:"type:numeric" json:"expected_margin_percent"`
	ActualMarginPercent   decimal.Decimal `gorm:"type:numeric" json:"actual_margin_percent"`

	CommissionModel string `gorm:"size:20;not null" json:"commission_model"`

	// Model-specific inputs.
	HouseCommissionPercent decimal.Decimal `gorm:"type:numeric" json:"house_commission_percent"`
	BuyRate                decimal.Decimal `gorm:"type:numeric" json:"buy_rate"`
	SellRate               decimal.Decimal `gorm:"type:numeric" json:"sell_rate"`
	SpreadProfit           decimal.Decimal `gorm:"type:numeric" json:"spread_profit"`

	// Resulting commission split, all in base currency units.
	HouseCommissionAmount decimal.Decimal `gorm:"type:numeric" json:"house_commission_amount"`
	PlatformCommission    decimal.Decimal `gorm:"type:numeric" json:"platform_commission"`
	ExchangeCommission    decimal.Decimal `gorm:"type:numeric" json:"exchange_commission"`
	NetAmount             decimal.Decimal `gorm:"type:numeric" json:"net_amount"`

	Status string `gorm:"size:20;not null;default:pending;index" json:"status"`
	Notes  string `gorm:"type:text" json:"notes,omitempty"`

	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledBy        *uint      `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Commissions []Commission `gorm:"foreignKey:OrderID" json:"commissions,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// IsTerminal reports whether the order reached a final state.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}
