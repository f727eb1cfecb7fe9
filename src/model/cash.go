package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MovementTypeDeposit    = "deposit"
	MovementTypeWithdrawal = "withdrawal"
	MovementTypeOrderIn    = "order_in"
	MovementTypeOrderOut   = "order_out"
	MovementTypeAdjustment = "adjustment"
)

// OperatorCashBalance is the current balance held by an operator for one
// payment method and currency. Created lazily on first movement.
type OperatorCashBalance struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OperatorID      uint   `gorm:"not null;uniqueIndex:idx_operator_method_currency" json:"operator_id"`
	PaymentMethodID uint   `gorm:"not null;uniqueIndex:idx_operator_method_currency" json:"payment_method_id"`
	Currency        string `gorm:"size:8;not null;uniqueIndex:idx_operator_method_currency" json:"currency"`

	Balance decimal.Decimal `gorm:"type:numeric" json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OperatorCashBalance) TableName() string {
	return "operator_cash_balances"
}

// CashMovement is one immutable ledger entry altering an operator balance.
type CashMovement struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OperatorID      uint  `gorm:"index;not null" json:"operator_id"`
	PaymentMethodID uint  `gorm:"not null" json:"payment_method_id"`
	OrderID         *uint `gorm:"index" json:"order_id,omitempty"`

	Type     string `gorm:"size:20;not null" json:"type"`
	Currency string `gorm:"size:8;not null" json:"currency"`

	// Amount is signed: positive for deposit/order_in, negative for
	// withdrawal/order_out, either sign for adjustment.
	Amount        decimal.Decimal `gorm:"type:numeric" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric" json:"balance_after"`

	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (CashMovement) TableName() string {
	return "cash_movements"
}

// BeforeUpdate rejects any mutation of a persisted movement.
func (m *CashMovement) BeforeUpdate(*gorm.DB) error {
	return ErrStorageIntegrityViolation
}

// BeforeDelete rejects deletion of a persisted movement.
func (m *CashMovement) BeforeDelete(*gorm.DB) error {
	return ErrStorageIntegrityViolation
}
