package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentRequestStatusPending         = "pending"
	PaymentRequestStatusPaymentInfoSent = "payment_info_sent"
	PaymentRequestStatusApproved        = "approved"
	PaymentRequestStatusPaid            = "paid"
	PaymentRequestStatusRejected        = "rejected"
	PaymentRequestStatusCancelled       = "cancelled"
)

// CommissionPaymentRequest aggregates the pending platform commissions of one
// exchange house over a settlement window and tracks the manual payment flow.
type CommissionPaymentRequest struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ExchangeHouseID uint `gorm:"index;not null;uniqueIndex:idx_request_house_period" json:"exchange_house_id"`

	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_request_house_period" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null;uniqueIndex:idx_request_house_period" json:"period_end"`

	// Totals are snapshots taken at generation time.
	TotalCommissions decimal.Decimal `gorm:"type:numeric" json:"total_commissions"`
	TotalOrders      int             `gorm:"not null" json:"total_orders"`
	TotalVolume      decimal.Decimal `gorm:"type:numeric" json:"total_volume"`

	Status string `gorm:"size:20;not null;default:pending;index" json:"status"`

	PaymentMethod      string     `gorm:"size:50" json:"payment_method,omitempty"`
	PaymentReference   string     `gorm:"size:150" json:"payment_reference,omitempty"`
	PaymentProofURL    string     `gorm:"size:500" json:"payment_proof_url,omitempty"`
	PaymentNotes       string     `gorm:"type:text" json:"payment_notes,omitempty"`
	PaymentSubmittedAt *time.Time `json:"payment_submitted_at,omitempty"`

	ConfirmedBy *uint      `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	AdminNotes  string     `gorm:"type:text" json:"admin_notes,omitempty"`

	RejectionReason string `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CommissionPaymentRequest) TableName() string {
	return "commission_payment_requests"
}

// Capability checks are derived from the current status only, never from
// caller-supplied flags.

func (r *CommissionPaymentRequest) CanSendPaymentInfo() bool {
	switch r.Status {
	case PaymentRequestStatusPending, PaymentRequestStatusPaymentInfoSent, PaymentRequestStatusRejected:
		return true
	}
	return false
}

func (r *CommissionPaymentRequest) CanApprove() bool {
	return r.Status == PaymentRequestStatusPaymentInfoSent
}

func (r *CommissionPaymentRequest) CanConfirmPayment() bool {
	switch r.Status {
	case PaymentRequestStatusPaymentInfoSent, PaymentRequestStatusApproved:
		return true
	}
	return false
}

func (r *CommissionPaymentRequest) CanReject() bool {
	switch r.Status {
	case PaymentRequestStatusPaymentInfoSent, PaymentRequestStatusApproved:
		return true
	}
	return false
}

func (r *CommissionPaymentRequest) CanCancel() bool {
	switch r.Status {
	case PaymentRequestStatusPending, PaymentRequestStatusRejected:
		return true
	}
	return false
}

// CommissionPaymentRequestItem links a request to one covered commission. The
// unique index on CommissionID is what prevents a commission from being
// aggregated twice, even under concurrent generation.
type CommissionPaymentRequestItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RequestID    uint      `gorm:"index;not null" json:"request_id"`
	CommissionID uint      `gorm:"uniqueIndex;not null" json:"commission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CommissionPaymentRequestItem) TableName() string {
	return "commission_payment_request_items"
}
