package controller

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/model"
	"settlementapi/src/repository"
)

// PayoutController owns the commission settlement workflow: aggregating
// pending platform commissions into payment requests and driving them through
// the manual approval state machine.
type PayoutController struct {
	db           *gorm.DB
	minReasonLen int
}

func NewPayoutController(db *gorm.DB, cfg Config) *PayoutController {
	return &PayoutController{db: db, minReasonLen: cfg.MinReasonLength}
}

// GeneratePaymentRequest aggregates the pending platform commissions of one
// exchange house over [periodStart, periodEnd] into a new request. A window
// already covered fails with ErrDuplicatePeriod; an empty window with
// ErrNoCommissions. Commissions already attached elsewhere are never
// re-selected.
func (c *PayoutController) GeneratePaymentRequest(
	ctx context.Context,
	exchangeHouseID uint,
	periodStart, periodEnd time.Time,
	actorID uint,
) (*model.CommissionPaymentRequest, error) {

	if !periodEnd.After(periodStart) {
		return nil, model.NewValidationError("period_end", "must be after period_start")
	}

	var request *model.CommissionPaymentRequest
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reqRepo := repository.NewPaymentRequestRepositoryWithDB(tx)

		exists, err := reqRepo.ExistsForPeriod(ctx, exchangeHouseID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrDuplicatePeriod
		}

		commissions, err := repository.NewCommissionRepositoryWithDB(tx).
			FindPendingPlatformInWindow(ctx, exchangeHouseID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if len(commissions) == 0 {
			return model.ErrNoCommissions
		}

		totalCommissions := decimal.Zero
		totalVolume := decimal.Zero
		orderIDs := map[uint]struct{}{}
		commissionIDs := make([]uint, 0, len(commissions))
		for _, comm := range commissions {
			totalCommissions = totalCommissions.Add(comm.Amount)
			totalVolume = totalVolume.Add(comm.BaseAmount)
			orderIDs[comm.OrderID] = struct{}{}
			commissionIDs = append(commissionIDs, comm.ID)
		}

		request = &model.CommissionPaymentRequest{
			ExchangeHouseID:  exchangeHouseID,
			PeriodStart:      periodStart,
			PeriodEnd:        periodEnd,
			TotalCommissions: totalCommissions,
			TotalOrders:      len(orderIDs),
			TotalVolume:      totalVolume,
			Status:           model.PaymentRequestStatusPending,
		}
		if err := reqRepo.Create(ctx, request); err != nil {
			return err
		}
		if err := reqRepo.AttachCommissions(ctx, request.ID, commissionIDs); err != nil {
			return err
		}

		return appendAudit(ctx, tx, "payment_request.generated", "commission_payment_request",
			request.ID, nil, request, &exchangeHouseID, &actorID)
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"request_id":        request.ID,
		"house_id":          exchangeHouseID,
		"total_commissions": request.TotalCommissions,
		"total_orders":      request.TotalOrders,
	}).Info("Payment request generated")

	return request, nil
}

// SubmitPaymentInfoInput is what the tenant provides when reporting payment.
type SubmitPaymentInfoInput struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
	ProofURL  string `json:"proof_url,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// SubmitPaymentInfo records the tenant's payment details. Legal from pending,
// payment_info_sent (re-submission) and rejected (fix after rejection).
func (c *PayoutController) SubmitPaymentInfo(ctx context.Context, requestID uint, input SubmitPaymentInfoInput, actorID uint) (*model.CommissionPaymentRequest, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.Method) == "" {
		fields["method"] = "is required"
	}
	if strings.TrimSpace(input.Reference) == "" {
		fields["reference"] = "is required"
	}
	if len(fields) > 0 {
		return nil, &model.ValidationError{Fields: fields}
	}

	return c.transition(ctx, requestID, "payment_request.payment_info_sent", actorID,
		func(req *model.CommissionPaymentRequest, _ *gorm.DB) error {
			if !req.CanSendPaymentInfo() {
				return model.ErrInvalidState
			}
			now := time.Now().UTC()
			req.Status = model.PaymentRequestStatusPaymentInfoSent
			req.PaymentMethod = input.Method
			req.PaymentReference = input.Reference
			req.PaymentProofURL = input.ProofURL
			req.PaymentNotes = input.Notes
			req.PaymentSubmittedAt = &now
			return nil
		})
}

// ApprovePayment pre-approves a submitted request before money confirmation.
func (c *PayoutController) ApprovePayment(ctx context.Context, requestID uint, notes string, actorID uint) (*model.CommissionPaymentRequest, error) {
	return c.transition(ctx, requestID, "payment_request.approved", actorID,
		func(req *model.CommissionPaymentRequest, _ *gorm.DB) error {
			if !req.CanApprove() {
				return model.ErrInvalidState
			}
			req.Status = model.PaymentRequestStatusApproved
			if notes != "" {
				req.AdminNotes = notes
			}
			return nil
		})
}

// ConfirmPayment marks the request paid and flips every linked commission to
// paid in the same transaction.
func (c *PayoutController) ConfirmPayment(ctx context.Context, requestID uint, adminNotes string, actorID uint) (*model.CommissionPaymentRequest, error) {
	return c.transition(ctx, requestID, "payment_request.paid", actorID,
		func(req *model.CommissionPaymentRequest, tx *gorm.DB) error {
			if !req.CanConfirmPayment() {
				return model.ErrInvalidState
			}
			now := time.Now().UTC()
			req.Status = model.PaymentRequestStatusPaid
			req.ConfirmedBy = &actorID
			req.ConfirmedAt = &now
			if adminNotes != "" {
				req.AdminNotes = adminNotes
			}
			return repository.NewCommissionRepositoryWithDB(tx).
				MarkPaidByRequestID(ctx, req.ID, now)
		})
}

// RejectPayment sends the request back to the tenant with a reason. The
// tenant may resubmit payment info afterwards.
func (c *PayoutController) RejectPayment(ctx context.Context, requestID uint, reason string, actorID uint) (*model.CommissionPaymentRequest, error) {
	if len(strings.TrimSpace(reason)) < c.minReasonLen {
		return nil, model.ErrReasonTooShort
	}

	return c.transition(ctx, requestID, "payment_request.rejected", actorID,
		func(req *model.CommissionPaymentRequest, _ *gorm.DB) error {
			if !req.CanReject() {
				return model.ErrInvalidState
			}
			req.Status = model.PaymentRequestStatusRejected
			req.RejectionReason = reason
			return nil
		})
}

// CancelRequest withdraws a request entirely, detaching its commissions so a
// later window can aggregate them again.
func (c *PayoutController) CancelRequest(ctx context.Context, requestID uint, reason string, actorID uint) (*model.CommissionPaymentRequest, error) {
	if len(strings.TrimSpace(reason)) < c.minReasonLen {
		return nil, model.ErrReasonTooShort
	}

	return c.transition(ctx, requestID, "payment_request.cancelled", actorID,
		func(req *model.CommissionPaymentRequest, tx *gorm.DB) error {
			if !req.CanCancel() {
				return model.ErrInvalidState
			}
			req.Status = model.PaymentRequestStatusCancelled
			if req.RejectionReason == "" {
				req.RejectionReason = reason
			}
			return repository.NewPaymentRequestRepositoryWithDB(tx).
				DetachCommissions(ctx, req.ID)
		})
}

// FindPaymentRequest returns one request with no workflow side effects.
func (c *PayoutController) FindPaymentRequest(ctx context.Context, requestID uint) (*model.CommissionPaymentRequest, error) {
	req, err := repository.NewPaymentRequestRepositoryWithDB(c.db).FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrNotFound
	}
	return req, nil
}

// transition loads the request under lock, applies the mutation and writes
// the audit entry, all in one transaction.
func (c *PayoutController) transition(
	ctx context.Context,
	requestID uint,
	action string,
	actorID uint,
	mutate func(req *model.CommissionPaymentRequest, tx *gorm.DB) error,
) (*model.CommissionPaymentRequest, error) {

	var updated *model.CommissionPaymentRequest
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reqRepo := repository.NewPaymentRequestRepositoryWithDB(tx)

		req, err := reqRepo.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return model.ErrNotFound
		}

		before := *req

		if err := mutate(req, tx); err != nil {
			return err
		}
		if err := reqRepo.Save(ctx, req); err != nil {
			return err
		}
		if err := appendAudit(ctx, tx, action, "commission_payment_request", req.ID,
			&before, req, &req.ExchangeHouseID, &actorID); err != nil {
			return err
		}

		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"request_id": updated.ID,
		"status":     updated.Status,
		"action":     action,
	}).Info("Payment request transitioned")

	return updated, nil
}
