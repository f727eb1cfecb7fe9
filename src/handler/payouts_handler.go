package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"settlementapi/src/auth"
	"settlementapi/src/controller"
	"settlementapi/src/model"
)

type payoutService interface {
	GeneratePaymentRequest(ctx context.Context, exchangeHouseID uint, periodStart, periodEnd time.Time, actorID uint) (*model.CommissionPaymentRequest, error)
	SubmitPaymentInfo(ctx context.Context, requestID uint, input controller.SubmitPaymentInfoInput, actorID uint) (*model.CommissionPaymentRequest, error)
	ApprovePayment(ctx context.Context, requestID uint, notes string, actorID uint) (*model.CommissionPaymentRequest, error)
	ConfirmPayment(ctx context.Context, requestID uint, adminNotes string, actorID uint) (*model.CommissionPaymentRequest, error)
	RejectPayment(ctx context.Context, requestID uint, reason string, actorID uint) (*model.CommissionPaymentRequest, error)
	CancelRequest(ctx context.Context, requestID uint, reason string, actorID uint) (*model.CommissionPaymentRequest, error)
	FindPaymentRequest(ctx context.Context, requestID uint) (*model.CommissionPaymentRequest, error)
}

// GeneratePaymentRequestHandler aggregates a settlement window for one house.
func GeneratePaymentRequestHandler(svc payoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapPayoutGenerate)
		if !ok {
			return
		}

		var body struct {
			ExchangeHouseID uint      `json:"exchange_house_id"`
			PeriodStart     time.Time `json:"period_start"`
			PeriodEnd       time.Time `json:"period_end"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		request, err := svc.GeneratePaymentRequest(r.Context(),
			body.ExchangeHouseID, body.PeriodStart, body.PeriodEnd, actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, request)
	}
}

// SubmitPaymentInfoHandler records the tenant's payment details.
func SubmitPaymentInfoHandler(svc payoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapPayoutSubmit)
		if !ok {
			return
		}

		requestID, ok := pathID(w, r, "requestID")
		if !ok {
			return
		}

		var input controller.SubmitPaymentInfoInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		request, err := svc.SubmitPaymentInfo(r.Context(), requestID, input, actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}

// ApprovePaymentHandler pre-approves a submitted request.
func ApprovePaymentHandler(svc payoutService) http.HandlerFunc {
	return notesTransitionHandler(auth.CapPayoutApprove, "notes",
		func(ctx context.Context, id uint, text string, actorID uint) (*model.CommissionPaymentRequest, error) {
			return svc.ApprovePayment(ctx, id, text, actorID)
		})
}

// ConfirmPaymentHandler marks a request paid and settles its commissions.
func ConfirmPaymentHandler(svc payoutService) http.HandlerFunc {
	return notesTransitionHandler(auth.CapPayoutConfirm, "admin_notes",
		func(ctx context.Context, id uint, text string, actorID uint) (*model.CommissionPaymentRequest, error) {
			return svc.ConfirmPayment(ctx, id, text, actorID)
		})
}

// RejectPaymentHandler sends a request back to the tenant with a reason.
func RejectPaymentHandler(svc payoutService) http.HandlerFunc {
	return notesTransitionHandler(auth.CapPayoutReject, "reason",
		func(ctx context.Context, id uint, text string, actorID uint) (*model.CommissionPaymentRequest, error) {
			return svc.RejectPayment(ctx, id, text, actorID)
		})
}

// CancelRequestHandler withdraws a request and frees its commissions.
func CancelRequestHandler(svc payoutService) http.HandlerFunc {
	return notesTransitionHandler(auth.CapPayoutCancel, "reason",
		func(ctx context.Context, id uint, text string, actorID uint) (*model.CommissionPaymentRequest, error) {
			return svc.CancelRequest(ctx, id, text, actorID)
		})
}

// GetPaymentRequestHandler returns one request by ID.
func GetPaymentRequestHandler(svc payoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireActor(w, r, auth.CapPayoutSubmit); !ok {
			return
		}

		requestID, ok := pathID(w, r, "requestID")
		if !ok {
			return
		}

		request, err := svc.FindPaymentRequest(r.Context(), requestID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}

func notesTransitionHandler(
	capability string,
	field string,
	transition func(ctx context.Context, id uint, text string, actorID uint) (*model.CommissionPaymentRequest, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, capability)
		if !ok {
			return
		}

		requestID, ok := pathID(w, r, "requestID")
		if !ok {
			return
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		request, err := transition(r.Context(), requestID, body[field], actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}
