package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"settlementapi/src/auth"
	"settlementapi/src/controller"
	"settlementapi/src/model"
)

type orderService interface {
	CreateOrder(ctx context.Context, input controller.CreateOrderInput) (*model.Order, error)
	CompleteOrder(ctx context.Context, orderID uint, input controller.CompleteOrderInput, actorID uint) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID uint, reason string, actorID uint) (*model.Order, error)
	FailOrder(ctx context.Context, orderID uint, reason string, actorID uint) (*model.Order, error)
}

type orderReader interface {
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindLatest(ctx context.Context, exchangeHouseID uint, limit int) ([]model.Order, error)
}

// CreateOrderHandler opens a new order for the actor's exchange house.
func CreateOrderHandler(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapOrdersWrite)
		if !ok {
			return
		}

		var input controller.CreateOrderInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		// Ownership comes from the resolved actor, never the payload.
		input.ExchangeHouseID = actor.ExchangeHouseID
		input.UserID = actor.UserID

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

// CompleteOrderHandler finalizes an order with the actual exchange outcome.
func CompleteOrderHandler(svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapOrdersSettle)
		if !ok {
			return
		}

		orderID, ok := pathID(w, r, "orderID")
		if !ok {
			return
		}

		var input controller.CompleteOrderInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		order, err := svc.CompleteOrder(r.Context(), orderID, input, actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// CancelOrderHandler cancels a non-terminal order with a reason.
func CancelOrderHandler(svc orderService) http.HandlerFunc {
	return terminateOrderHandler(func(ctx context.Context, id uint, reason string, actorID uint) (*model.Order, error) {
		return svc.CancelOrder(ctx, id, reason, actorID)
	})
}

// FailOrderHandler marks a non-terminal order as failed with a reason.
func FailOrderHandler(svc orderService) http.HandlerFunc {
	return terminateOrderHandler(func(ctx context.Context, id uint, reason string, actorID uint) (*model.Order, error) {
		return svc.FailOrder(ctx, id, reason, actorID)
	})
}

func terminateOrderHandler(terminate func(ctx context.Context, id uint, reason string, actorID uint) (*model.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapOrdersWrite)
		if !ok {
			return
		}

		orderID, ok := pathID(w, r, "orderID")
		if !ok {
			return
		}

		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		order, err := terminate(r.Context(), orderID, body.Reason, actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// GetOrderHandler returns one order by ID.
func GetOrderHandler(repo orderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireActor(w, r, auth.CapOrdersWrite); !ok {
			return
		}

		orderID, ok := pathID(w, r, "orderID")
		if !ok {
			return
		}

		order, err := repo.FindByID(r.Context(), orderID)
		if err != nil {
			writeError(w, err)
			return
		}
		if order == nil {
			writeError(w, model.ErrNotFound)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// ListOrdersHandler returns the latest orders of the actor's exchange house.
func ListOrdersHandler(repo orderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapOrdersWrite)
		if !ok {
			return
		}

		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		orders, err := repo.FindLatest(r.Context(), actor.ExchangeHouseID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "invalid "+param, http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}
