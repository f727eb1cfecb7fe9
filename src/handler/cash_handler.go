package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"settlementapi/src/auth"
	"settlementapi/src/controller"
	"settlementapi/src/model"
)

type cashService interface {
	RegisterCashMovement(ctx context.Context, input controller.RegisterCashMovementInput, actorID uint) (*model.CashMovement, error)
	ListBalances(ctx context.Context, operatorID uint) ([]model.OperatorCashBalance, error)
	ListMovements(ctx context.Context, operatorID uint, limit int) ([]model.CashMovement, error)
}

// RegisterCashMovementHandler applies one manual cash-box action for the actor.
func RegisterCashMovementHandler(svc cashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapCashWrite)
		if !ok {
			return
		}

		var input controller.RegisterCashMovementInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		input.OperatorID = actor.UserID

		movement, err := svc.RegisterCashMovement(r.Context(), input, actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, movement)
	}
}

// ListBalancesHandler returns the actor's cash balances.
func ListBalancesHandler(svc cashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapCashWrite)
		if !ok {
			return
		}

		balances, err := svc.ListBalances(r.Context(), actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balances)
	}
}

// ListMovementsHandler returns the actor's latest ledger entries.
func ListMovementsHandler(svc cashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, auth.CapCashWrite)
		if !ok {
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		movements, err := svc.ListMovements(r.Context(), actor.UserID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, movements)
	}
}
