package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"settlementapi/src/auth"
	"settlementapi/src/model"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps the core error taxonomy onto HTTP statuses. Raw error text
// of unexpected failures never crosses the boundary.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  "validation_failed",
			Fields: validationErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
	case errors.Is(err, model.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorBody{Error: "invalid_state"})
	case errors.Is(err, model.ErrDuplicatePeriod):
		writeJSON(w, http.StatusConflict, errorBody{Error: "duplicate_period"})
	case errors.Is(err, model.ErrReferentialConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "referential_conflict"})
	case errors.Is(err, model.ErrInsufficientFunds):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "insufficient_funds"})
	case errors.Is(err, model.ErrNoCommissions):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "no_commissions"})
	case errors.Is(err, model.ErrReasonTooShort):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "reason_too_short"})
	default:
		logger.WithError(err).Error("unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
	}
}

// requireActor resolves the actor and checks one capability. Writes the
// response itself when the check fails.
func requireActor(w http.ResponseWriter, r *http.Request, capability string) (*auth.Actor, bool) {
	actor, ok := auth.GetActorFromContext(r.Context())
	if !ok || actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	if !actor.Can(capability) {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "missing_capability"})
		return nil, false
	}
	return actor, true
}
