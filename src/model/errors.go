package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an entity referenced by an operation does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidState is returned when an operation is attempted against an
	// entity whose current status does not allow the transition.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the operator balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicatePeriod is returned when a payment request already exists for
	// the exact (exchange house, period) pair.
	ErrDuplicatePeriod = errors.New("payment request already exists for this period")

	// ErrNoCommissions is returned when a settlement window contains no pending
	// platform commissions.
	ErrNoCommissions = errors.New("no pending platform commissions in period")

	// ErrReferentialConflict is returned when a commission is already attached
	// to another payment request.
	ErrReferentialConflict = errors.New("commission already attached to another payment request")

	// ErrStorageIntegrityViolation is returned on any attempt to update or
	// delete an append-only row.
	ErrStorageIntegrityViolation = errors.New("append-only row cannot be updated or deleted")

	// ErrReasonTooShort is returned when a cancellation or rejection reason is
	// below the minimum length.
	ErrReasonTooShort = errors.New("reason is too short")
)

// ValidationError carries per-field messages so the boundary can render
// field-level feedback instead of raw error text.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
