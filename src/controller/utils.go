package controller

import (
	"context"
	"encoding/json"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/model"
	"settlementapi/src/repository"
)

const serviceName = "settlement_core"

// appendAudit records one mutating action on the hash chain, inside the same
// transaction as the mutation. oldValues/newValues are marshaled to JSON;
// pass nil when there is no before or after image.
func appendAudit(
	ctx context.Context,
	tx *gorm.DB,
	action string,
	entityType string,
	entityID uint,
	oldValues, newValues interface{},
	exchangeHouseID, userID *uint,
) error {

	entry := &model.AuditLog{
		ExchangeHouseID: exchangeHouseID,
		UserID:          userID,
		Action:          action,
		EntityType:      entityType,
		EntityID:        entityID,
	}

	if oldValues != nil {
		b, err := json.Marshal(oldValues)
		if err != nil {
			return err
		}
		entry.OldValues = string(b)
	}
	if newValues != nil {
		b, err := json.Marshal(newValues)
		if err != nil {
			return err
		}
		entry.NewValues = string(b)
	}

	return repository.NewAuditRepositoryWithDB(tx).Append(ctx, entry)
}

// Capture persists a system exception alongside the local log so settlement
// failures survive log rotation. Best effort; never fails the caller.
func Capture(
	ctx context.Context,
	repo *repository.ExceptionRepository,
	module string,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) {

	if err == nil {
		return
	}

	var ctxJSON string
	if contextData != nil {
		if b, e := json.Marshal(contextData); e == nil {
			ctxJSON = string(b)
		}
	}

	exc := &model.Exception{
		Service:   serviceName,
		Module:    module,
		Method:    method,
		Message:   err.Error(),
		Level:     level,
		Context:   ctxJSON,
		CreatedAt: time.Now(),
	}

	logger.WithFields(map[string]interface{}{
		"service": serviceName,
		"module":  module,
		"method":  method,
		"level":   level,
	}).WithError(err).Error("System exception captured")

	if dbErr := repo.Create(ctx, exc); dbErr != nil {
		logger.WithError(dbErr).Error("Failed to persist exception")
	}
}
