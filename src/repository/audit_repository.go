package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlementapi/src/audit"
	"settlementapi/src/database"
	"settlementapi/src/model"
)

const auditChainID = 1

// AuditRepository is the write-once store for the hash-chained audit trail.
// It exposes Append and read methods only; the model hooks reject any update
// or delete that slips past this layer.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{db: database.MainDB}
}

func NewAuditRepositoryWithDB(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one entry to the chain. Must be called inside the same
// transaction as the mutation it records. The chain head row is the single
// serialization point: it is locked, read, and advanced here so two
// concurrent writers cannot both extend the same previous hash.
func (r *AuditRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	db := r.db.WithContext(ctx)

	var head model.AuditChainHead
	err := lockForUpdate(db).First(&head, auditChainID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		head = model.AuditChainHead{ID: auditChainID, LastHash: audit.GenesisHash}
		if err := db.Create(&head).Error; err != nil {
			logger.WithFields(map[string]interface{}{
				"repo": "AuditRepository",
				"op":   "Append",
			}).WithError(err).Error("Failed to create audit chain head")
			return err
		}
	} else if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AuditRepository",
			"op":   "Append",
		}).WithError(err).Error("Failed to lock audit chain head")
		return err
	}

	// CreatedAt participates in the hash, so it is fixed before insert.
	entry.CreatedAt = time.Now().UTC()
	entry.PreviousHash = head.LastHash
	entry.CurrentHash = audit.ComputeHash(entry, head.LastHash)

	if err := db.Create(entry).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "AuditRepository",
			"op":     "Append",
			"action": entry.Action,
		}).WithError(err).Error("Failed to append audit entry")
		return err
	}

	err = db.Model(&model.AuditChainHead{}).
		Where("id = ?", auditChainID).
		Updates(map[string]interface{}{
			"last_entry_id": entry.ID,
			"last_hash":     entry.CurrentHash,
		}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AuditRepository",
			"op":   "Append",
		}).WithError(err).Error("Failed to advance audit chain head")
		return err
	}
	return nil
}

// ListAfter returns up to limit entries with ID greater than afterID, in ID
// order. Used by the chain verifier to walk the log in batches.
func (r *AuditRepository) ListAfter(ctx context.Context, afterID uint, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = 500
	}

	var entries []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AuditRepository",
			"op":   "ListAfter",
		}).WithError(err).Error("Failed to list audit entries")
		return nil, err
	}
	return entries, nil
}

// ListByEntity returns the audit trail of one entity, oldest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID uint) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
