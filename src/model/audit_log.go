package model

import (
	"time"

	"gorm.io/gorm"
)

// AuditLog is one entry of the hash-chained audit trail. Entries are
// append-only; each CurrentHash covers the entry fields plus the previous
// entry's CurrentHash.
type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ExchangeHouseID *uint `gorm:"index" json:"exchange_house_id,omitempty"`
	UserID          *uint `gorm:"index" json:"user_id,omitempty"`

	Action     string `gorm:"size:100;not null" json:"action"`
	EntityType string `gorm:"size:100;not null;index" json:"entity_type"`
	EntityID   uint   `gorm:"not null" json:"entity_id"`

	OldValues string `gorm:"type:jsonb" json:"old_values,omitempty"`
	NewValues string `gorm:"type:jsonb" json:"new_values,omitempty"`

	PreviousHash string `gorm:"size:64;not null" json:"previous_hash"`
	CurrentHash  string `gorm:"size:64;not null" json:"current_hash"`

	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeUpdate rejects mutation of a persisted audit entry.
func (a *AuditLog) BeforeUpdate(*gorm.DB) error {
	return ErrStorageIntegrityViolation
}

// BeforeDelete rejects deletion of a persisted audit entry.
func (a *AuditLog) BeforeDelete(*gorm.DB) error {
	return ErrStorageIntegrityViolation
}

// AuditChainHead is the single serialization point for appends: the row is
// locked and advanced inside the same transaction as the entry insert so two
// concurrent writers cannot fork the chain.
type AuditChainHead struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	LastEntryID uint   `json:"last_entry_id"`
	LastHash    string `gorm:"size:64" json:"last_hash"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (AuditChainHead) TableName() string {
	return "audit_chain_heads"
}
