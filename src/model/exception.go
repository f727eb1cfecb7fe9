package model

import "time"

// Exception is a persisted system-level error, kept for post-mortem review of
// settlement failures that must not be lost in log streams.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Service string `gorm:"size:100;index" json:"service"` // e.g. "settlement_core"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "order_controller"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "MaterializeCommissions"

	Message string `gorm:"type:text" json:"message"`
	Level   string `gorm:"size:20;index" json:"level"` // warn | error | fatal

	// Extra context stored as JSON (optional)
	Context string `gorm:"type:jsonb" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}
