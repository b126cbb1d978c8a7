package models

import (
	"gorm.io/gorm"
)

// ChangeRequest records one reviewer-initiated pause asking for document
// revisions. Version identifiers are opaque to the engine. History is
// retained across reopen cycles.
type ChangeRequest struct {
	gorm.Model
	ID            string `gorm:"primaryKey"`
	RequestID     string `gorm:"index;not null"`
	VersionFromID string
	VersionToID   string
	Summary       string
	RequestedBy   string
}
