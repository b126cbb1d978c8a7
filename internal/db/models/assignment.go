package models

import (
	"time"

	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentDecided   AssignmentStatus = "DECIDED"
	AssignmentEscalated AssignmentStatus = "ESCALATED"
)

type Decision string

const (
	DecisionApprove        Decision = "APPROVE"
	DecisionReject         Decision = "REJECT"
	DecisionRequestChanges Decision = "REQUEST_CHANGES"
)

// IsValid reports whether d is one of the three known verdicts.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionRequestChanges:
		return true
	}
	return false
}

// Assignment is one assignee's task within one step of one request. Escalated
// and decided rows are retained for audit; rows superseded by a reopen keep
// their original cycle number.
type Assignment struct {
	gorm.Model
	ID         string           `gorm:"primaryKey"`
	RequestID  string           `gorm:"index;not null"`
	StepIndex  int              `gorm:"not null"`
	Cycle      int              `gorm:"not null;default:0"`
	AssigneeID string           `gorm:"index;not null"`
	Status     AssignmentStatus `gorm:"not null;default:'PENDING'"`
	DueAt      *time.Time
	Decision   *Decision
	Comment    string
	DecidedAt  *time.Time
}
