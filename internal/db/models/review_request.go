package models

import (
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPending          RequestStatus = "PENDING"
	RequestInProgress       RequestStatus = "IN_PROGRESS"
	RequestApproved         RequestStatus = "APPROVED"
	RequestRejected         RequestStatus = "REJECTED"
	RequestChangesRequested RequestStatus = "CHANGES_REQUESTED"
)

var terminalStatuses = map[RequestStatus]bool{
	RequestApproved: true,
	RequestRejected: true,
}

// IsTerminal reports whether no further transitions are allowed.
func (s RequestStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

func (s RequestStatus) String() string {
	return string(s)
}

// ReviewRequest is one in-flight (or terminated) approval process against a
// knowledge document. Rows are never deleted; terminal requests are retained
// for audit.
type ReviewRequest struct {
	gorm.Model
	ID               string        `gorm:"primaryKey"`
	WorkspaceID      string        `gorm:"index;not null"`
	KnowledgeID      string        `gorm:"index;not null"`
	WorkflowID       string        `gorm:"index;not null"`
	InitiatorID      string        `gorm:"not null"`
	Status           RequestStatus `gorm:"not null;default:'PENDING'"`
	CurrentStepIndex int           `gorm:"not null;default:0"`
	// Cycle counts reopen rounds for the current step. Assignments carry the
	// cycle they were seeded in so a reopened step starts its quorum from zero.
	Cycle int `gorm:"not null;default:0"`
}
