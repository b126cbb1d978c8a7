package models

import (
	"gorm.io/gorm"
)

type StepType string

const (
	StepSingleApproval StepType = "SINGLE_APPROVAL"
	// Reserved for future quorum policies.
	StepAllApproval StepType = "ALL_APPROVAL"
	StepMajority    StepType = "MAJORITY"
)

type AssigneeType string

const (
	AssigneeUser AssigneeType = "USER"
	AssigneeRole AssigneeType = "ROLE"
)

// Workflow is a reusable approval template. Read-only once created.
type Workflow struct {
	gorm.Model
	ID          string `gorm:"primaryKey"`
	WorkspaceID string `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Description string
	Steps       []WorkflowStep `gorm:"foreignKey:WorkflowID;constraint:OnDelete:CASCADE"`
}

type WorkflowStep struct {
	gorm.Model
	WorkflowID string `gorm:"index;not null"`
	// Stored as "position": "index" is reserved in Postgres.
	Index     int            `gorm:"column:position;not null"`
	Type      StepType       `gorm:"not null;default:'SINGLE_APPROVAL'"`
	Name      string         `gorm:"not null"`
	Assignees []StepAssignee `gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE"`
	SLAHours  *float64
}

type StepAssignee struct {
	gorm.Model
	StepID       uint         `gorm:"index;not null"`
	AssigneeType AssigneeType `gorm:"not null;default:'USER'"`
	AssigneeID   string       `gorm:"not null"`
}
