package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleMember UserRole = "MEMBER"
	RoleLead   UserRole = "LEAD"
	RoleAdmin  UserRole = "ADMIN"
)

type User struct {
	gorm.Model
	Username     string   `gorm:"unique;not null"`
	Email        string   `gorm:"unique;not null"`
	PasswordHash string   `gorm:"not null"` // Bcrypt hash of password
	WorkspaceID  string   `gorm:"index;not null"`
	Role         UserRole `gorm:"not null;default:'MEMBER'"`
	DisplayName  string
	ActiveStatus bool `gorm:"not null;default:true"`
	LastLogin    time.Time
}
