package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of system roles.
type Role string

const (
	RoleAdmin  Role = "admin"  // back-office staff, full access
	RoleAgent  Role = "agent"  // loan agent, limited to own projects
	RoleViewer Role = "viewer" // read-only supervisor
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleViewer:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password       string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	Email          string         `gorm:"size:255" json:"email"`
	FullName       string         `gorm:"size:200" json:"full_name"`
	Phone          string         `gorm:"size:50" json:"phone"`
	Role           Role           `gorm:"size:20;default:agent" json:"role"`
	AuthType       string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CommissionRate *float64       `json:"commission_rate"` // agent share percentage, meaningful for agents only
	LastLogin      *time.Time     `json:"last_login"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
