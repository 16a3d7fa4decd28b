package models

import (
	"time"

	"gorm.io/gorm"
)

// Bank is a lender master record. Projects reference exactly one bank and
// default their bank commission rate from it at creation.
type Bank struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"uniqueIndex;size:200;not null" json:"name"`
	ContactName        string         `gorm:"size:200" json:"contact_name"`
	ContactPhone       string         `gorm:"size:50" json:"contact_phone"`
	ContactEmail       string         `gorm:"size:255" json:"contact_email"`
	DefaultCommissionRate float64     `json:"default_commission_rate"` // percentage of loan amount
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Bank) TableName() string { return "banks" }
