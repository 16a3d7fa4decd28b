package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralCompany is a lead source master record. Projects may reference one
// and default their referral rate from it at creation.
type ReferralCompany struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Name                string         `gorm:"uniqueIndex;size:200;not null" json:"name"`
	ContactName         string         `gorm:"size:200" json:"contact_name"`
	ContactPhone        string         `gorm:"size:50" json:"contact_phone"`
	ContactEmail        string         `gorm:"size:255" json:"contact_email"`
	DefaultReferralRate float64        `json:"default_referral_rate"` // percentage of commission
	IsActive            bool           `gorm:"default:true" json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ReferralCompany) TableName() string { return "referral_companies" }
