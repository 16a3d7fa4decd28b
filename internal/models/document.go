package models

import (
	"time"
)

// Section groups checklist slots by subject.
type Section string

const (
	SectionBorrower Section = "borrower"
	SectionCompany  Section = "company"
	SectionAsset    Section = "asset"
	SectionBank     Section = "bank"
	SectionLease    Section = "lease"
	SectionOther    Section = "other"
)

func (s Section) Valid() bool {
	switch s {
	case SectionBorrower, SectionCompany, SectionAsset, SectionBank, SectionLease, SectionOther:
		return true
	}
	return false
}

// DocumentStatus is the verification lifecycle of a checklist slot.
type DocumentStatus string

const (
	DocMissing  DocumentStatus = "missing"
	DocUploaded DocumentStatus = "uploaded"
	DocVerified DocumentStatus = "verified"
	DocRejected DocumentStatus = "rejected"
)

// Document is one checklist slot instance for a project, created on first
// upload. FileIDs and Filenames are parallel arrays of equal length.
type Document struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ProjectID uint    `gorm:"not null;uniqueIndex:ux_documents_project_code" json:"project_id"`
	Code      string  `gorm:"size:100;not null;uniqueIndex:ux_documents_project_code" json:"code"`
	Label     string  `gorm:"size:200;not null" json:"label"`
	Section   Section `gorm:"size:20;not null" json:"section"`

	FileIDs   []string `gorm:"serializer:json;type:text" json:"file_ids"`
	Filenames []string `gorm:"serializer:json;type:text" json:"filenames"`

	Status          DocumentStatus `gorm:"size:20;default:missing" json:"status"`
	RejectionReason string         `gorm:"size:500" json:"rejection_reason,omitempty"`
	UploadedBy      *uint          `json:"uploaded_by"`
	VerifiedBy      *uint          `json:"verified_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

// Satisfied reports whether this slot counts toward checklist completion.
func (d *Document) Satisfied() bool {
	return d.Status == DocUploaded || d.Status == DocVerified
}
