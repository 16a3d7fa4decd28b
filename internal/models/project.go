package models

import (
	"time"

	"gorm.io/gorm"
)

// Stage is the project's position in the mortgage-processing pipeline.
// Stages are totally ordered; transitions are forward-only with a single
// carve-out (disbursed → closed).
type Stage string

const (
	StageNew           Stage = "new"
	StageWIP           Stage = "wip"
	StageDocsCompleted Stage = "docs_completed"
	StageSubmitted     Stage = "submitted"
	StageFOL           Stage = "fol" // Facility Offer Letter received
	StageDisbursed     Stage = "disbursed"
	StageClosed        Stage = "closed"
)

// StageOrder lists all stages in pipeline order.
var StageOrder = []Stage{
	StageNew,
	StageWIP,
	StageDocsCompleted,
	StageSubmitted,
	StageFOL,
	StageDisbursed,
	StageClosed,
}

// Index returns the stage's position in the pipeline, or -1 if unknown.
func (s Stage) Index() int {
	for i, v := range StageOrder {
		if v == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

// Status is an operational flag orthogonal to Stage, indicating whether work
// is currently proceeding. on_hold blocks stage changes; disbursed is terminal.
type Status string

const (
	StatusOpen      Status = "open"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusDisbursed Status = "disbursed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusActive, StatusOnHold, StatusDisbursed:
		return true
	}
	return false
}

type BorrowerType string

const (
	BorrowerSalaried     BorrowerType = "salaried"
	BorrowerSelfEmployed BorrowerType = "self_employed"
)

func (b BorrowerType) Valid() bool {
	return b == BorrowerSalaried || b == BorrowerSelfEmployed
}

type BusinessType string

const (
	BusinessBuyout        BusinessType = "buyout"
	BusinessEquityRelease BusinessType = "equity_release"
)

func (b BusinessType) Valid() bool {
	return b == BusinessBuyout || b == BusinessEquityRelease
}

type PropertyProfile string

const (
	PropertyLand     PropertyProfile = "Land"
	PropertyBuilding PropertyProfile = "Building"
)

func (p PropertyProfile) Valid() bool {
	return p == PropertyLand || p == PropertyBuilding
}

// ClosedOutcome records how a project ended.
type ClosedOutcome string

const (
	OutcomeApproved  ClosedOutcome = "approved"
	OutcomeRejected  ClosedOutcome = "rejected"
	OutcomeCancelled ClosedOutcome = "cancelled"
	OutcomeDisbursed ClosedOutcome = "disbursed"
)

func (o ClosedOutcome) Valid() bool {
	switch o {
	case OutcomeApproved, OutcomeRejected, OutcomeCancelled, OutcomeDisbursed:
		return true
	}
	return false
}

// Project is one loan application tracked through the pipeline.
type Project struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"uniqueIndex;size:20;not null" json:"code"` // MM-0001, MM-0002, ...

	BorrowerType    BorrowerType    `gorm:"size:20;not null" json:"borrower_type"`
	BusinessType    BusinessType    `gorm:"size:20;not null" json:"business_type"`
	PropertyProfile PropertyProfile `gorm:"size:20;not null" json:"property_profile"`

	ApplicantName  string  `gorm:"size:200;not null" json:"applicant_name"`
	ApplicantPhone string  `gorm:"size:50" json:"applicant_phone"`
	ApplicantEmail string  `gorm:"size:255" json:"applicant_email"`
	LoanAmount     float64 `json:"loan_amount"`

	BankID            uint  `gorm:"index;not null" json:"bank_id"`
	AgentID           uint  `gorm:"index;not null" json:"agent_id"` // assignee
	ReferralCompanyID *uint `gorm:"index" json:"referral_company_id"`
	CreatedBy         uint  `json:"created_by"`

	Stage  Stage  `gorm:"size:20;default:new;index" json:"stage"`
	Status Status `gorm:"size:20;default:open;index" json:"status"`

	// Milestone timestamps, each stamped once on first arrival at the stage.
	WIPStartedAt    *time.Time `json:"wip_started_at"`
	DocsCompletedAt *time.Time `json:"docs_completed_at"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	FOLAt           *time.Time `json:"fol_at"`
	DisbursedAt     *time.Time `json:"disbursed_at"`
	ClosedAt        *time.Time `json:"closed_at"`

	// Per-project commission overrides, defaulted from bank/agent/referral
	// company at creation. Percentages.
	BankRate     float64 `json:"bank_rate"`
	AgentRate    float64 `json:"agent_rate"`
	ReferralRate float64 `json:"referral_rate"`
	// Actual amount received, admin-entered post-disbursement.
	FinalCommission *float64 `json:"final_commission"`

	OnHoldReason string     `gorm:"size:500" json:"on_hold_reason"`
	OnHoldAt     *time.Time `json:"on_hold_at"`
	// Whole days spent on hold, excluded from cycle-time calculations.
	PausedDays int `gorm:"default:0" json:"paused_days"`

	FOLNotes      string        `gorm:"type:text" json:"fol_notes"`
	ClosedOutcome ClosedOutcome `gorm:"size:20" json:"closed_outcome"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// Milestone returns a pointer to the milestone field paired with the given
// stage, or nil for stages without one (new has no milestone; closed is
// handled separately via ClosedAt).
func (p *Project) Milestone(s Stage) **time.Time {
	switch s {
	case StageWIP:
		return &p.WIPStartedAt
	case StageDocsCompleted:
		return &p.DocsCompletedAt
	case StageSubmitted:
		return &p.SubmittedAt
	case StageFOL:
		return &p.FOLAt
	case StageDisbursed:
		return &p.DisbursedAt
	}
	return nil
}
