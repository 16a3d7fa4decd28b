package models

import "time"

// Audit action tags. The set is open-ended (stored as strings) but all
// writers use these constants.
const (
	ActionStageChange    = "stage_change"
	ActionStatusChange   = "status_change"
	ActionMilestoneEdit  = "milestone_edit"
	ActionCommissionEdit = "commission_edit"
	ActionDocUpload      = "document_upload"
	ActionDocVerify      = "document_verify"
	ActionDocReject      = "document_reject"
	ActionDocFileRemove  = "document_file_remove"
	ActionDocDelete      = "document_delete"
	ActionDocsCompleted  = "docs_completed"
	ActionProjectCreate  = "project_create"
	ActionProjectDelete  = "project_delete"
)

// AuditLog is an append-only record of a domain event. Entries are never
// mutated; they are removed only by whole-project cascade deletion or the
// retention sweep.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   *uint     `gorm:"index" json:"project_id,omitempty"`
	Action      string    `gorm:"size:100;index;not null" json:"action"`
	PerformedBy uint      `gorm:"index;not null" json:"performed_by"`
	Details     string    `gorm:"type:text" json:"details"` // JSON payload, shape per action
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
