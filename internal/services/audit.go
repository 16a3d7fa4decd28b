package services

import (
	"encoding/json"
	"time"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Typed audit payloads, one shape per action tag. They are serialized to
// JSON into AuditLog.Details; the shapes are a stable contract since other
// systems read the trail back.

type StageChangePayload struct {
	From models.Stage `json:"from"`
	To   models.Stage `json:"to"`
}

type StatusChangePayload struct {
	From   models.Status `json:"from"`
	To     models.Status `json:"to"`
	Reason string        `json:"reason,omitempty"`
}

type MilestoneEditPayload struct {
	Fields []string `json:"fields"`
}

type CommissionEditPayload struct {
	Fields []string `json:"fields"`
}

type DocumentPayload struct {
	Code     string `json:"code"`
	Filename string `json:"filename,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type ProjectPayload struct {
	Code string `json:"code"`
}

// recordAudit appends an audit entry using the caller's DB handle. Mutating
// services pass their open transaction so the entry commits atomically with
// the change it describes.
func recordAudit(tx *gorm.DB, projectID *uint, action string, performedBy uint, payload interface{}) error {
	var details string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		details = string(b)
	}

	entry := &models.AuditLog{
		ProjectID:   projectID,
		Action:      action,
		PerformedBy: performedBy,
		Details:     details,
		CreatedAt:   time.Now(),
	}
	return tx.Create(entry).Error
}

type AuditLogService struct {
	db *gorm.DB
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db}
}

type AuditLogListRequest struct {
	Page        int    `form:"page" binding:"min=1"`
	PageSize    int    `form:"page_size" binding:"min=1,max=100"`
	ProjectID   uint   `form:"project_id"`
	Action      string `form:"action"`
	PerformedBy uint   `form:"performed_by"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
}

type AuditLogListResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Items    []models.AuditLog `json:"items"`
}

// List returns paginated audit entries, admin/viewer only.
func (s *AuditLogService) List(actor Actor, req *AuditLogListRequest) (*AuditLogListResponse, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleViewer); err != nil {
		return nil, err
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.AuditLog
	var total int64

	query := s.db.Model(&models.AuditLog{})

	if req.ProjectID != 0 {
		query = query.Where("project_id = ?", req.ProjectID)
	}
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.PerformedBy != 0 {
		query = query.Where("performed_by = ?", req.PerformedBy)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &AuditLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// ProjectActivity returns the activity feed for one project, newest first.
// A missing or invisible project yields an empty feed rather than an error.
func (s *AuditLogService) ProjectActivity(actor Actor, projectID uint) ([]models.AuditLog, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	if actor.Role == models.RoleAgent {
		var project models.Project
		if err := s.db.First(&project, projectID).Error; err != nil {
			return []models.AuditLog{}, nil
		}
		if !CanReadProject(actor, &project) {
			return []models.AuditLog{}, nil
		}
	}

	var logs []models.AuditLog
	if err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").Limit(200).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// CleanupOldLogs deletes entries older than retentionDays. Returns the number
// of deleted records.
func (s *AuditLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

var auditCron *cron.Cron

// StartAuditCleanupScheduler runs the retention sweep daily at 03:00.
// A retention of 0 keeps the trail forever and starts nothing.
func StartAuditCleanupScheduler(db *gorm.DB, retentionDays int) {
	if retentionDays <= 0 {
		logger.Info().Msg("audit retention disabled, trail kept forever")
		return
	}

	service := NewAuditLogService(db)
	auditCron = cron.New()
	auditCron.AddFunc("0 3 * * *", func() {
		deleted, err := service.CleanupOldLogs(retentionDays)
		if err != nil {
			logger.Error().Err(err).Msg("audit cleanup failed")
			return
		}
		if deleted > 0 {
			logger.Infof("audit cleanup removed %d entries older than %d days", deleted, retentionDays)
		}
	})
	auditCron.Start()
}

// StopAuditCleanupScheduler stops the retention scheduler if running.
func StopAuditCleanupScheduler() {
	if auditCron != nil {
		auditCron.Stop()
	}
}
