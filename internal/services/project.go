package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

const projectCodePrefix = "MM-"

type ProjectService struct {
	db    *gorm.DB
	queue TaskQueue
}

func NewProjectService(db *gorm.DB, queue TaskQueue) *ProjectService {
	return &ProjectService{db: db, queue: queue}
}

type ProjectListRequest struct {
	Page         int    `form:"page" binding:"min=1"`
	PageSize     int    `form:"page_size" binding:"min=1,max=100"`
	Code         string `form:"code"`
	Stage        string `form:"stage"`
	Status       string `form:"status"`
	BankID       uint   `form:"bank_id"`
	AgentID      uint   `form:"agent_id"`
	BorrowerType string `form:"borrower_type"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	BorrowerType      models.BorrowerType    `json:"borrower_type" binding:"required"`
	BusinessType      models.BusinessType    `json:"business_type" binding:"required"`
	PropertyProfile   models.PropertyProfile `json:"property_profile" binding:"required"`
	ApplicantName     string                 `json:"applicant_name" binding:"required"`
	ApplicantPhone    string                 `json:"applicant_phone"`
	ApplicantEmail    string                 `json:"applicant_email"`
	LoanAmount        float64                `json:"loan_amount" binding:"required,gt=0"`
	BankID            uint                   `json:"bank_id" binding:"required"`
	AgentID           uint                   `json:"agent_id" binding:"required"`
	ReferralCompanyID *uint                  `json:"referral_company_id"`
}

type UpdateProjectRequest struct {
	BusinessType    *models.BusinessType    `json:"business_type"`
	PropertyProfile *models.PropertyProfile `json:"property_profile"`
	ApplicantName   *string                 `json:"applicant_name"`
	ApplicantPhone  *string                 `json:"applicant_phone"`
	ApplicantEmail  *string                 `json:"applicant_email"`
	LoanAmount      *float64                `json:"loan_amount"`
	AgentID         *uint                   `json:"agent_id"`
}

// agentScope narrows a query to rows the agent owns (assignee or creator).
func agentScope(actor Actor, query *gorm.DB) *gorm.DB {
	if actor.Role == models.RoleAgent {
		return query.Where("agent_id = ? OR created_by = ?", actor.UserID, actor.UserID)
	}
	return query
}

// List returns paginated projects, row-filtered for agents.
func (s *ProjectService) List(actor Actor, req *ProjectListRequest) (*ProjectListResponse, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := agentScope(actor, s.db.Model(&models.Project{}))

	if req.Code != "" {
		query = query.Where("code LIKE ?", "%"+req.Code+"%")
	}
	if req.Stage != "" {
		query = query.Where("stage = ?", req.Stage)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.BankID != 0 {
		query = query.Where("bank_id = ?", req.BankID)
	}
	if req.AgentID != 0 {
		query = query.Where("agent_id = ?", req.AgentID)
	}
	if req.BorrowerType != "" {
		query = query.Where("borrower_type = ?", req.BorrowerType)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project, enforcing agent row-level visibility.
func (s *ProjectService) GetByID(actor Actor, id uint) (*models.Project, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	if !CanReadProject(actor, &project) {
		return nil, response.NewForbidden("no access to this project")
	}
	return &project, nil
}

// Create opens a new project at stage=new, status=open. The sequential code
// and the commission rate defaults are resolved inside one transaction so
// concurrent creates cannot collide on a code.
func (s *ProjectService) Create(actor Actor, req *CreateProjectRequest) (*models.Project, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent); err != nil {
		return nil, err
	}
	if !req.BorrowerType.Valid() {
		return nil, response.NewValidation(fmt.Sprintf("unknown borrower type %q", req.BorrowerType))
	}
	if !req.BusinessType.Valid() {
		return nil, response.NewValidation(fmt.Sprintf("unknown business type %q", req.BusinessType))
	}
	if !req.PropertyProfile.Valid() {
		return nil, response.NewValidation(fmt.Sprintf("unknown property profile %q", req.PropertyProfile))
	}

	var result *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var bank models.Bank
		if err := tx.First(&bank, req.BankID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewValidation("referenced bank does not exist")
			}
			return err
		}

		var agent models.User
		if err := tx.First(&agent, req.AgentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewValidation("referenced agent does not exist")
			}
			return err
		}
		if agent.Role != models.RoleAgent && agent.Role != models.RoleAdmin {
			return response.NewValidation("assignee must be an agent or admin")
		}

		project := models.Project{
			Code:            nextProjectCode(tx),
			BorrowerType:    req.BorrowerType,
			BusinessType:    req.BusinessType,
			PropertyProfile: req.PropertyProfile,
			ApplicantName:   req.ApplicantName,
			ApplicantPhone:  req.ApplicantPhone,
			ApplicantEmail:  req.ApplicantEmail,
			LoanAmount:      req.LoanAmount,
			BankID:          req.BankID,
			AgentID:         req.AgentID,
			CreatedBy:       actor.UserID,
			Stage:           models.StageNew,
			Status:          models.StatusOpen,
			BankRate:        bank.DefaultCommissionRate,
		}

		if agent.CommissionRate != nil {
			project.AgentRate = *agent.CommissionRate
		}

		if req.ReferralCompanyID != nil {
			var ref models.ReferralCompany
			if err := tx.First(&ref, *req.ReferralCompanyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return response.NewValidation("referenced referral company does not exist")
				}
				return err
			}
			project.ReferralCompanyID = req.ReferralCompanyID
			project.ReferralRate = ref.DefaultReferralRate
		}

		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		if err := recordAudit(tx, &project.ID, models.ActionProjectCreate, actor.UserID,
			ProjectPayload{Code: project.Code}); err != nil {
			return err
		}

		result = &project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nextProjectCode derives the next sequential code from the highest existing
// one, including soft-deleted rows so codes are never reused. Longer codes
// sort first so the scan stays numeric once sequences outgrow the zero
// padding.
func nextProjectCode(tx *gorm.DB) string {
	var last models.Project
	seq := 0
	err := tx.Unscoped().Where("code LIKE ?", projectCodePrefix+"%").
		Order("LENGTH(code) DESC, code DESC").First(&last).Error
	if err == nil {
		if n, convErr := strconv.Atoi(strings.TrimPrefix(last.Code, projectCodePrefix)); convErr == nil {
			seq = n
		}
	}
	return fmt.Sprintf("%s%04d", projectCodePrefix, seq+1)
}

// Update edits descriptive project fields. Lifecycle, milestone and
// commission fields have their own gated operations.
func (s *ProjectService) Update(actor Actor, id uint, req *UpdateProjectRequest) (*models.Project, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent); err != nil {
		return nil, err
	}

	var result *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, id)
		if err != nil {
			return err
		}
		if err := RequireProjectMutate(actor, project); err != nil {
			return err
		}

		if req.BusinessType != nil {
			if !req.BusinessType.Valid() {
				return response.NewValidation(fmt.Sprintf("unknown business type %q", *req.BusinessType))
			}
			project.BusinessType = *req.BusinessType
		}
		if req.PropertyProfile != nil {
			if !req.PropertyProfile.Valid() {
				return response.NewValidation(fmt.Sprintf("unknown property profile %q", *req.PropertyProfile))
			}
			project.PropertyProfile = *req.PropertyProfile
		}
		if req.ApplicantName != nil {
			project.ApplicantName = *req.ApplicantName
		}
		if req.ApplicantPhone != nil {
			project.ApplicantPhone = *req.ApplicantPhone
		}
		if req.ApplicantEmail != nil {
			project.ApplicantEmail = *req.ApplicantEmail
		}
		if req.LoanAmount != nil {
			if *req.LoanAmount <= 0 {
				return response.NewValidation("loan amount must be positive")
			}
			project.LoanAmount = *req.LoanAmount
		}
		if req.AgentID != nil {
			// Reassignment is an admin decision.
			if actor.Role != models.RoleAdmin {
				return response.NewForbidden("only admins may reassign projects")
			}
			var agent models.User
			if err := tx.First(&agent, *req.AgentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return response.NewValidation("referenced agent does not exist")
				}
				return err
			}
			project.AgentID = *req.AgentID
		}

		if err := tx.Save(project).Error; err != nil {
			return err
		}

		result = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a project and cascades its documents, audit entries and
// stored files. Admin-only.
func (s *ProjectService) Delete(actor Actor, id uint) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	var fileIDs []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, id)
		if err != nil {
			return err
		}

		var docs []models.Document
		if err := tx.Where("project_id = ?", id).Find(&docs).Error; err != nil {
			return err
		}
		for _, d := range docs {
			fileIDs = append(fileIDs, d.FileIDs...)
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.AuditLog{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(project).Error; err != nil {
			return err
		}
		// Recorded without a project reference since the project's own trail
		// was just cascaded away.
		return recordAudit(tx, nil, models.ActionProjectDelete, actor.UserID,
			ProjectPayload{Code: project.Code})
	})
	if err != nil {
		return err
	}

	if len(fileIDs) > 0 {
		s.queue.Enqueue(&CleanupTask{FileIDs: fileIDs})
	}
	return nil
}
