package services

import (
	"errors"
	"fmt"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type ReferralService struct {
	db *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db}
}

type ReferralCompanyRequest struct {
	Name                string   `json:"name" binding:"required"`
	ContactName         string   `json:"contact_name"`
	ContactPhone        string   `json:"contact_phone"`
	ContactEmail        string   `json:"contact_email"`
	DefaultReferralRate *float64 `json:"default_referral_rate"`
	IsActive            *bool    `json:"is_active"`
}

func (s *ReferralService) List(actor Actor, activeOnly bool) ([]models.ReferralCompany, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	var companies []models.ReferralCompany
	query := s.db.Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *ReferralService) GetByID(actor Actor, id uint) (*models.ReferralCompany, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	var company models.ReferralCompany
	if err := s.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("referral company not found")
		}
		return nil, err
	}
	return &company, nil
}

func (s *ReferralService) Create(actor Actor, req *ReferralCompanyRequest) (*models.ReferralCompany, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.DefaultReferralRate != nil && (*req.DefaultReferralRate < 0 || *req.DefaultReferralRate > 100) {
		return nil, response.NewValidation("referral rate must be between 0 and 100")
	}

	var existing models.ReferralCompany
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, response.NewValidation("a referral company with this name already exists")
	}

	company := models.ReferralCompany{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		IsActive:     true,
	}
	if req.DefaultReferralRate != nil {
		company.DefaultReferralRate = *req.DefaultReferralRate
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	if err := s.db.Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (s *ReferralService) Update(actor Actor, id uint, req *ReferralCompanyRequest) (*models.ReferralCompany, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.DefaultReferralRate != nil && (*req.DefaultReferralRate < 0 || *req.DefaultReferralRate > 100) {
		return nil, response.NewValidation("referral rate must be between 0 and 100")
	}

	var company models.ReferralCompany
	if err := s.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("referral company not found")
		}
		return nil, err
	}

	company.Name = req.Name
	company.ContactName = req.ContactName
	company.ContactPhone = req.ContactPhone
	company.ContactEmail = req.ContactEmail
	if req.DefaultReferralRate != nil {
		company.DefaultReferralRate = *req.DefaultReferralRate
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	if err := s.db.Save(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// Delete soft-deletes a referral company. Rejected while any project
// references it.
func (s *ReferralService) Delete(actor Actor, id uint) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var company models.ReferralCompany
		if err := tx.First(&company, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("referral company not found")
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Project{}).Where("referral_company_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return response.NewReferentialIntegrity(
				fmt.Sprintf("referral company is referenced by %d project(s)", count))
		}

		return tx.Delete(&company).Error
	})
}
