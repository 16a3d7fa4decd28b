package services

import (
	"errors"
	"fmt"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type BankService struct {
	db *gorm.DB
}

func NewBankService(db *gorm.DB) *BankService {
	return &BankService{db: db}
}

type BankRequest struct {
	Name                  string   `json:"name" binding:"required"`
	ContactName           string   `json:"contact_name"`
	ContactPhone          string   `json:"contact_phone"`
	ContactEmail          string   `json:"contact_email"`
	DefaultCommissionRate *float64 `json:"default_commission_rate"`
	IsActive              *bool    `json:"is_active"`
}

// List returns all banks. Any authenticated role may read the registry.
func (s *BankService) List(actor Actor, activeOnly bool) ([]models.Bank, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	var banks []models.Bank
	query := s.db.Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&banks).Error; err != nil {
		return nil, err
	}
	return banks, nil
}

func (s *BankService) GetByID(actor Actor, id uint) (*models.Bank, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	var bank models.Bank
	if err := s.db.First(&bank, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("bank not found")
		}
		return nil, err
	}
	return &bank, nil
}

// Create adds a bank, admin-only. Names are unique.
func (s *BankService) Create(actor Actor, req *BankRequest) (*models.Bank, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.DefaultCommissionRate != nil && (*req.DefaultCommissionRate < 0 || *req.DefaultCommissionRate > 100) {
		return nil, response.NewValidation("commission rate must be between 0 and 100")
	}

	var existing models.Bank
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, response.NewValidation("a bank with this name already exists")
	}

	bank := models.Bank{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		IsActive:     true,
	}
	if req.DefaultCommissionRate != nil {
		bank.DefaultCommissionRate = *req.DefaultCommissionRate
	}
	if req.IsActive != nil {
		bank.IsActive = *req.IsActive
	}

	if err := s.db.Create(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

// Update edits a bank, admin-only. Rate changes only affect projects created
// afterwards; existing projects keep their snapshot.
func (s *BankService) Update(actor Actor, id uint, req *BankRequest) (*models.Bank, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.DefaultCommissionRate != nil && (*req.DefaultCommissionRate < 0 || *req.DefaultCommissionRate > 100) {
		return nil, response.NewValidation("commission rate must be between 0 and 100")
	}

	var bank models.Bank
	if err := s.db.First(&bank, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("bank not found")
		}
		return nil, err
	}

	bank.Name = req.Name
	bank.ContactName = req.ContactName
	bank.ContactPhone = req.ContactPhone
	bank.ContactEmail = req.ContactEmail
	if req.DefaultCommissionRate != nil {
		bank.DefaultCommissionRate = *req.DefaultCommissionRate
	}
	if req.IsActive != nil {
		bank.IsActive = *req.IsActive
	}

	if err := s.db.Save(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

// Delete soft-deletes a bank. Rejected while any project references it.
func (s *BankService) Delete(actor Actor, id uint) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var bank models.Bank
		if err := tx.First(&bank, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("bank not found")
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Project{}).Where("bank_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return response.NewReferentialIntegrity(
				fmt.Sprintf("bank is referenced by %d project(s)", count))
		}

		return tx.Delete(&bank).Error
	})
}
