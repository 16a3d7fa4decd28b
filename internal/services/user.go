package services

import (
	"errors"
	"fmt"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/internal/utils"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Page     int    `form:"page" binding:"min=1"`
	PageSize int    `form:"page_size" binding:"min=1,max=100"`
	Username string `form:"username"`
	Role     string `form:"role"`
	IsActive *bool  `form:"is_active"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

type CreateUserRequest struct {
	Username       string      `json:"username" binding:"required,min=3,max=50"`
	Password       string      `json:"password" binding:"required,min=6"`
	Email          string      `json:"email" binding:"omitempty,email"`
	FullName       string      `json:"full_name"`
	Phone          string      `json:"phone"`
	Role           models.Role `json:"role" binding:"required"`
	CommissionRate *float64    `json:"commission_rate"`
}

type UpdateUserRequest struct {
	Email          *string      `json:"email"`
	FullName       *string      `json:"full_name"`
	Phone          *string      `json:"phone"`
	Role           *models.Role `json:"role"`
	IsActive       *bool        `json:"is_active"`
	CommissionRate *float64     `json:"commission_rate"`
	Password       *string      `json:"password"`
}

// List returns paginated users, admin-only.
func (s *UserService) List(actor Actor, req *UserListRequest) (*UserListResponse, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var users []models.User
	var total int64

	query := s.db.Model(&models.User{})

	if req.Username != "" {
		query = query.Where("username LIKE ?", "%"+req.Username+"%")
	}
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	for i := range users {
		users[i].Password = ""
	}

	return &UserListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    users,
	}, nil
}

// GetByID returns a single user without the password hash.
func (s *UserService) GetByID(actor Actor, id uint) (*models.User, error) {
	// Users may read their own record; everything else is admin-only.
	if actor.UserID != id {
		if err := RequireAdmin(actor); err != nil {
			return nil, err
		}
	}

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

// Create adds a staff account, admin-only.
func (s *UserService) Create(actor Actor, req *CreateUserRequest) (*models.User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, response.NewValidation(fmt.Sprintf("unknown role %q", req.Role))
	}
	if req.CommissionRate != nil && (*req.CommissionRate < 0 || *req.CommissionRate > 100) {
		return nil, response.NewValidation("commission rate must be between 0 and 100")
	}

	var existing models.User
	if err := s.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, response.NewValidation("username already taken")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:       req.Username,
		Password:       hashed,
		Email:          req.Email,
		FullName:       req.FullName,
		Phone:          req.Phone,
		Role:           req.Role,
		AuthType:       "local",
		IsActive:       true,
		CommissionRate: req.CommissionRate,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	user.Password = ""
	return &user, nil
}

// Update edits a user, admin-only. Deactivating or demoting the last active
// admin is rejected so the system can never lock itself out.
func (s *UserService) Update(actor Actor, id uint, req *UpdateUserRequest) (*models.User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var result *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("user not found")
			}
			return err
		}

		losesAdmin := user.Role == models.RoleAdmin && user.IsActive &&
			((req.Role != nil && *req.Role != models.RoleAdmin) ||
				(req.IsActive != nil && !*req.IsActive))
		if losesAdmin {
			if err := s.ensureAnotherActiveAdmin(tx, user.ID); err != nil {
				return err
			}
		}

		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.FullName != nil {
			user.FullName = *req.FullName
		}
		if req.Phone != nil {
			user.Phone = *req.Phone
		}
		if req.Role != nil {
			if !req.Role.Valid() {
				return response.NewValidation(fmt.Sprintf("unknown role %q", *req.Role))
			}
			user.Role = *req.Role
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.CommissionRate != nil {
			if *req.CommissionRate < 0 || *req.CommissionRate > 100 {
				return response.NewValidation("commission rate must be between 0 and 100")
			}
			user.CommissionRate = req.CommissionRate
		}
		if req.Password != nil {
			if len(*req.Password) < 6 {
				return response.NewValidation("password must be at least 6 characters")
			}
			hashed, err := utils.HashPassword(*req.Password)
			if err != nil {
				return err
			}
			user.Password = hashed
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		result = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Password = ""
	return result, nil
}

// Delete soft-deletes a user. Rejected while the user is still assigned to or
// the creator of any project, and for the last active admin.
func (s *UserService) Delete(actor Actor, id uint) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("user not found")
			}
			return err
		}

		if user.Role == models.RoleAdmin && user.IsActive {
			if err := s.ensureAnotherActiveAdmin(tx, user.ID); err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.Project{}).
			Where("agent_id = ? OR created_by = ?", id, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return response.NewReferentialIntegrity(
				fmt.Sprintf("user is referenced by %d project(s); reassign them first", count))
		}

		return tx.Delete(&user).Error
	})
}

func (s *UserService) ensureAnotherActiveAdmin(tx *gorm.DB, excludeID uint) error {
	var admins int64
	if err := tx.Model(&models.User{}).
		Where("role = ? AND is_active = ? AND id != ?", models.RoleAdmin, true, excludeID).
		Count(&admins).Error; err != nil {
		return err
	}
	if admins == 0 {
		return response.NewInvalidState("cannot remove the last active admin")
	}
	return nil
}
