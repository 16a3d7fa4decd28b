package services

import (
	"errors"
	"testing"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Bank{},
		&models.ReferralCompany{},
		&models.Project{},
		&models.Document{},
		&models.AuditLog{},
		&models.RefreshToken{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role, rate *float64) *models.User {
	t.Helper()
	u := &models.User{
		Username:       username,
		Role:           role,
		AuthType:       "local",
		IsActive:       true,
		CommissionRate: rate,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedBank(t *testing.T, db *gorm.DB, name string, rate float64) *models.Bank {
	t.Helper()
	b := &models.Bank{Name: name, DefaultCommissionRate: rate, IsActive: true}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("seed bank %s: %v", name, err)
	}
	return b
}

func seedReferral(t *testing.T, db *gorm.DB, name string, rate float64) *models.ReferralCompany {
	t.Helper()
	r := &models.ReferralCompany{Name: name, DefaultReferralRate: rate, IsActive: true}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed referral company %s: %v", name, err)
	}
	return r
}

func seedProject(t *testing.T, db *gorm.DB, code string, agentID uint, mutate func(*models.Project)) *models.Project {
	t.Helper()
	p := &models.Project{
		Code:            code,
		BorrowerType:    models.BorrowerSalaried,
		BusinessType:    models.BusinessBuyout,
		PropertyProfile: models.PropertyBuilding,
		ApplicantName:   "Test Applicant",
		LoanAmount:      2_000_000,
		BankID:          1,
		AgentID:         agentID,
		CreatedBy:       agentID,
		Stage:           models.StageNew,
		Status:          models.StatusOpen,
		BankRate:        1.5,
		AgentRate:       70,
		ReferralRate:    20,
	}
	if mutate != nil {
		mutate(p)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed project %s: %v", code, err)
	}
	return p
}

func actorFor(u *models.User) Actor {
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// assertAppCode fails unless err is an AppError carrying the given code.
func assertAppCode(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", code)
	}
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("error code = %d, expected %d (message: %s)", appErr.Code, code, appErr.Message)
	}
}

func auditCount(t *testing.T, db *gorm.DB, projectID uint, action string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.AuditLog{}).
		Where("project_id = ? AND action = ?", projectID, action).
		Count(&n).Error; err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	return n
}
