package services

import (
	"testing"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
)

func TestUserCreate_AdminOnly(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	svc := NewUserService(db)

	_, err := svc.Create(actorFor(agent), &CreateUserRequest{
		Username: "newbie", Password: "secret1", Role: models.RoleAgent,
	})
	assertAppCode(t, err, response.CodeForbidden)
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	seedUser(t, db, "taken", models.RoleAgent, nil)
	svc := NewUserService(db)

	_, err := svc.Create(actorFor(admin), &CreateUserRequest{
		Username: "taken", Password: "secret1", Role: models.RoleAgent,
	})
	assertAppCode(t, err, response.CodeValidation)
}

func TestUserDelete_LastAdminGuard(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	svc := NewUserService(db)

	err := svc.Delete(actorFor(admin), admin.ID)
	assertAppCode(t, err, response.CodeInvalidState)

	// With a second active admin the delete goes through.
	admin2 := seedUser(t, db, "admin2", models.RoleAdmin, nil)
	if err := svc.Delete(actorFor(admin2), admin.ID); err != nil {
		t.Fatalf("delete with backup admin: %v", err)
	}
}

func TestUserUpdate_DemotingLastAdminRejected(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	svc := NewUserService(db)

	demoted := models.RoleViewer
	_, err := svc.Update(actorFor(admin), admin.ID, &UpdateUserRequest{Role: &demoted})
	assertAppCode(t, err, response.CodeInvalidState)

	inactive := false
	_, err = svc.Update(actorFor(admin), admin.ID, &UpdateUserRequest{IsActive: &inactive})
	assertAppCode(t, err, response.CodeInvalidState)
}

func TestUserDelete_BlockedWhileReferenced(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	seedProject(t, db, "MM-0001", agent.ID, nil)
	svc := NewUserService(db)

	err := svc.Delete(actorFor(admin), agent.ID)
	assertAppCode(t, err, response.CodeReferentialIntegrity)
}

func TestUserGetByID_SelfOrAdmin(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	other := seedUser(t, db, "agent2", models.RoleAgent, nil)
	svc := NewUserService(db)

	if _, err := svc.GetByID(actorFor(agent), agent.ID); err != nil {
		t.Fatalf("self read: %v", err)
	}
	_, err := svc.GetByID(actorFor(agent), other.ID)
	assertAppCode(t, err, response.CodeForbidden)
}
