package services

import (
	"testing"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		actor   Actor
		allowed []models.Role
		code    int // 0 means success
	}{
		{"unauthenticated", Actor{}, []models.Role{models.RoleAdmin}, response.CodeUnauthenticated},
		{"admin allowed", Actor{UserID: 1, Role: models.RoleAdmin}, []models.Role{models.RoleAdmin}, 0},
		{"agent not admin", Actor{UserID: 2, Role: models.RoleAgent}, []models.Role{models.RoleAdmin}, response.CodeForbidden},
		{"viewer in list", Actor{UserID: 3, Role: models.RoleViewer}, []models.Role{models.RoleAdmin, models.RoleViewer}, 0},
		{"unknown role", Actor{UserID: 4, Role: "superuser"}, []models.Role{models.RoleAdmin}, response.CodeForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := RequireRole(tc.actor, tc.allowed...)
			if tc.code == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertAppCode(t, err, tc.code)
		})
	}
}

func TestCanReadProject(t *testing.T) {
	p := &models.Project{AgentID: 10, CreatedBy: 20}

	if !CanReadProject(Actor{UserID: 1, Role: models.RoleAdmin}, p) {
		t.Error("admin should read any project")
	}
	if !CanReadProject(Actor{UserID: 1, Role: models.RoleViewer}, p) {
		t.Error("viewer should read any project")
	}
	if !CanReadProject(Actor{UserID: 10, Role: models.RoleAgent}, p) {
		t.Error("assignee agent should read")
	}
	if !CanReadProject(Actor{UserID: 20, Role: models.RoleAgent}, p) {
		t.Error("creator agent should read")
	}
	if CanReadProject(Actor{UserID: 30, Role: models.RoleAgent}, p) {
		t.Error("unrelated agent should not read")
	}
}

func TestRequireProjectMutate(t *testing.T) {
	p := &models.Project{AgentID: 10, CreatedBy: 20}

	if err := RequireProjectMutate(Actor{UserID: 1, Role: models.RoleAdmin}, p); err != nil {
		t.Errorf("admin mutate: %v", err)
	}
	if err := RequireProjectMutate(Actor{UserID: 10, Role: models.RoleAgent}, p); err != nil {
		t.Errorf("assignee mutate: %v", err)
	}
	err := RequireProjectMutate(Actor{UserID: 30, Role: models.RoleAgent}, p)
	assertAppCode(t, err, response.CodeForbidden)
	err = RequireProjectMutate(Actor{UserID: 1, Role: models.RoleViewer}, p)
	assertAppCode(t, err, response.CodeForbidden)
}
