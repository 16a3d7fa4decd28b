package services

import (
	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
)

// Actor is the resolved caller identity threaded explicitly into every
// service call. There is no ambient session state.
type Actor struct {
	UserID   uint
	Username string
	Role     models.Role
}

// RequireRole checks that the actor is authenticated and holds one of the
// allowed roles. The role switch is exhaustive over the closed role set so an
// unknown role can never slip through.
func RequireRole(actor Actor, allowed ...models.Role) error {
	if actor.UserID == 0 {
		return response.NewUnauthenticated("sign in required")
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleAgent, models.RoleViewer:
		for _, r := range allowed {
			if actor.Role == r {
				return nil
			}
		}
		return response.NewForbidden("insufficient role for this operation")
	default:
		return response.NewForbidden("unrecognized role")
	}
}

// RequireAdmin is shorthand for RequireRole(actor, admin).
func RequireAdmin(actor Actor) error {
	return RequireRole(actor, models.RoleAdmin)
}

// CanReadProject reports row-level read visibility: admins and viewers see
// everything, agents only projects they are assigned to or created.
func CanReadProject(actor Actor, p *models.Project) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleViewer:
		return true
	case models.RoleAgent:
		return p.AgentID == actor.UserID || p.CreatedBy == actor.UserID
	default:
		return false
	}
}

// RequireProjectMutate gates mutating access to a project: admins always
// pass, agents only when assignee or creator.
func RequireProjectMutate(actor Actor, p *models.Project) error {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent); err != nil {
		return err
	}
	if actor.Role == models.RoleAgent && p.AgentID != actor.UserID && p.CreatedBy != actor.UserID {
		return response.NewForbidden("agents may only modify their own projects")
	}
	return nil
}
