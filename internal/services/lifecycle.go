package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const millisPerDay = 86_400_000

// LifecycleService owns stage/status transitions, milestone stamping and
// their audit side effects. Every mutation runs in a single transaction with
// the project row locked, so concurrent transitions on one project serialize
// while different projects stay independent.
type LifecycleService struct {
	db *gorm.DB
}

func NewLifecycleService(db *gorm.DB) *LifecycleService {
	return &LifecycleService{db: db}
}

// StageMetadata carries the optional per-target extras of a stage change.
// Only the field matching the target stage is consulted: FOLNotes on fol,
// ClosedOutcome on closed.
type StageMetadata struct {
	FOLNotes      string               `json:"fol_notes"`
	ClosedOutcome models.ClosedOutcome `json:"closed_outcome"`
}

// lockProject fetches the project row for update inside tx. sqlite has no
// row locks but serializes writers globally, so the clause is skipped there.
func lockProject(tx *gorm.DB, id uint) (*models.Project, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var project models.Project
	if err := q.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

// ChangeStage moves a project forward one stage. Transitions are strictly
// sequential (no skipping, no going back); the one carve-out is
// disbursed → closed, which is always permitted. Milestones are stamped on
// first arrival only.
func (s *LifecycleService) ChangeStage(actor Actor, projectID uint, newStage models.Stage, meta *StageMetadata) (*models.Project, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent); err != nil {
		return nil, err
	}
	if !newStage.Valid() {
		return nil, response.NewInvalidState(fmt.Sprintf("unknown stage %q", newStage))
	}

	var result *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := RequireProjectMutate(actor, project); err != nil {
			return err
		}
		if project.Status == models.StatusOnHold {
			return response.NewInvalidState("project is on hold; resume it before changing stage")
		}

		cur := project.Stage.Index()
		next := newStage.Index()
		sequential := next == cur+1
		carveOut := project.Stage == models.StageDisbursed && newStage == models.StageClosed
		if !sequential && !carveOut {
			return response.NewInvalidTransition(string(project.Stage), string(newStage))
		}

		from := project.Stage
		now := time.Now()
		project.Stage = newStage

		// First-arrival milestone stamp; re-entering later can never
		// overwrite it.
		if ts := project.Milestone(newStage); ts != nil && *ts == nil {
			*ts = &now
		}

		switch newStage {
		case models.StageFOL:
			if meta != nil && meta.FOLNotes != "" {
				project.FOLNotes = meta.FOLNotes
			}
		case models.StageDisbursed:
			project.Status = models.StatusDisbursed
		case models.StageClosed:
			if meta != nil && meta.ClosedOutcome != "" {
				if !meta.ClosedOutcome.Valid() {
					return response.NewValidation(fmt.Sprintf("unknown closed outcome %q", meta.ClosedOutcome))
				}
				project.ClosedOutcome = meta.ClosedOutcome
			}
			if project.ClosedAt == nil {
				project.ClosedAt = &now
			}
		}

		if err := tx.Save(project).Error; err != nil {
			return err
		}
		if err := recordAudit(tx, &project.ID, models.ActionStageChange, actor.UserID,
			StageChangePayload{From: from, To: newStage}); err != nil {
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

// ChangeStatus switches the operational status. Putting a project on hold
// requires a reason; resuming accrues whole paused days. A disbursed status
// is terminal.
func (s *LifecycleService) ChangeStatus(actor Actor, projectID uint, newStatus models.Status, reason string) (*models.Project, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, response.NewInvalidState(fmt.Sprintf("unknown status %q", newStatus))
	}
	if newStatus == models.StatusOnHold && reason == "" {
		return nil, response.NewValidation("a reason is required to put a project on hold")
	}

	var result *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := RequireProjectMutate(actor, project); err != nil {
			return err
		}
		if project.Status == models.StatusDisbursed {
			return response.NewInvalidState("status is terminal once disbursed")
		}

		from := project.Status
		now := time.Now()
		project.Status = newStatus

		switch {
		case newStatus == models.StatusOnHold:
			project.OnHoldReason = reason
			project.OnHoldAt = &now
		case newStatus == models.StatusActive && from == models.StatusOnHold:
			if project.OnHoldAt != nil {
				// Rounded whole days: a hold under 12h adds nothing, one
				// over 12h rounds up. Matches the historical behavior;
				// flagged with product whether this is intended.
				elapsed := now.Sub(*project.OnHoldAt).Milliseconds()
				project.PausedDays += int(math.Round(float64(elapsed) / millisPerDay))
			}
			project.OnHoldReason = ""
			project.OnHoldAt = nil
		}

		if err := tx.Save(project).Error; err != nil {
			return err
		}
		if err := recordAudit(tx, &project.ID, models.ActionStatusChange, actor.UserID,
			StatusChangePayload{From: from, To: newStatus, Reason: reason}); err != nil {
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

// MilestoneUpdate carries admin corrections to milestone timestamps. Nil
// fields are left untouched.
type MilestoneUpdate struct {
	WIPStartedAt    *time.Time `json:"wip_started_at"`
	DocsCompletedAt *time.Time `json:"docs_completed_at"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	FOLAt           *time.Time `json:"fol_at"`
	DisbursedAt     *time.Time `json:"disbursed_at"`
	ClosedAt        *time.Time `json:"closed_at"`
}

// UpdateMilestones is the admin-only manual correction path. It validates
// chronological order pairwise over the merged (existing + proposed) set and
// then writes the provided fields verbatim, without the first-arrival guard.
// This is the override for the auto-stamped state.
func (s *LifecycleService) UpdateMilestones(actor Actor, projectID uint, upd *MilestoneUpdate) (*models.Project, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var result *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		merged := []struct {
			name string
			val  *time.Time
		}{
			{"wip_started_at", pick(upd.WIPStartedAt, project.WIPStartedAt)},
			{"docs_completed_at", pick(upd.DocsCompletedAt, project.DocsCompletedAt)},
			{"submitted_at", pick(upd.SubmittedAt, project.SubmittedAt)},
			{"fol_at", pick(upd.FOLAt, project.FOLAt)},
			{"disbursed_at", pick(upd.DisbursedAt, project.DisbursedAt)},
		}
		// Compare each present value against the last present one so the
		// ordering holds across unset intermediate milestones too.
		var prevName string
		var prevVal *time.Time
		for _, m := range merged {
			if m.val == nil {
				continue
			}
			if prevVal != nil && m.val.Before(*prevVal) {
				return response.NewValidation(fmt.Sprintf("milestone order violated: %s must not precede %s", m.name, prevName))
			}
			prevName, prevVal = m.name, m.val
		}

		var fields []string
		apply := func(name string, src *time.Time, dst **time.Time) {
			if src != nil {
				*dst = src
				fields = append(fields, name)
			}
		}
		apply("wip_started_at", upd.WIPStartedAt, &project.WIPStartedAt)
		apply("docs_completed_at", upd.DocsCompletedAt, &project.DocsCompletedAt)
		apply("submitted_at", upd.SubmittedAt, &project.SubmittedAt)
		apply("fol_at", upd.FOLAt, &project.FOLAt)
		apply("disbursed_at", upd.DisbursedAt, &project.DisbursedAt)
		apply("closed_at", upd.ClosedAt, &project.ClosedAt)

		if len(fields) == 0 {
			return response.NewValidation("no milestone fields provided")
		}

		if err := tx.Save(project).Error; err != nil {
			return err
		}
		if err := recordAudit(tx, &project.ID, models.ActionMilestoneEdit, actor.UserID,
			MilestoneEditPayload{Fields: fields}); err != nil {
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

// pick prefers the proposed value over the existing one.
func pick(proposed, existing *time.Time) *time.Time {
	if proposed != nil {
		return proposed
	}
	return existing
}
