package services

import (
	"testing"
	"time"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
)

func TestChangeStage_SequentialAdvance(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, nil)
	svc := NewLifecycleService(db)
	actor := actorFor(agent)

	sequence := []models.Stage{
		models.StageWIP,
		models.StageDocsCompleted,
		models.StageSubmitted,
		models.StageFOL,
		models.StageDisbursed,
		models.StageClosed,
	}
	for _, stage := range sequence {
		p, err := svc.ChangeStage(actor, project.ID, stage, nil)
		if err != nil {
			t.Fatalf("advance to %s: %v", stage, err)
		}
		if p.Stage != stage {
			t.Fatalf("stage = %s, expected %s", p.Stage, stage)
		}
	}

	var final models.Project
	db.First(&final, project.ID)
	for _, check := range []struct {
		name string
		ts   *time.Time
	}{
		{"wip_started_at", final.WIPStartedAt},
		{"docs_completed_at", final.DocsCompletedAt},
		{"submitted_at", final.SubmittedAt},
		{"fol_at", final.FOLAt},
		{"disbursed_at", final.DisbursedAt},
		{"closed_at", final.ClosedAt},
	} {
		if check.ts == nil {
			t.Errorf("%s not stamped", check.name)
		}
	}
	if final.Status != models.StatusDisbursed {
		t.Errorf("status = %s, expected disbursed after disbursement", final.Status)
	}
	if n := auditCount(t, db, project.ID, models.ActionStageChange); n != int64(len(sequence)) {
		t.Errorf("stage_change audit entries = %d, expected %d", n, len(sequence))
	}
}

func TestChangeStage_RejectsSkipping(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, func(p *models.Project) {
		p.Stage = models.StageWIP
	})
	svc := NewLifecycleService(db)

	_, err := svc.ChangeStage(actorFor(agent), project.ID, models.StageSubmitted, nil)
	assertAppCode(t, err, response.CodeInvalidTransition)

	// The project is untouched after the rejected jump.
	var p models.Project
	db.First(&p, project.ID)
	if p.Stage != models.StageWIP {
		t.Errorf("stage = %s, expected wip", p.Stage)
	}
}

func TestChangeStage_RejectsBackward(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, func(p *models.Project) {
		p.Stage = models.StageSubmitted
	})
	svc := NewLifecycleService(db)

	for _, target := range []models.Stage{models.StageNew, models.StageWIP, models.StageSubmitted} {
		_, err := svc.ChangeStage(actorFor(agent), project.ID, target, nil)
		assertAppCode(t, err, response.CodeInvalidTransition)
	}
}

func TestChangeStage_RejectsClosedFromEarlyStages(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	svc := NewLifecycleService(db)

	for i, stage := range []models.Stage{models.StageNew, models.StageWIP, models.StageSubmitted, models.StageFOL} {
		project := seedProject(t, db, "MM-000"+string(rune('1'+i)), agent.ID, func(p *models.Project) {
			p.Stage = stage
		})
		_, err := svc.ChangeStage(actorFor(agent), project.ID, models.StageClosed, nil)
		assertAppCode(t, err, response.CodeInvalidTransition)
	}
}

func TestChangeStage_DisbursedToClosed(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	project := seedProject(t, db, "MM-0001", admin.ID, func(p *models.Project) {
		p.Stage = models.StageDisbursed
		p.Status = models.StatusDisbursed
	})
	svc := NewLifecycleService(db)

	p, err := svc.ChangeStage(actorFor(admin), project.ID, models.StageClosed,
		&StageMetadata{ClosedOutcome: models.OutcomeDisbursed})
	if err != nil {
		t.Fatalf("disbursed → closed: %v", err)
	}
	if p.Stage != models.StageClosed {
		t.Errorf("stage = %s, expected closed", p.Stage)
	}
	if p.ClosedOutcome != models.OutcomeDisbursed {
		t.Errorf("closed outcome = %s, expected disbursed", p.ClosedOutcome)
	}
	if p.ClosedAt == nil {
		t.Error("closed_at not stamped")
	}
}

func TestChangeStage_MilestoneNotRestamped(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	preset := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	project := seedProject(t, db, "MM-0001", agent.ID, func(p *models.Project) {
		p.WIPStartedAt = &preset
	})
	svc := NewLifecycleService(db)

	p, err := svc.ChangeStage(actorFor(agent), project.ID, models.StageWIP, nil)
	if err != nil {
		t.Fatalf("advance to wip: %v", err)
	}
	if p.WIPStartedAt == nil || !p.WIPStartedAt.Equal(preset) {
		t.Errorf("wip_started_at overwritten: got %v, expected %v", p.WIPStartedAt, preset)
	}
}

func TestChangeStage_BlockedWhileOnHold(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, func(p *models.Project) {
		p.Stage = models.StageWIP
		p.Status = models.StatusOnHold
	})
	svc := NewLifecycleService(db)

	_, err := svc.ChangeStage(actorFor(agent), project.ID, models.StageDocsCompleted, nil)
	assertAppCode(t, err, response.CodeInvalidState)
}

func TestChangeStage_AgentCannotTouchOthersProject(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", models.RoleAgent, nil)
	other := seedUser(t, db, "other", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", owner.ID, nil)
	svc := NewLifecycleService(db)

	_, err := svc.ChangeStage(actorFor(other), project.ID, models.StageWIP, nil)
	assertAppCode(t, err, response.CodeForbidden)
}

func TestChangeStage_ViewerForbidden(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	viewer := seedUser(t, db, "viewer1", models.RoleViewer, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, nil)
	svc := NewLifecycleService(db)

	_, err := svc.ChangeStage(actorFor(viewer), project.ID, models.StageWIP, nil)
	assertAppCode(t, err, response.CodeForbidden)
}

func TestChangeStage_FOLNotesRecorded(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, func(p *models.Project) {
		p.Stage = models.StageSubmitted
	})
	svc := NewLifecycleService(db)

	p, err := svc.ChangeStage(actorFor(agent), project.ID, models.StageFOL,
		&StageMetadata{FOLNotes: "offer at 3.99% fixed 3y"})
	if err != nil {
		t.Fatalf("advance to fol: %v", err)
	}
	if p.FOLNotes != "offer at 3.99% fixed 3y" {
		t.Errorf("fol notes = %q", p.FOLNotes)
	}
}

func TestChangeStatus_OnHoldRequiresReason(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, nil)
	svc := NewLifecycleService(db)

	_, err := svc.ChangeStatus(actorFor(agent), project.ID, models.StatusOnHold, "")
	assertAppCode(t, err, response.CodeValidation)

	p, err := svc.ChangeStatus(actorFor(agent), project.ID, models.StatusOnHold, "awaiting salary transfer letter")
	if err != nil {
		t.Fatalf("put on hold: %v", err)
	}
	if p.OnHoldReason == "" || p.OnHoldAt == nil {
		t.Error("hold reason/timestamp not recorded")
	}
}

func TestChangeStatus_ResumeAccruesPausedDays(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	svc := NewLifecycleService(db)

	cases := []struct {
		held time.Duration
		want int
	}{
		{36 * time.Hour, 2}, // 1.5 days rounds up
		{6 * time.Hour, 0},  // under half a day rounds down
		{49 * time.Hour, 2},
	}
	for i, tc := range cases {
		heldSince := time.Now().Add(-tc.held)
		project := seedProject(t, db, "MM-000"+string(rune('1'+i)), agent.ID, func(p *models.Project) {
			p.Status = models.StatusOnHold
			p.OnHoldReason = "bank query"
			p.OnHoldAt = &heldSince
		})

		p, err := svc.ChangeStatus(actorFor(agent), project.ID, models.StatusActive, "")
		if err != nil {
			t.Fatalf("resume after %v: %v", tc.held, err)
		}
		if p.PausedDays != tc.want {
			t.Errorf("held %v: paused_days = %d, expected %d", tc.held, p.PausedDays, tc.want)
		}
		if p.OnHoldReason != "" || p.OnHoldAt != nil {
			t.Errorf("held %v: hold fields not cleared", tc.held)
		}
	}
}

func TestChangeStatus_DisbursedIsTerminal(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	project := seedProject(t, db, "MM-0001", admin.ID, func(p *models.Project) {
		p.Stage = models.StageDisbursed
		p.Status = models.StatusDisbursed
	})
	svc := NewLifecycleService(db)

	for _, target := range []models.Status{models.StatusOpen, models.StatusActive, models.StatusOnHold} {
		_, err := svc.ChangeStatus(actorFor(admin), project.ID, target, "reason")
		assertAppCode(t, err, response.CodeInvalidState)
	}
}

func TestUpdateMilestones_AdminOnly(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, nil)
	svc := NewLifecycleService(db)

	ts := time.Now()
	_, err := svc.UpdateMilestones(actorFor(agent), project.ID, &MilestoneUpdate{WIPStartedAt: &ts})
	assertAppCode(t, err, response.CodeForbidden)
}

func TestUpdateMilestones_ChronologyEnforced(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	project := seedProject(t, db, "MM-0001", admin.ID, nil)
	svc := NewLifecycleService(db)

	wip := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	submitted := wip.Add(-48 * time.Hour) // before wip
	_, err := svc.UpdateMilestones(actorFor(admin), project.ID, &MilestoneUpdate{
		WIPStartedAt: &wip,
		SubmittedAt:  &submitted,
	})
	assertAppCode(t, err, response.CodeValidation)
}

func TestUpdateMilestones_OrderHoldsAcrossUnsetMilestones(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	disbursed := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	project := seedProject(t, db, "MM-0001", admin.ID, func(p *models.Project) {
		p.DisbursedAt = &disbursed
	})
	svc := NewLifecycleService(db)

	// Everything between wip and disbursed is unset; the proposed wip still
	// has to precede the recorded disbursement.
	wip := disbursed.Add(24 * time.Hour)
	_, err := svc.UpdateMilestones(actorFor(admin), project.ID, &MilestoneUpdate{WIPStartedAt: &wip})
	assertAppCode(t, err, response.CodeValidation)

	wip = disbursed.Add(-30 * 24 * time.Hour)
	if _, err := svc.UpdateMilestones(actorFor(admin), project.ID, &MilestoneUpdate{WIPStartedAt: &wip}); err != nil {
		t.Fatalf("valid correction: %v", err)
	}
}

func TestUpdateMilestones_MergesWithExisting(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	existing := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	project := seedProject(t, db, "MM-0001", admin.ID, func(p *models.Project) {
		p.SubmittedAt = &existing
	})
	svc := NewLifecycleService(db)

	// Proposed wip after the already-recorded submission must be rejected.
	wip := existing.Add(24 * time.Hour)
	_, err := svc.UpdateMilestones(actorFor(admin), project.ID, &MilestoneUpdate{WIPStartedAt: &wip})
	assertAppCode(t, err, response.CodeValidation)

	// A consistent correction goes through and is audited.
	wip = existing.Add(-72 * time.Hour)
	p, err := svc.UpdateMilestones(actorFor(admin), project.ID, &MilestoneUpdate{WIPStartedAt: &wip})
	if err != nil {
		t.Fatalf("valid correction: %v", err)
	}
	if p.WIPStartedAt == nil || !p.WIPStartedAt.Equal(wip) {
		t.Errorf("wip_started_at = %v, expected %v", p.WIPStartedAt, wip)
	}
	if n := auditCount(t, db, project.ID, models.ActionMilestoneEdit); n != 1 {
		t.Errorf("milestone_edit audit entries = %d, expected 1", n)
	}
}
