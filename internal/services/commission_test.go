package services

import (
	"math"
	"testing"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCommissionArithmetic(t *testing.T) {
	// 2,000,000 loan at 1.5% bank rate yields 30,000 gross.
	gross := ExpectedCommission(2_000_000, 1.5)
	if !almostEqual(gross, 30_000) {
		t.Errorf("expected commission = %v, expected 30000", gross)
	}
	if got := AgentShare(gross, 70); !almostEqual(got, 21_000) {
		t.Errorf("agent share = %v, expected 21000", got)
	}
	if got := ReferralShare(gross, 20); !almostEqual(got, 6_000) {
		t.Errorf("referral share = %v, expected 6000", got)
	}
}

func TestBreakdownFor(t *testing.T) {
	p := &models.Project{
		LoanAmount:   2_000_000,
		BankRate:     1.5,
		AgentRate:    70,
		ReferralRate: 20,
	}

	b := BreakdownFor(p)
	if !almostEqual(b.Expected.Gross, 30_000) {
		t.Errorf("expected gross = %v", b.Expected.Gross)
	}
	if b.Final != nil {
		t.Error("final breakdown should be nil before a final commission is entered")
	}

	final := 28_500.0
	p.FinalCommission = &final
	b = BreakdownFor(p)
	if b.Final == nil {
		t.Fatal("final breakdown missing")
	}
	if !almostEqual(b.Final.Gross, 28_500) {
		t.Errorf("final gross = %v, expected 28500", b.Final.Gross)
	}
	if !almostEqual(b.Final.AgentShare, 19_950) {
		t.Errorf("final agent share = %v, expected 19950", b.Final.AgentShare)
	}
}

func TestUpdateCommission_AdminOnly(t *testing.T) {
	db := openTestDB(t)
	agent := seedUser(t, db, "agent1", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", agent.ID, nil)
	svc := NewCommissionService(db)

	rate := 2.0
	_, err := svc.UpdateCommission(actorFor(agent), project.ID, &CommissionUpdate{BankRate: &rate})
	assertAppCode(t, err, response.CodeForbidden)
}

func TestUpdateCommission_ValidatesRates(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	project := seedProject(t, db, "MM-0001", admin.ID, nil)
	svc := NewCommissionService(db)

	bad := 120.0
	_, err := svc.UpdateCommission(actorFor(admin), project.ID, &CommissionUpdate{AgentRate: &bad})
	assertAppCode(t, err, response.CodeValidation)

	negative := -1.0
	_, err = svc.UpdateCommission(actorFor(admin), project.ID, &CommissionUpdate{FinalCommission: &negative})
	assertAppCode(t, err, response.CodeValidation)

	_, err = svc.UpdateCommission(actorFor(admin), project.ID, &CommissionUpdate{})
	assertAppCode(t, err, response.CodeValidation)
}

func TestUpdateCommission_WritesAndAudits(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin, nil)
	project := seedProject(t, db, "MM-0001", admin.ID, nil)
	svc := NewCommissionService(db)

	rate := 1.75
	final := 31_000.0
	p, err := svc.UpdateCommission(actorFor(admin), project.ID, &CommissionUpdate{
		BankRate:        &rate,
		FinalCommission: &final,
	})
	if err != nil {
		t.Fatalf("update commission: %v", err)
	}
	if !almostEqual(p.BankRate, 1.75) {
		t.Errorf("bank rate = %v, expected 1.75", p.BankRate)
	}
	if p.FinalCommission == nil || !almostEqual(*p.FinalCommission, 31_000) {
		t.Errorf("final commission = %v, expected 31000", p.FinalCommission)
	}
	if n := auditCount(t, db, project.ID, models.ActionCommissionEdit); n != 1 {
		t.Errorf("commission_edit audit entries = %d, expected 1", n)
	}
}

func TestGetBreakdown_AgentVisibility(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", models.RoleAgent, nil)
	other := seedUser(t, db, "other", models.RoleAgent, nil)
	project := seedProject(t, db, "MM-0001", owner.ID, nil)
	svc := NewCommissionService(db)

	if _, err := svc.GetBreakdown(actorFor(owner), project.ID); err != nil {
		t.Fatalf("owner breakdown: %v", err)
	}
	_, err := svc.GetBreakdown(actorFor(other), project.ID)
	assertAppCode(t, err, response.CodeForbidden)
}
