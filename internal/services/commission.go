package services

import (
	"errors"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

// Pure commission arithmetic. Rates are percentages. These carry no
// authorization and no side effects; callers that persist results enforce
// both.

// ExpectedCommission is the gross commission the bank pays on a loan.
func ExpectedCommission(loanAmount, bankRate float64) float64 {
	return loanAmount * bankRate / 100
}

// AgentShare is the agent's cut of a commission amount.
func AgentShare(commissionAmount, agentRate float64) float64 {
	return commissionAmount * agentRate / 100
}

// ReferralShare is the referral company's cut of a commission amount.
func ReferralShare(commissionAmount, referralRate float64) float64 {
	return commissionAmount * referralRate / 100
}

// CommissionSplit is one full breakdown of a commission amount.
type CommissionSplit struct {
	Gross         float64 `json:"gross"`
	AgentShare    float64 `json:"agent_share"`
	ReferralShare float64 `json:"referral_share"`
}

// SplitFor computes the split of a gross amount using a project's rates.
func SplitFor(p *models.Project, gross float64) CommissionSplit {
	return CommissionSplit{
		Gross:         gross,
		AgentShare:    AgentShare(gross, p.AgentRate),
		ReferralShare: ReferralShare(gross, p.ReferralRate),
	}
}

// Breakdown pairs the projective (expected) split with the actual one once a
// final commission has been entered.
type Breakdown struct {
	Expected CommissionSplit  `json:"expected"`
	Final    *CommissionSplit `json:"final,omitempty"`
}

// BreakdownFor computes both splits for a project.
func BreakdownFor(p *models.Project) Breakdown {
	b := Breakdown{
		Expected: SplitFor(p, ExpectedCommission(p.LoanAmount, p.BankRate)),
	}
	if p.FinalCommission != nil {
		final := SplitFor(p, *p.FinalCommission)
		b.Final = &final
	}
	return b
}

// CommissionService persists override rates and the final amount.
type CommissionService struct {
	db *gorm.DB
}

func NewCommissionService(db *gorm.DB) *CommissionService {
	return &CommissionService{db: db}
}

// CommissionUpdate carries admin edits; nil fields are left untouched.
type CommissionUpdate struct {
	BankRate        *float64 `json:"bank_rate"`
	AgentRate       *float64 `json:"agent_rate"`
	ReferralRate    *float64 `json:"referral_rate"`
	FinalCommission *float64 `json:"final_commission"`
}

// UpdateCommission writes override rates / the final amount, admin-only, and
// records which fields changed.
func (s *CommissionService) UpdateCommission(actor Actor, projectID uint, upd *CommissionUpdate) (*models.Project, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	for _, r := range []*float64{upd.BankRate, upd.AgentRate, upd.ReferralRate} {
		if r != nil && (*r < 0 || *r > 100) {
			return nil, response.NewValidation("commission rates must be between 0 and 100")
		}
	}
	if upd.FinalCommission != nil && *upd.FinalCommission < 0 {
		return nil, response.NewValidation("final commission must not be negative")
	}

	var result *models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		var fields []string
		if upd.BankRate != nil {
			project.BankRate = *upd.BankRate
			fields = append(fields, "bank_rate")
		}
		if upd.AgentRate != nil {
			project.AgentRate = *upd.AgentRate
			fields = append(fields, "agent_rate")
		}
		if upd.ReferralRate != nil {
			project.ReferralRate = *upd.ReferralRate
			fields = append(fields, "referral_rate")
		}
		if upd.FinalCommission != nil {
			project.FinalCommission = upd.FinalCommission
			fields = append(fields, "final_commission")
		}
		if len(fields) == 0 {
			return response.NewValidation("no commission fields provided")
		}

		if err := tx.Save(project).Error; err != nil {
			return err
		}
		if err := recordAudit(tx, &project.ID, models.ActionCommissionEdit, actor.UserID,
			CommissionEditPayload{Fields: fields}); err != nil {
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

// GetBreakdown returns the commission breakdown for a project, respecting
// agent row-level visibility.
func (s *CommissionService) GetBreakdown(actor Actor, projectID uint) (*Breakdown, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	if !CanReadProject(actor, &project) {
		return nil, response.NewForbidden("no access to this project")
	}

	b := BreakdownFor(&project)
	return &b, nil
}
