package services

import (
	"github.com/mortgagemate/backend/internal/models"
	"github.com/rickar/cal/v2"
	"gorm.io/gorm"
)

// MetricsService aggregates the pipeline dashboard: stage and status
// distribution, commission totals and disbursement cycle times. Agents see
// their own book; admins and viewers see the whole pipeline.
type MetricsService struct {
	db       *gorm.DB
	calendar *cal.BusinessCalendar
}

func NewMetricsService(db *gorm.DB) *MetricsService {
	// Monday-Friday workweek, no public holidays. Cycle times are an
	// internal benchmark, so bank-specific closure days are ignored.
	c := cal.NewBusinessCalendar()
	c.Name = "brokerage"
	return &MetricsService{db: db, calendar: c}
}

type StageCount struct {
	Stage models.Stage `json:"stage"`
	Count int64        `json:"count"`
}

type StatusCount struct {
	Status models.Status `json:"status"`
	Count  int64         `json:"count"`
}

type CommissionTotals struct {
	PipelineLoanVolume float64 `json:"pipeline_loan_volume"`
	ExpectedCommission float64 `json:"expected_commission"`
	FinalCommission    float64 `json:"final_commission"`
	DisbursedCount     int64   `json:"disbursed_count"`
}

type CycleTimes struct {
	// Calendar days from creation to disbursement, net of time on hold,
	// averaged over disbursed projects.
	AvgCalendarDays float64 `json:"avg_calendar_days"`
	// Same span counted in business days (weekends excluded).
	AvgBusinessDays float64 `json:"avg_business_days"`
	SampleSize      int64   `json:"sample_size"`
}

type DashboardResponse struct {
	StageCounts  []StageCount     `json:"stage_counts"`
	StatusCounts []StatusCount    `json:"status_counts"`
	Commission   CommissionTotals `json:"commission"`
	CycleTimes   CycleTimes       `json:"cycle_times"`
}

func (s *MetricsService) GetDashboard(actor Actor) (*DashboardResponse, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent, models.RoleViewer); err != nil {
		return nil, err
	}

	resp := &DashboardResponse{}

	// Every bucket appears even when empty so the dashboard axes are stable.
	for _, stage := range models.StageOrder {
		var count int64
		if err := agentScope(actor, s.db.Model(&models.Project{})).
			Where("stage = ?", stage).Count(&count).Error; err != nil {
			return nil, err
		}
		resp.StageCounts = append(resp.StageCounts, StageCount{Stage: stage, Count: count})
	}

	for _, status := range []models.Status{
		models.StatusOpen, models.StatusActive, models.StatusOnHold, models.StatusDisbursed,
	} {
		var count int64
		if err := agentScope(actor, s.db.Model(&models.Project{})).
			Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, err
		}
		resp.StatusCounts = append(resp.StatusCounts, StatusCount{Status: status, Count: count})
	}

	totals, err := s.commissionTotals(actor)
	if err != nil {
		return nil, err
	}
	resp.Commission = *totals

	cycles, err := s.cycleTimes(actor)
	if err != nil {
		return nil, err
	}
	resp.CycleTimes = *cycles

	return resp, nil
}

func (s *MetricsService) commissionTotals(actor Actor) (*CommissionTotals, error) {
	var projects []models.Project
	if err := agentScope(actor, s.db.Model(&models.Project{})).
		Where("stage != ?", models.StageClosed).Find(&projects).Error; err != nil {
		return nil, err
	}

	totals := &CommissionTotals{}
	for _, p := range projects {
		totals.PipelineLoanVolume += p.LoanAmount
		totals.ExpectedCommission += ExpectedCommission(p.LoanAmount, p.BankRate)
		if p.DisbursedAt != nil {
			totals.DisbursedCount++
			if p.FinalCommission != nil {
				totals.FinalCommission += *p.FinalCommission
			}
		}
	}
	return totals, nil
}

func (s *MetricsService) cycleTimes(actor Actor) (*CycleTimes, error) {
	var projects []models.Project
	if err := agentScope(actor, s.db.Model(&models.Project{})).
		Where("disbursed_at IS NOT NULL").Find(&projects).Error; err != nil {
		return nil, err
	}

	ct := &CycleTimes{}
	if len(projects) == 0 {
		return ct, nil
	}

	var calendarSum, businessSum float64
	for _, p := range projects {
		days := p.DisbursedAt.Sub(p.CreatedAt).Hours()/24 - float64(p.PausedDays)
		if days < 0 {
			days = 0
		}
		calendarSum += days

		business := s.calendar.WorkdaysInRange(p.CreatedAt, *p.DisbursedAt) - businessDaysPaused(p.PausedDays)
		if business < 0 {
			business = 0
		}
		businessSum += float64(business)
	}

	ct.SampleSize = int64(len(projects))
	ct.AvgCalendarDays = calendarSum / float64(len(projects))
	ct.AvgBusinessDays = businessSum / float64(len(projects))
	return ct, nil
}

// businessDaysPaused approximates hold time in business days at a 5/7 ratio,
// since only whole paused calendar days are recorded.
func businessDaysPaused(pausedDays int) int {
	return pausedDays * 5 / 7
}
