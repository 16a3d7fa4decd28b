package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/middleware"
	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/internal/services"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService    *services.ProjectService
	lifecycleService  *services.LifecycleService
	commissionService *services.CommissionService
}

func NewProjectHandler(db *gorm.DB, queue services.TaskQueue) *ProjectHandler {
	return &ProjectHandler{
		projectService:    services.NewProjectService(db, queue),
		lifecycleService:  services.NewLifecycleService(db),
		commissionService: services.NewCommissionService(db),
	}
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// List returns paginated projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.List(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// GetByID returns a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Create creates a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update updates descriptive project fields
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(middleware.GetActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete deletes a project with its documents and files
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "project deleted successfully"})
}

// ChangeStage moves the project to the next lifecycle stage
// POST /api/projects/:id/stage
func (h *ProjectHandler) ChangeStage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Stage         models.Stage         `json:"stage" binding:"required"`
		FOLNotes      string               `json:"fol_notes"`
		ClosedOutcome models.ClosedOutcome `json:"closed_outcome"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.lifecycleService.ChangeStage(middleware.GetActor(c), id, req.Stage,
		&services.StageMetadata{FOLNotes: req.FOLNotes, ClosedOutcome: req.ClosedOutcome})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// ChangeStatus switches the project's operational status
// POST /api/projects/:id/status
func (h *ProjectHandler) ChangeStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Status models.Status `json:"status" binding:"required"`
		Reason string        `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.lifecycleService.ChangeStatus(middleware.GetActor(c), id, req.Status, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// UpdateMilestones applies admin corrections to milestone timestamps
// PUT /api/projects/:id/milestones
func (h *ProjectHandler) UpdateMilestones(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req services.MilestoneUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.lifecycleService.UpdateMilestones(middleware.GetActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// UpdateCommission edits commission rates or the final amount
// PUT /api/projects/:id/commission
func (h *ProjectHandler) UpdateCommission(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req services.CommissionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.commissionService.UpdateCommission(middleware.GetActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// GetCommission returns the commission breakdown
// GET /api/projects/:id/commission
func (h *ProjectHandler) GetCommission(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	breakdown, err := h.commissionService.GetBreakdown(middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, breakdown)
}
