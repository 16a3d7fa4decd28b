package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/middleware"
	"github.com/mortgagemate/backend/internal/services"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type AuditLogHandler struct {
	auditService *services.AuditLogService
}

func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{auditService: services.NewAuditLogService(db)}
}

// List returns paginated audit entries
// GET /api/audit-logs
func (h *AuditLogHandler) List(c *gin.Context) {
	var req services.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.auditService.List(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// ProjectActivity returns the activity feed for one project
// GET /api/projects/:id/activity
func (h *AuditLogHandler) ProjectActivity(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	logs, err := h.auditService.ProjectActivity(middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, logs)
}
