package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/middleware"
	"github.com/mortgagemate/backend/internal/services"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	metricsService *services.MetricsService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{metricsService: services.NewMetricsService(db)}
}

// GetStats returns the pipeline dashboard
// GET /api/dashboard
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.metricsService.GetDashboard(middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
