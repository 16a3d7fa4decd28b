package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/middleware"
	"github.com/mortgagemate/backend/internal/services"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type ReferralHandler struct {
	referralService *services.ReferralService
}

func NewReferralHandler(db *gorm.DB) *ReferralHandler {
	return &ReferralHandler{referralService: services.NewReferralService(db)}
}

// List returns all referral companies
// GET /api/referral-companies
func (h *ReferralHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	companies, err := h.referralService.List(middleware.GetActor(c), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, companies)
}

// GetByID returns a referral company by ID
// GET /api/referral-companies/:id
func (h *ReferralHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	company, err := h.referralService.GetByID(middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, company)
}

// Create adds a referral company
// POST /api/referral-companies
func (h *ReferralHandler) Create(c *gin.Context) {
	var req services.ReferralCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	company, err := h.referralService.Create(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, company)
}

// Update edits a referral company
// PUT /api/referral-companies/:id
func (h *ReferralHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req services.ReferralCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	company, err := h.referralService.Update(middleware.GetActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, company)
}

// Delete soft-deletes a referral company
// DELETE /api/referral-companies/:id
func (h *ReferralHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.referralService.Delete(middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "referral company deleted successfully"})
}
