package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/middleware"
	"github.com/mortgagemate/backend/internal/services"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type BankHandler struct {
	bankService *services.BankService
}

func NewBankHandler(db *gorm.DB) *BankHandler {
	return &BankHandler{bankService: services.NewBankService(db)}
}

// List returns all banks
// GET /api/banks
func (h *BankHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	banks, err := h.bankService.List(middleware.GetActor(c), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, banks)
}

// GetByID returns a bank by ID
// GET /api/banks/:id
func (h *BankHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	bank, err := h.bankService.GetByID(middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, bank)
}

// Create adds a bank
// POST /api/banks
func (h *BankHandler) Create(c *gin.Context) {
	var req services.BankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	bank, err := h.bankService.Create(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bank)
}

// Update edits a bank
// PUT /api/banks/:id
func (h *BankHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req services.BankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	bank, err := h.bankService.Update(middleware.GetActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, bank)
}

// Delete soft-deletes a bank
// DELETE /api/banks/:id
func (h *BankHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.bankService.Delete(middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "bank deleted successfully"})
}
