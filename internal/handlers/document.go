package handlers

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/config"
	"github.com/mortgagemate/backend/internal/middleware"
	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/internal/services"
	"github.com/mortgagemate/backend/internal/storage"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

type DocumentHandler struct {
	documentService *services.DocumentService
	projectService  *services.ProjectService
	store           storage.Storage
	maxUploadBytes  int64
}

func NewDocumentHandler(db *gorm.DB, store storage.Storage, queue services.TaskQueue, cfg *config.StorageConfig) *DocumentHandler {
	return &DocumentHandler{
		documentService: services.NewDocumentService(db, store, queue),
		projectService:  services.NewProjectService(db, queue),
		store:           store,
		maxUploadBytes:  cfg.MaxUploadMB << 20,
	}
}

// Upload stores a file and records it against a checklist slot
// POST /api/projects/:id/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	projectID, ok := paramID(c)
	if !ok {
		return
	}

	code := c.PostForm("code")
	if code == "" {
		response.BadRequest(c, "document code is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		response.BadRequest(c, fmt.Sprintf("file exceeds the %dMB upload limit", h.maxUploadBytes>>20))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	defer f.Close()

	fileID, err := h.store.Save(f, fileHeader.Filename)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	doc, err := h.documentService.RecordUpload(middleware.GetActor(c), projectID, &services.UploadInput{
		Code:        code,
		Label:       c.PostForm("label"),
		Section:     models.Section(c.PostForm("section")),
		FileID:      fileID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		// The record was rejected; drop the stored blob again.
		h.store.Delete(fileID)
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Download streams a stored file
// GET /api/projects/:id/documents/files/:fileId
func (h *DocumentHandler) Download(c *gin.Context) {
	projectID, ok := paramID(c)
	if !ok {
		return
	}

	// Visibility follows the project.
	if _, err := h.projectService.GetByID(middleware.GetActor(c), projectID); err != nil {
		response.Error(c, err)
		return
	}

	fileID := c.Param("fileId")
	rc, err := h.store.Open(fileID)
	if err != nil {
		response.NotFound(c, "file not found")
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", "attachment")
	c.Status(200)
	io.Copy(c.Writer, rc)
}

// List returns all documents of a project
// GET /api/projects/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	projectID, ok := paramID(c)
	if !ok {
		return
	}

	docs, err := h.documentService.ListForProject(middleware.GetActor(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, docs)
}

// Progress returns required-slot completion for a project
// GET /api/projects/:id/documents/progress
func (h *DocumentHandler) Progress(c *gin.Context) {
	projectID, ok := paramID(c)
	if !ok {
		return
	}

	progress, err := h.documentService.GetProgress(middleware.GetActor(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, progress)
}

// Checklist returns the slot catalog applicable to a project
// GET /api/projects/:id/documents/checklist
func (h *DocumentHandler) Checklist(c *gin.Context) {
	projectID, ok := paramID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(middleware.GetActor(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, models.EffectiveSlots(project.BorrowerType))
}

// Verify marks a document verified
// POST /api/documents/:id/verify
func (h *DocumentHandler) Verify(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.Verify(middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, doc)
}

// Reject marks a document rejected with a reason
// POST /api/documents/:id/reject
func (h *DocumentHandler) Reject(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	doc, err := h.documentService.Reject(middleware.GetActor(c), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, doc)
}

// RemoveFile detaches one file from a document
// DELETE /api/documents/:id/files/:fileId
func (h *DocumentHandler) RemoveFile(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.RemoveFile(middleware.GetActor(c), id, c.Param("fileId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, doc)
}

// Delete removes a document row and its stored files
// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.documentService.Delete(middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "document deleted successfully"})
}
