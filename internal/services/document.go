package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/internal/storage"
	"github.com/mortgagemate/backend/pkg/response"
	"gorm.io/gorm"
)

// DocumentService is the checklist engine: it records uploads against
// checklist slots, handles verification, and drives the docs-completed
// auto-advance when the last required slot is satisfied.
type DocumentService struct {
	db    *gorm.DB
	store storage.Storage
	queue TaskQueue
}

func NewDocumentService(db *gorm.DB, store storage.Storage, queue TaskQueue) *DocumentService {
	return &DocumentService{db: db, store: store, queue: queue}
}

// UploadInput describes one uploaded file for a checklist slot. Code may be
// a catalog slot code or an ad-hoc code for "other" documents, in which case
// Label names the document.
type UploadInput struct {
	Code        string
	Label       string
	Section     models.Section
	FileID      string
	Filename    string
	ContentType string
}

// RecordUpload creates or extends the document row for (project, code) and
// runs the completion check. The file itself is already in blob storage;
// this only records the reference.
func (s *DocumentService) RecordUpload(actor Actor, projectID uint, in *UploadInput) (*models.Document, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent); err != nil {
		return nil, err
	}
	if in.Code == "" || in.FileID == "" || in.Filename == "" {
		return nil, response.NewValidation("document code, file reference and filename are required")
	}

	// Catalog slots are authoritative for section/label and may constrain
	// the accepted file types. Non-catalog codes land in "other".
	section := in.Section
	label := in.Label
	if slot, ok := models.FindSlot(in.Code); ok {
		section = slot.Section
		label = slot.Label
		if len(slot.AllowedMIMEs) > 0 && in.ContentType != "" && !containsString(slot.AllowedMIMEs, in.ContentType) {
			return nil, response.NewValidation(fmt.Sprintf("file type %q not allowed for %s", in.ContentType, slot.Label))
		}
	} else {
		if section == "" || !section.Valid() {
			section = models.SectionOther
		}
		if label == "" {
			label = in.Code
		}
	}

	var result *models.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := RequireProjectMutate(actor, project); err != nil {
			return err
		}

		var doc models.Document
		err = tx.Where("project_id = ? AND code = ?", projectID, in.Code).First(&doc).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			uploader := actor.UserID
			doc = models.Document{
				ProjectID:  projectID,
				Code:       in.Code,
				Label:      label,
				Section:    section,
				FileIDs:    []string{in.FileID},
				Filenames:  []string{in.Filename},
				Status:     models.DocUploaded,
				UploadedBy: &uploader,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			uploader := actor.UserID
			doc.FileIDs = append(doc.FileIDs, in.FileID)
			doc.Filenames = append(doc.Filenames, in.Filename)
			doc.Status = models.DocUploaded
			doc.RejectionReason = ""
			doc.UploadedBy = &uploader
			if err := tx.Save(&doc).Error; err != nil {
				return err
			}
		}

		if err := recordAudit(tx, &projectID, models.ActionDocUpload, actor.UserID,
			DocumentPayload{Code: in.Code, Filename: in.Filename}); err != nil {
			return err
		}
		if err := s.completionCheck(tx, project, actor.UserID); err != nil {
			return err
		}

		result = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Verify marks a document verified and re-runs the completion check.
// Verification is a back-office/supervisor task, so viewers may do it.
func (s *DocumentService) Verify(actor Actor, documentID uint) (*models.Document, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleViewer); err != nil {
		return nil, err
	}

	var result *models.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("document not found")
			}
			return err
		}

		project, err := lockProject(tx, doc.ProjectID)
		if err != nil {
			return err
		}

		verifier := actor.UserID
		doc.Status = models.DocVerified
		doc.RejectionReason = ""
		doc.VerifiedBy = &verifier
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}

		if err := recordAudit(tx, &doc.ProjectID, models.ActionDocVerify, actor.UserID,
			DocumentPayload{Code: doc.Code}); err != nil {
			return err
		}
		if err := s.completionCheck(tx, project, actor.UserID); err != nil {
			return err
		}

		result = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reject marks a document rejected with a mandatory reason.
func (s *DocumentService) Reject(actor Actor, documentID uint, reason string) (*models.Document, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleViewer); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, response.NewValidation("a reason is required to reject a document")
	}

	var result *models.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("document not found")
			}
			return err
		}

		verifier := actor.UserID
		doc.Status = models.DocRejected
		doc.RejectionReason = reason
		doc.VerifiedBy = &verifier
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}

		if err := recordAudit(tx, &doc.ProjectID, models.ActionDocReject, actor.UserID,
			DocumentPayload{Code: doc.Code, Reason: reason}); err != nil {
			return err
		}

		result = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveFile drops one (fileID, filename) pair from a document and deletes
// the stored file. Removing the last file resets the slot to missing.
func (s *DocumentService) RemoveFile(actor Actor, documentID uint, fileID string) (*models.Document, error) {
	if err := RequireRole(actor, models.RoleAdmin, models.RoleAgent); err != nil {
		return nil, err
	}

	var result *models.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("document not found")
			}
			return err
		}

		project, err := lockProject(tx, doc.ProjectID)
		if err != nil {
			return err
		}
		if err := RequireProjectMutate(actor, project); err != nil {
			return err
		}

		idx := -1
		for i, id := range doc.FileIDs {
			if id == fileID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return response.NewNotFound("file not attached to this document")
		}

		removed := doc.Filenames[idx]
		doc.FileIDs = append(doc.FileIDs[:idx], doc.FileIDs[idx+1:]...)
		doc.Filenames = append(doc.Filenames[:idx], doc.Filenames[idx+1:]...)
		if len(doc.FileIDs) == 0 {
			doc.FileIDs = []string{}
			doc.Filenames = []string{}
			doc.Status = models.DocMissing
		}
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}

		if err := s.store.Delete(fileID); err != nil {
			return err
		}

		if err := recordAudit(tx, &doc.ProjectID, models.ActionDocFileRemove, actor.UserID,
			DocumentPayload{Code: doc.Code, FileID: fileID, Filename: removed}); err != nil {
			return err
		}

		result = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete hard-deletes a document row and queues deletion of its stored files.
func (s *DocumentService) Delete(actor Actor, documentID uint) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	var fileIDs []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("document not found")
			}
			return err
		}

		fileIDs = doc.FileIDs
		if err := tx.Unscoped().Delete(&doc).Error; err != nil {
			return err
		}
		return recordAudit(tx, &doc.ProjectID, models.ActionDocDelete, actor.UserID,
			DocumentPayload{Code: doc.Code})
	})
	if err != nil {
		return err
	}

	if len(fileIDs) > 0 {
		if err := s.queue.Enqueue(&CleanupTask{FileIDs: fileIDs}); err != nil {
			// The row is gone either way; orphaned blobs are retried by the
			// next cleanup task, so log-and-continue is enough here.
			return nil
		}
	}
	return nil
}

// ListForProject returns a project's documents, ownership-filtered for agents.
func (s *DocumentService) ListForProject(actor Actor, projectID uint) ([]models.Document, error) {
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

	var docs []models.Document
	if err := s.db.Where("project_id = ?", projectID).Order("id ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Progress summarizes required-slot completion for a project.
type Progress struct {
	Uploaded   int `json:"uploaded"`
	Verified   int `json:"verified"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// GetProgress reports checklist progress over required slots only; optional
// and ad-hoc documents never move the percentage.
func (s *DocumentService) GetProgress(actor Actor, projectID uint) (*Progress, error) {
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

	var docs []models.Document
	if err := s.db.Where("project_id = ?", projectID).Find(&docs).Error; err != nil {
		return nil, err
	}
	return computeProgress(project.BorrowerType, docs), nil
}

func computeProgress(borrowerType models.BorrowerType, docs []models.Document) *Progress {
	byCode := make(map[string]*models.Document, len(docs))
	for i := range docs {
		byCode[docs[i].Code] = &docs[i]
	}

	p := &Progress{}
	for _, slot := range models.RequiredSlots(borrowerType) {
		p.Total++
		doc, ok := byCode[slot.Code]
		if !ok {
			continue
		}
		switch doc.Status {
		case models.DocUploaded:
			p.Uploaded++
		case models.DocVerified:
			p.Verified++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Uploaded+p.Verified) / float64(p.Total) * 100))
	}
	return p
}

// completionCheck stamps docsCompletedAt once all required slots are
// satisfied, and advances the stage when the project is still in wip. This is
// the only stage advance that bypasses ChangeStage, and it only ever fires
// forward from wip.
func (s *DocumentService) completionCheck(tx *gorm.DB, project *models.Project, performedBy uint) error {
	if project.DocsCompletedAt != nil {
		return nil
	}

	var docs []models.Document
	if err := tx.Where("project_id = ?", project.ID).Find(&docs).Error; err != nil {
		return err
	}

	satisfied := make(map[string]bool, len(docs))
	for i := range docs {
		if docs[i].Satisfied() {
			satisfied[docs[i].Code] = true
		}
	}

	required := models.RequiredSlots(project.BorrowerType)
	done := 0
	for _, slot := range required {
		if satisfied[slot.Code] {
			done++
		}
	}
	if len(required) == 0 || done < len(required) {
		return nil
	}

	now := time.Now()
	project.DocsCompletedAt = &now
	advanced := false
	if project.Stage == models.StageWIP {
		project.Stage = models.StageDocsCompleted
		advanced = true
	}
	if err := tx.Save(project).Error; err != nil {
		return err
	}

	if advanced {
		return recordAudit(tx, &project.ID, models.ActionDocsCompleted, performedBy,
			StageChangePayload{From: models.StageWIP, To: models.StageDocsCompleted})
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
