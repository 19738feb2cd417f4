package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/services"
)

// Resolve applies the caller's decision for a duplicate upload. Skip mutates
// nothing and is idempotent. Version appends the upload as a new version of
// the existing record. Replace does the same and additionally archives the
// previous version as non-restorable.
func (s *ingestService) Resolve(ctx context.Context, existingID string, req *services.ResolveRequest) (*models.ResolutionOutcome, error) {
	if !req.Resolution.Valid() {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown resolution %q", req.Resolution),
		}
	}

	existing, err := s.docRepo.GetByIDWithVersions(ctx, existingID)
	if err != nil {
		return nil, err
	}
	if existing.IsDeleted {
		return nil, fmt.Errorf("document %s: %w", existingID, domain.ErrNotFound)
	}

	if req.Resolution == models.ResolutionSkip {
		s.logger.Info("duplicate skipped", "existing_id", existingID, "resolved_by", req.ResolvedBy)
		return &models.ResolutionOutcome{Resolution: models.ResolutionSkip}, nil
	}

	if req.Body == nil {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("resolution %q requires the upload content", req.Resolution),
		}
	}

	upload, err := spool(req.Body)
	if err != nil {
		return nil, err
	}
	defer upload.Close()

	// Same serialization as a fresh ingest: the new bytes must not collide
	// with a different active record while we commit.
	unlock := s.hashLocks.Lock(upload.Hash)
	defer unlock()

	if collided, err := s.docRepo.FindActiveByHash(ctx, upload.Hash); err != nil {
		return nil, err
	} else if collided != nil && collided.ID != existing.ID {
		return nil, &domain.ConflictError{
			Message:      "upload content matches a different active record",
			Kind:         domain.ConflictDuplicateContent,
			ResourceType: "document",
			ResourceID:   collided.ID,
		}
	}

	category := existing.Category
	if req.Category != nil {
		category = *req.Category
		if !category.Valid() {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("unknown category %q", category),
				Kind:    domain.ValidationInvalidCategory,
			}
		}
	}

	folderID := existing.FolderID
	if req.FolderID != nil {
		if *req.FolderID == "" {
			folderID = nil
		} else {
			folderID = req.FolderID
		}
	}

	// Re-filing goes through the same category rules as a fresh ingest.
	if req.Category != nil || req.FolderID != nil {
		folderID, err = s.validateFolderRules(ctx, category, folderID, existing.Name, req.ResolvedBy)
		if err != nil {
			return nil, err
		}
	}

	body, err := upload.Reader()
	if err != nil {
		return nil, err
	}
	if err := s.blobs.Save(ctx, upload.Hash, body, upload.Size); err != nil {
		return nil, err
	}

	now := time.Now()
	newVersion := &models.DocumentVersion{
		ID:          uuid.NewString(),
		DocumentID:  existing.ID,
		ContentHash: upload.Hash,
		SizeBytes:   upload.Size,
		StorageKey:  upload.Hash,
		Restorable:  true,
		CreatedBy:   req.ResolvedBy,
		CreatedAt:   now,
	}
	previousVersionID := existing.CurrentVersionID

	updated := *existing
	updated.ContentHash = upload.Hash
	updated.SizeBytes = upload.Size
	updated.CurrentVersionID = newVersion.ID
	updated.Category = category
	updated.FolderID = folderID
	updated.UpdatedAt = now

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.AppendVersion(txCtx, newVersion); err != nil {
			return err
		}
		if req.Resolution == models.ResolutionReplace {
			// The replaced bytes stay in blob storage for audit, but the
			// version is no longer restorable through the API.
			if err := s.docRepo.ArchiveVersion(txCtx, previousVersionID, false); err != nil {
				return err
			}
		}
		return s.docRepo.Update(txCtx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, &updated, func(pubCtx context.Context) error {
		if s.events == nil {
			return nil
		}
		return s.events.DuplicateResolved(pubCtx, &updated, req.Resolution)
	})
	if oldID := existing.FolderID; oldID != nil && !sameFolder(oldID, updated.FolderID) {
		s.invalidateFolderSummaries(ctx, oldID)
	}

	s.logger.Info("duplicate resolved",
		"id", updated.ID,
		"resolution", req.Resolution,
		"content_hash", updated.ContentHash,
		"resolved_by", req.ResolvedBy,
	)

	doc, err := s.docRepo.GetByIDWithVersions(ctx, updated.ID)
	if err != nil {
		return nil, err
	}
	return &models.ResolutionOutcome{Resolution: req.Resolution, Document: doc}, nil
}

func sameFolder(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
