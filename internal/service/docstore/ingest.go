package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"arkiv/internal/config"
	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
	"arkiv/internal/domain/services"
)

// ingestService implements the ingestion policy and duplicate resolution.
type ingestService struct {
	docRepo      repositories.DocumentRepository
	folderRepo   repositories.FolderRepository
	workflows    services.WorkflowRegistry
	txManager    repositories.TransactionManager
	blobs        services.BlobStore
	events       services.EventPublisher
	summaryCache SummaryCache
	logger       *slog.Logger

	// hashLocks serializes duplicate lookup and commit per content hash so
	// two concurrent uploads of identical bytes cannot both conclude "no
	// duplicate" and create two records. The partial unique index on active
	// content_hash backstops the invariant at commit time.
	hashLocks *keyedMutex
}

// NewIngestService creates a new ingest service. events and summaryCache may
// be nil when the deployment runs without NATS or Redis.
func NewIngestService(
	docRepo repositories.DocumentRepository,
	folderRepo repositories.FolderRepository,
	workflows services.WorkflowRegistry,
	txManager repositories.TransactionManager,
	blobs services.BlobStore,
	events services.EventPublisher,
	summaryCache SummaryCache,
	logger *slog.Logger,
) services.IngestService {
	return &ingestService{
		docRepo:      docRepo,
		folderRepo:   folderRepo,
		workflows:    workflows,
		txManager:    txManager,
		blobs:        blobs,
		events:       events,
		summaryCache: summaryCache,
		logger:       logger,
		hashLocks:    newKeyedMutex(),
	}
}

// Ingest runs one upload attempt through the pipeline:
// hash -> duplicate lookup -> folder/workflow validation -> commit.
func (s *ingestService) Ingest(ctx context.Context, req *services.IngestRequest) (*models.IngestOutcome, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateName(req.Name, config.MaxDocumentNameLength); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid document name: %v", err)}
	}
	if !req.Category.Valid() {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown category %q", req.Category),
			Kind:    domain.ValidationInvalidCategory,
		}
	}
	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}

	upload, err := spool(req.Body)
	if err != nil {
		return nil, err
	}
	defer upload.Close()

	// Serialize lookup + commit for this hash.
	unlock := s.hashLocks.Lock(upload.Hash)
	defer unlock()

	existing, err := s.docRepo.FindActiveByHash(ctx, upload.Hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Duplicate detection is a normal outcome, not an error, and it
		// mutates nothing. The caller decides via Resolve.
		summary, err := s.summarize(ctx, existing)
		if err != nil {
			return nil, err
		}
		s.logger.Info("duplicate upload detected",
			"content_hash", upload.Hash,
			"existing_id", existing.ID,
		)
		return &models.IngestOutcome{
			State:     models.IngestAwaitingResolution,
			Duplicate: summary,
		}, nil
	}

	folderID, err := s.validateFolderRules(ctx, req.Category, req.FolderID, req.Name, req.UploadedBy)
	if err != nil {
		return nil, err
	}

	doc, err := s.commitNew(ctx, req, upload, folderID)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, doc, func(pubCtx context.Context) error {
		if s.events == nil {
			return nil
		}
		return s.events.DocumentCommitted(pubCtx, doc)
	})

	s.logger.Info("document committed",
		"id", doc.ID,
		"name", doc.Name,
		"category", doc.Category,
		"folder_id", doc.FolderID,
		"content_hash", doc.ContentHash,
		"size_bytes", doc.SizeBytes,
	)

	return &models.IngestOutcome{
		State:     models.IngestCommitted,
		Committed: doc,
	}, nil
}

// validateFolderRules enforces the category's folder/workflow requirements
// and returns the effective folder id, creating a system folder and binding a
// workflow for the initiating category as needed. A lost bind race is retried
// once by re-reading the binding state.
func (s *ingestService) validateFolderRules(ctx context.Context, category models.Category, folderID *string, docName, actor string) (*string, error) {
	switch {
	case category.Initiating():
		if folderID == nil {
			created, err := s.createSystemFolder(ctx, docName, actor)
			if err != nil {
				return nil, err
			}
			folderID = &created.ID
		} else {
			if _, err := s.folderRepo.GetByID(ctx, *folderID); err != nil {
				return nil, fmt.Errorf("target folder: %w", err)
			}
		}

		if err := s.ensureBound(ctx, *folderID, category); err != nil {
			return nil, err
		}
		return folderID, nil

	case category.WorkflowRequiring():
		if folderID == nil {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("category %q requires a target folder", category),
				Kind:    domain.ValidationFolderRequired,
			}
		}
		if _, err := s.folderRepo.GetByID(ctx, *folderID); err != nil {
			return nil, fmt.Errorf("target folder: %w", err)
		}

		bound, err := s.workflows.HasWorkflow(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		if !bound {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("category %q requires a folder with an approval workflow; file a %s first or pick a workflow-bound folder", category, models.CategoryTender),
				Kind:    domain.ValidationFolderWorkflowMissing,
			}
		}
		return folderID, nil

	default:
		if folderID != nil {
			if _, err := s.folderRepo.GetByID(ctx, *folderID); err != nil {
				return nil, fmt.Errorf("target folder: %w", err)
			}
		}
		return folderID, nil
	}
}

// createSystemFolder creates the implicit folder that hosts an initiating
// upload arriving without folder context. System folders cannot be deleted
// through the normal path.
func (s *ingestService) createSystemFolder(ctx context.Context, docName, actor string) (*models.Folder, error) {
	name := docName
	if existing, err := s.folderRepo.GetByNameAndParent(ctx, name, nil); err != nil {
		return nil, err
	} else if existing != nil {
		name = fmt.Sprintf("%s-%s", docName, uuid.NewString()[:8])
	}

	now := time.Now()
	folder := &models.Folder{
		ID:        uuid.NewString(),
		Name:      name,
		IsSystem:  true,
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("system folder created", "id", folder.ID, "name", folder.Name)
	return folder, nil
}

// ensureBound binds a workflow to the folder if it has none. Bind is
// compare-and-set; losing the race means another upload bound the folder a
// moment ago, which satisfies the requirement, so re-read and continue.
func (s *ingestService) ensureBound(ctx context.Context, folderID string, category models.Category) error {
	bound, err := s.workflows.HasWorkflow(ctx, folderID)
	if err != nil {
		return err
	}
	if bound {
		return nil
	}

	if _, err := s.workflows.Bind(ctx, folderID, category); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) && conflict.Kind == domain.ConflictAlreadyBound {
			binding, readErr := s.workflows.GetBinding(ctx, folderID)
			if readErr != nil {
				return readErr
			}
			if binding != nil {
				return nil
			}
		}
		return err
	}
	return nil
}

// commitNew persists the blob and creates the document record with its first
// version in one transaction.
func (s *ingestService) commitNew(ctx context.Context, req *services.IngestRequest, upload *spooledUpload, folderID *string) (*models.Document, error) {
	body, err := upload.Reader()
	if err != nil {
		return nil, err
	}
	// Blob writes are content-addressed and idempotent; an orphaned blob
	// from an aborted transaction is harmless.
	if err := s.blobs.Save(ctx, upload.Hash, body, upload.Size); err != nil {
		return nil, err
	}

	now := time.Now()
	versionID := uuid.NewString()
	doc := &models.Document{
		ID:               uuid.NewString(),
		Name:             req.Name,
		ContentHash:      upload.Hash,
		Category:         req.Category,
		FolderID:         folderID,
		SizeBytes:        upload.Size,
		CurrentVersionID: versionID,
		CreatedBy:        req.UploadedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	version := &models.DocumentVersion{
		ID:          versionID,
		DocumentID:  doc.ID,
		ContentHash: upload.Hash,
		SizeBytes:   upload.Size,
		StorageKey:  upload.Hash,
		Restorable:  true,
		CreatedBy:   req.UploadedBy,
		CreatedAt:   now,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.docRepo.Create(txCtx, doc, version)
	})
	if err != nil {
		return nil, err
	}

	doc.Versions = []models.DocumentVersion{*version}
	return doc, nil
}

// summarize builds the duplicate summary returned to the caller.
func (s *ingestService) summarize(ctx context.Context, doc *models.Document) (*models.ExistingRecordSummary, error) {
	summary := &models.ExistingRecordSummary{
		ID:          doc.ID,
		Name:        doc.Name,
		Category:    doc.Category,
		FolderID:    doc.FolderID,
		SizeBytes:   doc.SizeBytes,
		ContentHash: doc.ContentHash,
		UploadedBy:  doc.CreatedBy,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	if doc.FolderID != nil {
		path, err := s.folderRepo.GetPath(ctx, *doc.FolderID)
		if err != nil {
			s.logger.Warn("failed to compute duplicate folder path", "folder_id", *doc.FolderID, "error", err)
		} else {
			summary.FolderPath = path
		}
	}

	return summary, nil
}

// GetDocument retrieves a record including version history
func (s *ingestService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.docRepo.GetByIDWithVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// OpenContent streams the current version's bytes
func (s *ingestService) OpenContent(ctx context.Context, id string) (io.ReadCloser, *models.Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(ctx, doc.ContentHash)
	if err != nil {
		return nil, nil, err
	}
	return rc, doc, nil
}

// DeleteDocument soft-deletes a record. This is the compensating operation
// for a committed upload; committed effects are never retroactively
// cancelled.
func (s *ingestService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.IsDeleted {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	if err := s.docRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.invalidateFolderSummaries(ctx, doc.FolderID)

	s.logger.Info("document deleted", "id", id, "name", doc.Name)
	return nil
}

// afterMutation runs post-commit side effects: event publishing and summary
// cache invalidation. Both are best-effort and never fail the operation.
func (s *ingestService) afterMutation(ctx context.Context, doc *models.Document, publish func(context.Context) error) {
	if err := publish(ctx); err != nil {
		s.logger.Warn("event publish failed", "document_id", doc.ID, "error", err)
	}
	s.invalidateFolderSummaries(ctx, doc.FolderID)
}

func (s *ingestService) invalidateFolderSummaries(ctx context.Context, folderID *string) {
	if s.summaryCache == nil || folderID == nil {
		return
	}

	chain, err := ancestorIDs(ctx, s.folderRepo, *folderID)
	if err != nil {
		s.logger.Warn("failed to collect ancestor chain for cache invalidation", "folder_id", *folderID, "error", err)
		return
	}
	if err := s.summaryCache.Invalidate(ctx, chain...); err != nil {
		s.logger.Warn("summary cache invalidation failed", "error", err)
	}
}
