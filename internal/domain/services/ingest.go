package services

import (
	"context"
	"io"

	"arkiv/internal/domain/models"
)

// IngestRequest is one upload attempt.
type IngestRequest struct {
	Name       string
	Category   models.Category
	FolderID   *string
	Body       io.Reader
	UploadedBy string
}

// ResolveRequest is the caller's decision for a duplicate upload. Body is
// required for version/replace, ignored for skip. Category and FolderID
// re-file the record when present and are validated against the same
// folder/workflow rules as a fresh ingest.
type ResolveRequest struct {
	Resolution models.Resolution
	Body       io.Reader
	Category   *models.Category
	FolderID   *string
	ResolvedBy string
}

// IngestService runs the ingestion policy and duplicate resolution.
type IngestService interface {
	// Ingest hashes the upload, detects duplicates, validates folder/workflow
	// rules for the declared category and commits a new record. A detected
	// duplicate returns an awaiting_resolution outcome without mutating state.
	Ingest(ctx context.Context, req *IngestRequest) (*models.IngestOutcome, error)

	// Resolve applies the caller's chosen resolution to a previously detected
	// duplicate. All mutations happen in one transaction.
	Resolve(ctx context.Context, existingID string, req *ResolveRequest) (*models.ResolutionOutcome, error)

	// GetDocument retrieves a record including version history
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// OpenContent streams the current version's bytes
	OpenContent(ctx context.Context, id string) (io.ReadCloser, *models.Document, error)

	// DeleteDocument soft-deletes a record (the compensating operation for a
	// committed upload)
	DeleteDocument(ctx context.Context, id string) error
}
