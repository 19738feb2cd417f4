package repositories

import (
	"context"

	"arkiv/internal/domain/models"
)

// DocumentRepository defines data access operations for document records and
// their version history.
type DocumentRepository interface {
	// Create inserts a document record together with its first version
	Create(ctx context.Context, doc *models.Document, version *models.DocumentVersion) error

	// GetByID retrieves a document by ID, without version history
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// GetByIDWithVersions retrieves a document including its version list
	GetByIDWithVersions(ctx context.Context, id string) (*models.Document, error)

	// FindActiveByHash finds a non-deleted document with the given content
	// hash. Returns (nil, nil) when none exists.
	FindActiveByHash(ctx context.Context, contentHash string) (*models.Document, error)

	// Update persists record-level changes (hash, folder, category, flags)
	Update(ctx context.Context, doc *models.Document) error

	// AppendVersion adds a version to a document's history
	AppendVersion(ctx context.Context, version *models.DocumentVersion) error

	// ArchiveVersion flags a version as archived and optionally non-restorable
	ArchiveVersion(ctx context.Context, versionID string, restorable bool) error

	// ListByFolder lists non-deleted documents in a folder
	ListByFolder(ctx context.Context, folderID *string) ([]models.Document, error)

	// GetAllMetadata retrieves all non-deleted document metadata
	GetAllMetadata(ctx context.Context) ([]models.Document, error)

	// CountActiveInFolders counts non-deleted documents across folder ids
	CountActiveInFolders(ctx context.Context, folderIDs []string) (int, error)

	// SummarizeFolders aggregates document counts and sizes across folder ids
	SummarizeFolders(ctx context.Context, folderIDs []string) (*models.FolderSummary, error)

	// SoftDelete marks a document deleted
	SoftDelete(ctx context.Context, id string) error
}
