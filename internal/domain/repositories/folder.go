package repositories

import (
	"context"

	"arkiv/internal/domain/models"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a non-deleted folder by ID
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// GetByNameAndParent finds a non-deleted folder by name under a parent.
	// Returns (nil, nil) when no such folder exists.
	GetByNameAndParent(ctx context.Context, name string, parentID *string) (*models.Folder, error)

	// Update persists name/description/department/parent changes
	Update(ctx context.Context, folder *models.Folder) error

	// Delete soft-deletes a folder
	Delete(ctx context.Context, id string) error

	// ListChildren lists immediate child folders
	ListChildren(ctx context.Context, parentID *string) ([]models.Folder, error)

	// GetPath computes the materialized path for a folder
	GetPath(ctx context.Context, folderID string) (string, error)

	// GetAll retrieves all non-deleted folders (flat list)
	GetAll(ctx context.Context) ([]models.Folder, error)

	// SubtreeIDs returns the ids of folderID and every descendant
	SubtreeIDs(ctx context.Context, folderID string) ([]string, error)
}
