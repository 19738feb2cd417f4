package services

import (
	"context"

	"arkiv/internal/domain/models"
	"arkiv/internal/httputil"
)

// CreateFolderRequest carries the fields for folder creation
type CreateFolderRequest struct {
	Name        string  `json:"name"`
	ParentID    *string `json:"parent_id"`
	Department  string  `json:"department"`
	Description string  `json:"description"`
	CreatedBy   string  `json:"-"`
}

// UpdateFolderRequest carries rename/description/department edits.
// Description and Department use tri-state semantics: absent = keep,
// null = clear, value = set.
type UpdateFolderRequest struct {
	Name        *string                 `json:"name"`
	Description httputil.OptionalString `json:"description"`
	Department  httputil.OptionalString `json:"department"`
}

// MoveFolderRequest re-parents a folder. NewParentID nil moves to root.
type MoveFolderRequest struct {
	NewParentID *string `json:"new_parent_id"`
}

// FolderService manages the folder hierarchy
type FolderService interface {
	// CreateFolder creates a folder, enforcing sibling name uniqueness
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// GetFolder retrieves a folder with its computed path
	GetFolder(ctx context.Context, folderID string) (*models.Folder, error)

	// UpdateFolder renames a folder or edits description/department
	UpdateFolder(ctx context.Context, folderID string, req *UpdateFolderRequest) (*models.Folder, error)

	// MoveFolder re-parents a folder, rejecting moves that would form a cycle
	MoveFolder(ctx context.Context, folderID string, req *MoveFolderRequest) (*models.Folder, error)

	// DeleteFolder deletes a folder. Refused for system folders and for
	// folders whose subtree still holds non-deleted documents.
	DeleteFolder(ctx context.Context, folderID string) error
}
