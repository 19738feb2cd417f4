package repositories

import (
	"context"

	"arkiv/internal/domain/models"
)

// WorkflowRepository defines data access for folder workflow bindings.
type WorkflowRepository interface {
	// Bind inserts a binding for a folder. The folder_id unique constraint
	// makes this a compare-and-set: a concurrent bind loses with ErrConflict.
	Bind(ctx context.Context, binding *models.WorkflowBinding) error

	// GetByFolder retrieves the binding for a folder.
	// Returns (nil, nil) when the folder has no binding.
	GetByFolder(ctx context.Context, folderID string) (*models.WorkflowBinding, error)

	// HasWorkflow reports whether a folder carries a binding
	HasWorkflow(ctx context.Context, folderID string) (bool, error)
}
