package services

import (
	"context"

	"arkiv/internal/domain/models"
)

// WorkflowRegistry maps folders to their approval workflows.
type WorkflowRegistry interface {
	// HasWorkflow reports whether a folder carries a workflow binding
	HasWorkflow(ctx context.Context, folderID string) (bool, error)

	// Bind creates a binding for a folder. Fails with AlreadyBound when the
	// folder is already bound, including when a concurrent bind won the race.
	Bind(ctx context.Context, folderID string, initiating models.Category) (*models.WorkflowBinding, error)

	// GetBinding retrieves a folder's binding, (nil, nil) when unbound
	GetBinding(ctx context.Context, folderID string) (*models.WorkflowBinding, error)
}
