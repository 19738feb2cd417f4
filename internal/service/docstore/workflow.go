package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
	"arkiv/internal/domain/services"
)

// workflowRegistry implements the WorkflowRegistry interface. A binding is
// immutable for its lifetime; there is no unbind operation.
type workflowRegistry struct {
	workflowRepo repositories.WorkflowRepository
	folderRepo   repositories.FolderRepository
	logger       *slog.Logger
}

// NewWorkflowRegistry creates a new workflow binding registry
func NewWorkflowRegistry(
	workflowRepo repositories.WorkflowRepository,
	folderRepo repositories.FolderRepository,
	logger *slog.Logger,
) services.WorkflowRegistry {
	return &workflowRegistry{
		workflowRepo: workflowRepo,
		folderRepo:   folderRepo,
		logger:       logger,
	}
}

// HasWorkflow reports whether a folder carries a workflow binding
func (r *workflowRegistry) HasWorkflow(ctx context.Context, folderID string) (bool, error) {
	if _, err := r.folderRepo.GetByID(ctx, folderID); err != nil {
		return false, err
	}
	return r.workflowRepo.HasWorkflow(ctx, folderID)
}

// Bind creates a binding for a folder. The insert is a compare-and-set
// against the folder_id unique key, so a lost race fails with AlreadyBound
// instead of silently re-binding.
func (r *workflowRegistry) Bind(ctx context.Context, folderID string, initiating models.Category) (*models.WorkflowBinding, error) {
	if _, err := r.folderRepo.GetByID(ctx, folderID); err != nil {
		return nil, fmt.Errorf("bind target: %w", err)
	}

	binding := &models.WorkflowBinding{
		FolderID:           folderID,
		WorkflowID:         uuid.NewString(),
		InitiatingCategory: initiating,
		CreatedAt:          time.Now(),
	}

	if err := r.workflowRepo.Bind(ctx, binding); err != nil {
		return nil, err
	}

	r.logger.Info("workflow bound",
		"folder_id", folderID,
		"workflow_id", binding.WorkflowID,
		"initiating_category", initiating,
	)

	return binding, nil
}

// GetBinding retrieves a folder's binding, (nil, nil) when unbound
func (r *workflowRegistry) GetBinding(ctx context.Context, folderID string) (*models.WorkflowBinding, error) {
	return r.workflowRepo.GetByFolder(ctx, folderID)
}
