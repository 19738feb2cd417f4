package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
)

// PostgresWorkflowRepository implements the WorkflowRepository interface
type PostgresWorkflowRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewWorkflowRepository creates a new workflow binding repository
func NewWorkflowRepository(config *RepositoryConfig) repositories.WorkflowRepository {
	return &PostgresWorkflowRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Bind inserts a binding for a folder. The primary key on folder_id makes the
// insert a compare-and-set: the second of two concurrent binds fails here.
func (r *PostgresWorkflowRepository) Bind(ctx context.Context, binding *models.WorkflowBinding) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (folder_id, workflow_id, initiating_category, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.tables.WorkflowBindings)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		binding.FolderID,
		binding.WorkflowID,
		binding.InitiatingCategory,
		binding.CreatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %s already has a workflow", binding.FolderID),
				Kind:         domain.ConflictAlreadyBound,
				ResourceType: "workflow_binding",
				ResourceID:   binding.FolderID,
			}
		}
		return fmt.Errorf("bind workflow: %w", err)
	}

	return nil
}

// GetByFolder retrieves the binding for a folder
func (r *PostgresWorkflowRepository) GetByFolder(ctx context.Context, folderID string) (*models.WorkflowBinding, error) {
	query := fmt.Sprintf(`
		SELECT folder_id, workflow_id, initiating_category, created_at
		FROM %s
		WHERE folder_id = $1
	`, r.tables.WorkflowBindings)

	exec := GetExecutor(ctx, r.pool)
	var binding models.WorkflowBinding
	err := exec.QueryRow(ctx, query, folderID).Scan(
		&binding.FolderID,
		&binding.WorkflowID,
		&binding.InitiatingCategory,
		&binding.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil // Unbound, not an error
		}
		return nil, fmt.Errorf("get workflow binding: %w", err)
	}

	return &binding, nil
}

// HasWorkflow reports whether a folder carries a binding
func (r *PostgresWorkflowRepository) HasWorkflow(ctx context.Context, folderID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE folder_id = $1)
	`, r.tables.WorkflowBindings)

	exec := GetExecutor(ctx, r.pool)
	var exists bool
	if err := exec.QueryRow(ctx, query, folderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check workflow binding: %w", err)
	}

	return exists, nil
}
