package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const documentColumns = `id, name, content_hash, category, folder_id, size_bytes, current_version_id, is_archived, is_deleted, created_by, created_at, updated_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.ContentHash,
		&doc.Category,
		&doc.FolderID,
		&doc.SizeBytes,
		&doc.CurrentVersionID,
		&doc.IsArchived,
		&doc.IsDeleted,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create inserts a document record together with its first version. The two
// inserts are expected to run inside a transaction set by the caller.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document, version *models.DocumentVersion) error {
	exec := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.Documents, documentColumns)

	_, err := exec.Exec(ctx, query,
		doc.ID,
		doc.Name,
		doc.ContentHash,
		doc.Category,
		doc.FolderID,
		doc.SizeBytes,
		doc.CurrentVersionID,
		doc.IsArchived,
		doc.IsDeleted,
		doc.CreatedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			// Partial unique index on active content_hash: a concurrent upload
			// of identical bytes won the commit race.
			return &domain.ConcurrencyError{
				Message: fmt.Sprintf("document with content hash %s committed concurrently", doc.ContentHash),
			}
		}
		if IsPgForeignKeyError(err) {
			// The target folder was deleted between validation and commit.
			return fmt.Errorf("target folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	if err := r.AppendVersion(ctx, version); err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a document by ID, without version history
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, documentColumns, r.tables.Documents)

	exec := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(exec.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// GetByIDWithVersions retrieves a document including its version list
func (r *PostgresDocumentRepository) GetByIDWithVersions(ctx context.Context, id string) (*models.Document, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, content_hash, size_bytes, storage_key, archived, restorable, created_by, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at ASC
	`, r.tables.DocumentVersions)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.DocumentVersion
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.ContentHash,
			&v.SizeBytes,
			&v.StorageKey,
			&v.Archived,
			&v.Restorable,
			&v.CreatedBy,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		doc.Versions = append(doc.Versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}

	return doc, nil
}

// FindActiveByHash finds a non-deleted document with the given content hash
func (r *PostgresDocumentRepository) FindActiveByHash(ctx context.Context, contentHash string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE content_hash = $1 AND is_deleted = FALSE
	`, documentColumns, r.tables.Documents)

	exec := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(exec.QueryRow(ctx, query, contentHash))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil // No duplicate, not an error
		}
		return nil, fmt.Errorf("find document by hash: %w", err)
	}

	return doc, nil
}

// Update persists record-level changes
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, content_hash = $2, category = $3, folder_id = $4, size_bytes = $5,
		    current_version_id = $6, is_archived = $7, is_deleted = $8, updated_at = $9
		WHERE id = $10
	`, r.tables.Documents)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query,
		doc.Name,
		doc.ContentHash,
		doc.Category,
		doc.FolderID,
		doc.SizeBytes,
		doc.CurrentVersionID,
		doc.IsArchived,
		doc.IsDeleted,
		doc.UpdatedAt,
		doc.ID,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("target folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// AppendVersion adds a version to a document's history
func (r *PostgresDocumentRepository) AppendVersion(ctx context.Context, version *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, content_hash, size_bytes, storage_key, archived, restorable, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.DocumentVersions)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		version.ID,
		version.DocumentID,
		version.ContentHash,
		version.SizeBytes,
		version.StorageKey,
		version.Archived,
		version.Restorable,
		version.CreatedBy,
		version.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append document version: %w", err)
	}

	return nil
}

// ArchiveVersion flags a version as archived and optionally non-restorable
func (r *PostgresDocumentRepository) ArchiveVersion(ctx context.Context, versionID string, restorable bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET archived = TRUE, restorable = $1
		WHERE id = $2
	`, r.tables.DocumentVersions)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, restorable, versionID)
	if err != nil {
		return fmt.Errorf("archive document version: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document version %s: %w", versionID, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists non-deleted documents in a folder
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, folderID *string) ([]models.Document, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE folder_id IS NULL AND is_deleted = FALSE
			ORDER BY name ASC
		`, documentColumns, r.tables.Documents)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE folder_id = $1 AND is_deleted = FALSE
			ORDER BY name ASC
		`, documentColumns, r.tables.Documents)
		args = append(args, *folderID)
	}

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents in folder: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// GetAllMetadata retrieves all non-deleted document metadata
func (r *PostgresDocumentRepository) GetAllMetadata(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE is_deleted = FALSE
		ORDER BY created_at ASC
	`, documentColumns, r.tables.Documents)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// CountActiveInFolders counts non-deleted documents across folder ids
func (r *PostgresDocumentRepository) CountActiveInFolders(ctx context.Context, folderIDs []string) (int, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE folder_id = ANY($1) AND is_deleted = FALSE
	`, r.tables.Documents)

	exec := GetExecutor(ctx, r.pool)
	var count int
	if err := exec.QueryRow(ctx, query, folderIDs).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents in folders: %w", err)
	}

	return count, nil
}

// SummarizeFolders aggregates document counts and sizes across folder ids
func (r *PostgresDocumentRepository) SummarizeFolders(ctx context.Context, folderIDs []string) (*models.FolderSummary, error) {
	summary := &models.FolderSummary{}
	if len(folderIDs) == 0 {
		return summary, nil
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_archived = FALSE),
		       COUNT(*) FILTER (WHERE is_archived = TRUE),
		       COALESCE(SUM(size_bytes), 0)
		FROM %s
		WHERE folder_id = ANY($1) AND is_deleted = FALSE
	`, r.tables.Documents)

	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query, folderIDs).Scan(
		&summary.TotalDocuments,
		&summary.ActiveDocuments,
		&summary.ArchivedDocuments,
		&summary.TotalBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize folders: %w", err)
	}

	return summary, nil
}

// SoftDelete marks a document deleted
func (r *PostgresDocumentRepository) SoftDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = TRUE, updated_at = $1
		WHERE id = $2 AND is_deleted = FALSE
	`, r.tables.Documents)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
