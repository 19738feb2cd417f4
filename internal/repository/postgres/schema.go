package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// advisoryLockKey serializes schema bootstrap across concurrently starting
// server instances.
const advisoryLockKey = int64(2026082801)

// EnsureSchema creates the engine's tables when they do not exist yet. DDL
// runs in one transaction under an advisory lock.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id UUID PRIMARY KEY,
	parent_id UUID REFERENCES %[1]s(id),
	name VARCHAR(255) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	department VARCHAR(100) NOT NULL DEFAULT '',
	is_system BOOLEAN NOT NULL DEFAULT FALSE,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	deleted_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_sibling_name
	ON %[1]s (COALESCE(parent_id, '00000000-0000-0000-0000-000000000000'::uuid), name)
	WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS %[2]s (
	id UUID PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	content_hash CHAR(64) NOT NULL,
	category TEXT NOT NULL,
	folder_id UUID REFERENCES %[1]s(id),
	size_bytes BIGINT NOT NULL,
	current_version_id UUID NOT NULL,
	is_archived BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_%[2]s_active_hash
	ON %[2]s (content_hash)
	WHERE is_deleted = FALSE;

CREATE INDEX IF NOT EXISTS idx_%[2]s_folder ON %[2]s (folder_id);

CREATE TABLE IF NOT EXISTS %[3]s (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES %[2]s(id),
	content_hash CHAR(64) NOT NULL,
	size_bytes BIGINT NOT NULL,
	storage_key TEXT NOT NULL,
	archived BOOLEAN NOT NULL DEFAULT FALSE,
	restorable BOOLEAN NOT NULL DEFAULT TRUE,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_%[3]s_document ON %[3]s (document_id, created_at);

CREATE TABLE IF NOT EXISTS %[4]s (
	folder_id UUID PRIMARY KEY REFERENCES %[1]s(id),
	workflow_id UUID NOT NULL,
	initiating_category TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`, tables.Folders, tables.Documents, tables.DocumentVersions, tables.WorkflowBindings)

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
