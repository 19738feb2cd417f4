package models

import (
	"time"
)

type Document struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	ContentHash      string    `json:"content_hash" db:"content_hash"`
	Category         Category  `json:"category" db:"category"`
	FolderID         *string   `json:"folder_id" db:"folder_id"` // required for workflow-requiring categories
	SizeBytes        int64     `json:"size_bytes" db:"size_bytes"`
	CurrentVersionID string    `json:"current_version_id" db:"current_version_id"`
	IsArchived       bool      `json:"is_archived" db:"is_archived"`
	IsDeleted        bool      `json:"is_deleted" db:"is_deleted"`
	CreatedBy        string    `json:"created_by" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	// Versions is the append-only version history, oldest first. Populated on
	// detail reads, omitted from listings.
	Versions []DocumentVersion `json:"versions,omitempty"`
}

// DocumentVersion is one immutable entry in a document's version history.
// Version bytes are retained in the blob store under StorageKey even after
// the version is archived, so a replace remains auditable.
type DocumentVersion struct {
	ID          string    `json:"id" db:"id"`
	DocumentID  string    `json:"document_id" db:"document_id"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	StorageKey  string    `json:"storage_key" db:"storage_key"`
	Archived    bool      `json:"archived" db:"archived"`
	Restorable  bool      `json:"restorable" db:"restorable"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
