package models

import (
	"time"
)

type Folder struct {
	ID          string     `json:"id" db:"id"`
	ParentID    *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	Department  string     `json:"department,omitempty" db:"department"`
	Path        string     `json:"path,omitempty"` // Computed display path, not stored in DB
	IsSystem    bool       `json:"is_system" db:"is_system"`
	CreatedBy   string     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// FolderContents lists a folder's immediate child folders and documents.
// FolderID is nil for the root level.
type FolderContents struct {
	FolderID  *string    `json:"folder_id"`
	Folders   []Folder   `json:"folders"`
	Documents []Document `json:"documents"`
}

// FolderSummary is a read-only projection of the document population under a
// folder subtree.
type FolderSummary struct {
	FolderID          string `json:"folder_id"`
	TotalDocuments    int    `json:"total_documents"`
	ActiveDocuments   int    `json:"active_documents"`
	ArchivedDocuments int    `json:"archived_documents"`
	TotalBytes        int64  `json:"total_bytes"`
}
