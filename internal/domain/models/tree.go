package models

import "time"

// TreeNode represents the root of the folder/document forest
type TreeNode struct {
	Folders   []*FolderTreeNode  `json:"folders"`
	Documents []DocumentTreeNode `json:"documents"`
}

// FolderTreeNode represents a folder in the tree with nested children
type FolderTreeNode struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	ParentID   *string            `json:"parent_id"`
	Department string             `json:"department,omitempty"`
	IsSystem   bool               `json:"is_system"`
	CreatedAt  time.Time          `json:"created_at"`
	Folders    []*FolderTreeNode  `json:"folders"` // Pointers for proper nesting
	Documents  []DocumentTreeNode `json:"documents"`
}

// DocumentTreeNode represents a document in the tree (metadata only)
type DocumentTreeNode struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FolderID   *string   `json:"folder_id"`
	Category   Category  `json:"category"`
	SizeBytes  int64     `json:"size_bytes"`
	IsArchived bool      `json:"is_archived"`
	UpdatedAt  time.Time `json:"updated_at"`
}
