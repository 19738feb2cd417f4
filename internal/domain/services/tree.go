package services

import (
	"context"

	"arkiv/internal/domain/models"
)

// TreeService builds read-only projections over the folder forest.
type TreeService interface {
	// GetTree returns the nested folder/document forest
	GetTree(ctx context.Context) (*models.TreeNode, error)

	// ListContents lists a folder's immediate child folders and documents.
	// A nil folderID lists the root level.
	ListContents(ctx context.Context, folderID *string) (*models.FolderContents, error)

	// GetFolderSummary aggregates document counts over a folder's subtree
	GetFolderSummary(ctx context.Context, folderID string) (*models.FolderSummary, error)
}
