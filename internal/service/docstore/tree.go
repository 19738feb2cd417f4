package docstore

import (
	"context"
	"log/slog"

	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
	"arkiv/internal/domain/services"
)

// treeService implements the TreeService interface
type treeService struct {
	folderRepo   repositories.FolderRepository
	docRepo      repositories.DocumentRepository
	summaryCache SummaryCache
	logger       *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(
	folderRepo repositories.FolderRepository,
	docRepo repositories.DocumentRepository,
	summaryCache SummaryCache,
	logger *slog.Logger,
) services.TreeService {
	return &treeService{
		folderRepo:   folderRepo,
		docRepo:      docRepo,
		summaryCache: summaryCache,
		logger:       logger,
	}
}

// GetTree builds and returns the nested folder/document forest
func (s *treeService) GetTree(ctx context.Context) (*models.TreeNode, error) {
	allFolders, err := s.folderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	allDocuments, err := s.docRepo.GetAllMetadata(ctx)
	if err != nil {
		return nil, err
	}

	// Build folder hierarchy using 3-pass algorithm
	folderMap := make(map[string]*models.FolderTreeNode)
	var rootFolderIDs []string

	// First pass: create all folder nodes
	for _, folder := range allFolders {
		folderMap[folder.ID] = &models.FolderTreeNode{
			ID:         folder.ID,
			Name:       folder.Name,
			ParentID:   folder.ParentID,
			Department: folder.Department,
			IsSystem:   folder.IsSystem,
			CreatedAt:  folder.CreatedAt,
			Folders:    []*models.FolderTreeNode{},
			Documents:  []models.DocumentTreeNode{},
		}
	}

	// Second pass: nest folders by connecting children to parents
	for _, folder := range allFolders {
		node := folderMap[folder.ID]
		if folder.ParentID == nil {
			rootFolderIDs = append(rootFolderIDs, folder.ID)
		} else {
			if parent, exists := folderMap[*folder.ParentID]; exists {
				parent.Folders = append(parent.Folders, node)
			}
		}
	}

	// Third pass: add documents to their folders
	rootDocuments := make([]models.DocumentTreeNode, 0)
	for _, doc := range allDocuments {
		docNode := models.DocumentTreeNode{
			ID:         doc.ID,
			Name:       doc.Name,
			FolderID:   doc.FolderID,
			Category:   doc.Category,
			SizeBytes:  doc.SizeBytes,
			IsArchived: doc.IsArchived,
			UpdatedAt:  doc.UpdatedAt,
		}

		if doc.FolderID == nil {
			rootDocuments = append(rootDocuments, docNode)
		} else if parent, exists := folderMap[*doc.FolderID]; exists {
			parent.Documents = append(parent.Documents, docNode)
		}
	}

	rootFolders := make([]*models.FolderTreeNode, 0, len(rootFolderIDs))
	for _, id := range rootFolderIDs {
		rootFolders = append(rootFolders, folderMap[id])
	}

	return &models.TreeNode{
		Folders:   rootFolders,
		Documents: rootDocuments,
	}, nil
}

// ListContents lists a folder's immediate child folders and documents
func (s *treeService) ListContents(ctx context.Context, folderID *string) (*models.FolderContents, error) {
	if folderID != nil {
		// Resolve the folder first so a missing id surfaces as not-found
		// rather than an empty listing.
		if _, err := s.folderRepo.GetByID(ctx, *folderID); err != nil {
			return nil, err
		}
	}

	folders, err := s.folderRepo.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}

	documents, err := s.docRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if folders == nil {
		folders = []models.Folder{}
	}
	if documents == nil {
		documents = []models.Document{}
	}

	return &models.FolderContents{
		FolderID:  folderID,
		Folders:   folders,
		Documents: documents,
	}, nil
}

// GetFolderSummary aggregates document counts over a folder's subtree.
// Results are cached with a short TTL; mutations invalidate the cache.
func (s *treeService) GetFolderSummary(ctx context.Context, folderID string) (*models.FolderSummary, error) {
	if s.summaryCache != nil {
		cached, err := s.summaryCache.Get(ctx, folderID)
		if err != nil {
			s.logger.Warn("summary cache read failed", "folder_id", folderID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	// Resolve the folder first so a missing id surfaces as not-found rather
	// than an empty summary.
	if _, err := s.folderRepo.GetByID(ctx, folderID); err != nil {
		return nil, err
	}

	subtree, err := s.folderRepo.SubtreeIDs(ctx, folderID)
	if err != nil {
		return nil, err
	}

	summary, err := s.docRepo.SummarizeFolders(ctx, subtree)
	if err != nil {
		return nil, err
	}
	summary.FolderID = folderID

	if s.summaryCache != nil {
		if err := s.summaryCache.Set(ctx, summary); err != nil {
			s.logger.Warn("summary cache write failed", "folder_id", folderID, "error", err)
		}
	}

	return summary, nil
}
