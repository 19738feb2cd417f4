package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arkiv/internal/config"
	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
	"arkiv/internal/domain/services"
)

type folderService struct {
	folderRepo   repositories.FolderRepository
	docRepo      repositories.DocumentRepository
	txManager    repositories.TransactionManager
	summaryCache SummaryCache
	logger       *slog.Logger

	// structMu serializes structural mutations (move, delete) so cycle
	// detection and emptiness checks stay race-free. Per-folder locking
	// would scale further; a single lock is enough at this write rate.
	structMu sync.Mutex
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo repositories.FolderRepository,
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	summaryCache SummaryCache,
	logger *slog.Logger,
) services.FolderService {
	return &folderService{
		folderRepo:   folderRepo,
		docRepo:      docRepo,
		txManager:    txManager,
		summaryCache: summaryCache,
		logger:       logger,
	}
}

// CreateFolder creates a new folder
func (s *folderService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	req.Name = strings.TrimSpace(req.Name)

	if err := validateName(req.Name, config.MaxFolderNameLength); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid folder name: %v", err)}
	}
	if err := validateDepartment(req.Department); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid department: %v", err)}
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid description: %v", err)}
	}

	if req.ParentID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *req.ParentID); err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
	}

	now := time.Now()
	folder := &models.Folder{
		ID:          uuid.NewString(),
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.attachPath(ctx, folder)

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
		"path", folder.Path,
	)

	return folder, nil
}

// GetFolder retrieves a folder with its computed path
func (s *folderService) GetFolder(ctx context.Context, folderID string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}

	s.attachPath(ctx, folder)

	return folder, nil
}

// UpdateFolder renames a folder or edits description/department
func (s *folderService) UpdateFolder(ctx context.Context, folderID string, req *services.UpdateFolderRequest) (*models.Folder, error) {
	if req.Name == nil && !req.Description.Present && !req.Department.Present {
		return nil, &domain.ValidationError{Message: "at least one field must be provided"}
	}

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validateName(name, config.MaxFolderNameLength); err != nil {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid folder name: %v", err)}
		}
		if name != folder.Name {
			if err := s.ensureNameFree(ctx, name, folder.ParentID, folder.ID); err != nil {
				return nil, err
			}
		}
		folder.Name = name
	}

	if req.Description.Present {
		desc := ""
		if req.Description.Value != nil {
			desc = *req.Description.Value
		}
		if err := validateDescription(desc); err != nil {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid description: %v", err)}
		}
		folder.Description = desc
	}

	if req.Department.Present {
		dept := ""
		if req.Department.Value != nil {
			dept = *req.Department.Value
		}
		if err := validateDepartment(dept); err != nil {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid department: %v", err)}
		}
		folder.Department = dept
	}

	folder.UpdatedAt = time.Now()

	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.attachPath(ctx, folder)

	s.logger.Info("folder updated",
		"id", folder.ID,
		"name", folder.Name,
		"path", folder.Path,
	)

	return folder, nil
}

// MoveFolder re-parents a folder, rejecting moves that would form a cycle
func (s *folderService) MoveFolder(ctx context.Context, folderID string, req *services.MoveFolderRequest) (*models.Folder, error) {
	s.structMu.Lock()
	defer s.structMu.Unlock()

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if folder.IsSystem {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("folder %q is a system folder and cannot be moved", folder.Name),
			Kind:         domain.ConflictSystemFolderProtected,
			ResourceType: "folder",
			ResourceID:   folder.ID,
		}
	}

	newParentID := req.NewParentID
	if newParentID != nil && *newParentID == "" {
		newParentID = nil
	}

	if newParentID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *newParentID); err != nil {
			return nil, fmt.Errorf("new parent folder: %w", err)
		}
		if err := s.ensureNoCycle(ctx, folderID, *newParentID); err != nil {
			return nil, err
		}
	}

	if err := s.ensureNameFree(ctx, folder.Name, newParentID, folder.ID); err != nil {
		return nil, err
	}

	oldParentID := folder.ParentID
	folder.ParentID = newParentID
	folder.UpdatedAt = time.Now()

	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.invalidateSummaries(ctx, oldParentID, newParentID, folderID)
	s.attachPath(ctx, folder)

	s.logger.Info("folder moved",
		"id", folder.ID,
		"new_parent_id", folder.ParentID,
		"path", folder.Path,
	)

	return folder, nil
}

// DeleteFolder deletes a folder. System folders are protected, and a folder
// whose subtree still holds non-deleted documents cannot be deleted.
func (s *folderService) DeleteFolder(ctx context.Context, folderID string) error {
	s.structMu.Lock()
	defer s.structMu.Unlock()

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return err
	}

	if folder.IsSystem {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("folder %q is a system folder and cannot be deleted", folder.Name),
			Kind:         domain.ConflictSystemFolderProtected,
			ResourceType: "folder",
			ResourceID:   folder.ID,
		}
	}

	subtree, err := s.folderRepo.SubtreeIDs(ctx, folderID)
	if err != nil {
		return err
	}

	// The protection extends to the whole subtree: deleting an ancestor
	// must not take a nested system folder down with it.
	for _, id := range subtree {
		if id == folderID {
			continue
		}
		sub, err := s.folderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sub.IsSystem {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %q contains system folder %q and cannot be deleted", folder.Name, sub.Name),
				Kind:         domain.ConflictSystemFolderProtected,
				ResourceType: "folder",
				ResourceID:   sub.ID,
			}
		}
	}

	active, err := s.docRepo.CountActiveInFolders(ctx, subtree)
	if err != nil {
		return err
	}
	if active > 0 {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("folder %q still holds %d active document(s)", folder.Name, active),
			Kind:         domain.ConflictFolderNotEmpty,
			ResourceType: "folder",
			ResourceID:   folder.ID,
		}
	}

	// Delete leaves first so the subtree never holds an orphaned child.
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for i := len(subtree) - 1; i >= 0; i-- {
			if err := s.folderRepo.Delete(txCtx, subtree[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateSummaries(ctx, folder.ParentID, nil, subtree...)

	s.logger.Info("folder deleted",
		"id", folderID,
		"name", folder.Name,
		"subtree_size", len(subtree),
	)

	return nil
}

// ensureNoCycle walks the ancestor chain of newParentID up to the root and
// rejects the move when folderID appears in it.
func (s *folderService) ensureNoCycle(ctx context.Context, folderID, newParentID string) error {
	currentID := newParentID
	for {
		if currentID == folderID {
			return &domain.ConflictError{
				Message:      "cannot move a folder into itself or one of its descendants",
				Kind:         domain.ConflictCycleDetected,
				ResourceType: "folder",
				ResourceID:   folderID,
			}
		}

		folder, err := s.folderRepo.GetByID(ctx, currentID)
		if err != nil {
			return err
		}
		if folder.ParentID == nil {
			return nil
		}
		currentID = *folder.ParentID
	}
}

// ensureNameFree checks sibling name uniqueness in the target location.
func (s *folderService) ensureNameFree(ctx context.Context, name string, parentID *string, selfID string) error {
	existing, err := s.folderRepo.GetByNameAndParent(ctx, name, parentID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
			Kind:         domain.ConflictDuplicateName,
			ResourceType: "folder",
			ResourceID:   existing.ID,
		}
	}
	return nil
}

func (s *folderService) attachPath(ctx context.Context, folder *models.Folder) {
	path, err := s.folderRepo.GetPath(ctx, folder.ID)
	if err != nil {
		s.logger.Warn("failed to compute path", "folder_id", folder.ID, "error", err)
		folder.Path = folder.Name
		return
	}
	folder.Path = path
}

// invalidateSummaries drops cached summaries for the given folders and the
// ancestor chains of the given parents.
func (s *folderService) invalidateSummaries(ctx context.Context, oldParent, newParent *string, folderIDs ...string) {
	if s.summaryCache == nil {
		return
	}

	ids := append([]string{}, folderIDs...)
	for _, parent := range []*string{oldParent, newParent} {
		if parent == nil {
			continue
		}
		chain, err := ancestorIDs(ctx, s.folderRepo, *parent)
		if err != nil {
			s.logger.Warn("failed to collect ancestor chain for cache invalidation", "folder_id", *parent, "error", err)
			continue
		}
		ids = append(ids, chain...)
	}

	if err := s.summaryCache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("summary cache invalidation failed", "error", err)
	}
}
