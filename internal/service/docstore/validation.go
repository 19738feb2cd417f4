package docstore

import (
	"context"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"arkiv/internal/config"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
)

var noSlashes = regexp.MustCompile(`^[^/]+$`)

// validateName checks a folder or document name against the shared rules.
func validateName(name string, maxLen int) error {
	return validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.Length(1, maxLen),
		validation.Match(noSlashes).Error("name cannot contain slashes"),
	)
}

func validateDepartment(department string) error {
	return validation.Validate(department,
		validation.Length(0, config.MaxDepartmentLength),
	)
}

func validateDescription(description string) error {
	return validation.Validate(description,
		validation.Length(0, config.MaxDescriptionLength),
	)
}

// SummaryCache is the projection cache the tree and mutation paths share.
// A nil implementation disables caching.
type SummaryCache interface {
	Get(ctx context.Context, folderID string) (*models.FolderSummary, error)
	Set(ctx context.Context, summary *models.FolderSummary) error
	Invalidate(ctx context.Context, folderIDs ...string) error
}

// ancestorIDs walks the parent chain from folderID to the root, returning
// folderID and every ancestor. Used for summary cache invalidation.
func ancestorIDs(ctx context.Context, folderRepo repositories.FolderRepository, folderID string) ([]string, error) {
	var ids []string
	currentID := folderID
	for {
		ids = append(ids, currentID)
		folder, err := folderRepo.GetByID(ctx, currentID)
		if err != nil {
			return nil, err
		}
		if folder.ParentID == nil {
			return ids, nil
		}
		currentID = *folder.ParentID
	}
}
