package services

import (
	"context"

	"arkiv/internal/domain/models"
)

// EventPublisher emits ingestion lifecycle events for downstream consumers.
// Publishing is best-effort from the engine's point of view: a failed publish
// surfaces as an error to the caller of the service layer where it is logged,
// never rolled into the committed transaction.
type EventPublisher interface {
	// DocumentCommitted fires after a fresh upload commits
	DocumentCommitted(ctx context.Context, doc *models.Document) error

	// DuplicateResolved fires after a version/replace/skip resolution
	DuplicateResolved(ctx context.Context, doc *models.Document, resolution models.Resolution) error
}
