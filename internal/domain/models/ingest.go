package models

import "time"

// IngestState tracks one upload attempt through the ingestion pipeline.
type IngestState string

const (
	IngestReceived           IngestState = "received"
	IngestHashed             IngestState = "hashed"
	IngestDuplicateFound     IngestState = "duplicate_found"
	IngestFolderValidated    IngestState = "folder_validated"
	IngestRejected           IngestState = "rejected"
	IngestCommitted          IngestState = "committed"
	IngestAwaitingResolution IngestState = "awaiting_resolution"
)

// Resolution is the caller's decision for a duplicate upload.
type Resolution string

const (
	ResolutionSkip    Resolution = "skip"
	ResolutionVersion Resolution = "version"
	ResolutionReplace Resolution = "replace"
)

// Valid reports whether r is a known resolution.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionSkip, ResolutionVersion, ResolutionReplace:
		return true
	}
	return false
}

// ExistingRecordSummary describes the record an upload collided with. Returned
// to the caller so they can choose a resolution; carrying it mutates nothing.
type ExistingRecordSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	FolderID    *string   `json:"folder_id"`
	FolderPath  string    `json:"folder_path,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentHash string    `json:"content_hash"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IngestOutcome is the result of one upload attempt. Exactly one of Committed
// or Duplicate is set when State is committed / awaiting_resolution.
type IngestOutcome struct {
	State     IngestState            `json:"state"`
	Committed *Document              `json:"committed,omitempty"`
	Duplicate *ExistingRecordSummary `json:"duplicate,omitempty"`
}

// ResolutionOutcome is the result of resolving a duplicate upload.
type ResolutionOutcome struct {
	Resolution Resolution `json:"resolution"`
	Document   *Document  `json:"document,omitempty"` // nil for skip
}
