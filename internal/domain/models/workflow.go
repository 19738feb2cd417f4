package models

import "time"

// WorkflowBinding associates a folder with its approval workflow. At most one
// binding exists per folder, and a binding never changes for its lifetime.
type WorkflowBinding struct {
	FolderID           string    `json:"folder_id" db:"folder_id"`
	WorkflowID         string    `json:"workflow_id" db:"workflow_id"`
	InitiatingCategory Category  `json:"initiating_category" db:"initiating_category"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
