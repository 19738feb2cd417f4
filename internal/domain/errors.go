package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a folder or document id did not resolve.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (bad name, missing required
	// folder). Kind is optional and stable for machine consumption.
	ValidationError struct {
		Message string
		Kind    string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Is allows errors.Is() to match against ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConcurrency  = errors.New("lost concurrent update race")
)

// Machine-readable validation kinds carried by ValidationError.Kind.
const (
	ValidationFolderRequired        = "folder_required"
	ValidationFolderWorkflowMissing = "folder_workflow_missing"
	ValidationInvalidCategory       = "invalid_category"
)

// Machine-readable conflict kinds carried by ConflictError.Kind.
const (
	ConflictCycleDetected         = "cycle_detected"
	ConflictFolderNotEmpty        = "folder_not_empty"
	ConflictSystemFolderProtected = "system_folder_protected"
	ConflictAlreadyBound          = "workflow_already_bound"
	ConflictDuplicateName         = "duplicate_name"
	ConflictDuplicateContent      = "duplicate_content"
)

// ConflictError represents a resource conflict with details about the
// conflicting resource. Kind is a stable machine-readable discriminator.
type ConflictError struct {
	Message      string
	Kind         string
	ResourceType string // document, folder, workflow_binding
	ResourceID   string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ConcurrencyError indicates a compare-and-set lost a race. The caller should
// retry the whole operation rather than assume partial success.
type ConcurrencyError struct {
	Message string
}

func (e *ConcurrencyError) Error() string {
	return e.Message
}

func (e *ConcurrencyError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConcurrency
func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrency
}
