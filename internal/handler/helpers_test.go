package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"arkiv/internal/domain"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "validation with kind",
			err:        &domain.ValidationError{Message: "folder required", Kind: domain.ValidationFolderRequired},
			wantStatus: http.StatusBadRequest,
			wantKind:   domain.ValidationFolderRequired,
		},
		{
			name:       "validation without kind",
			err:        &domain.ValidationError{Message: "bad name"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found",
			err:        fmt.Errorf("folder x: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name: "conflict with kind",
			err: &domain.ConflictError{
				Message:      "cycle",
				Kind:         domain.ConflictCycleDetected,
				ResourceType: "folder",
				ResourceID:   "f-1",
			},
			wantStatus: http.StatusConflict,
			wantKind:   domain.ConflictCycleDetected,
		},
		{
			name:       "concurrency",
			err:        &domain.ConcurrencyError{Message: "lost race"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unauthorized",
			err:        domain.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
		},
		{
			// MaxBytesReader trips mid-hash, so the overflow arrives wrapped
			// in the ingest error chain rather than as a bare error.
			name:       "oversized body",
			err:        fmt.Errorf("hash content: %w", &http.MaxBytesError{Limit: 1024}),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("pipe burst"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q, want application/problem+json", ct)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if int(body["status"].(float64)) != tt.wantStatus {
				t.Errorf("body status = %v, want %d", body["status"], tt.wantStatus)
			}
			if tt.wantKind != "" {
				if body["kind"] != tt.wantKind {
					t.Errorf("kind = %v, want %q", body["kind"], tt.wantKind)
				}
			}
		})
	}
}

func TestHandleErrorConflictExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, &domain.ConflictError{
		Message:      "bound",
		Kind:         domain.ConflictAlreadyBound,
		ResourceType: "folder",
		ResourceID:   "f-9",
	})

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["resource_type"] != "folder" {
		t.Errorf("resource_type = %v, want folder", body["resource_type"])
	}
	if body["resource_id"] != "f-9" {
		t.Errorf("resource_id = %v, want f-9", body["resource_id"])
	}
}
