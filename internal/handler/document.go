package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"arkiv/internal/config"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/services"
	"arkiv/internal/httputil"
	"arkiv/internal/observability/metrics"
)

// DocumentHandler serves the ingestion and duplicate resolution endpoints
type DocumentHandler struct {
	ingestService services.IngestService
	metrics       *metrics.HTTPServerMetrics
	logger        *slog.Logger
}

// NewDocumentHandler creates a new document handler. metrics may be nil.
func NewDocumentHandler(ingestService services.IngestService, m *metrics.HTTPServerMetrics, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		metrics:       m,
		logger:        logger,
	}
}

// Upload handles POST /api/documents/upload. The upload arrives either as
// multipart form data (fields: file, name, category, folder_id) or as a raw
// body with name/category/folder_id query parameters.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)

	req, cleanup, err := parseUpload(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()
	req.UploadedBy = userID

	outcome, err := h.ingestService.Ingest(r.Context(), req)
	if err != nil {
		h.recordOutcome(string(models.IngestRejected))
		handleError(w, err)
		return
	}
	h.recordOutcome(string(outcome.State))

	if outcome.State == models.IngestAwaitingResolution {
		// Duplicate detection is a normal outcome, not an error: return the
		// collision summary so the caller can pick a resolution.
		httputil.RespondJSON(w, http.StatusOK, outcome)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, outcome)
}

// ResolveDuplicate handles POST /api/documents/{id}/resolve-duplicate. Skip
// may be sent as JSON; version and replace carry the upload bytes as
// multipart form data (fields: file, resolution, category, folder_id).
func (h *DocumentHandler) ResolveDuplicate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)

	req, cleanup, err := parseResolve(w, r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()
	req.ResolvedBy = userID

	outcome, err := h.ingestService.Resolve(r.Context(), r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordResolution("arkiv", string(outcome.Resolution))
	}

	httputil.RespondJSON(w, http.StatusOK, outcome)
}

// GetDocument handles GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ingestService.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// GetContent handles GET /api/documents/{id}/content, streaming the current
// version's bytes.
func (h *DocumentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	rc, doc, err := h.ingestService.OpenContent(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("content stream interrupted", "id", doc.ID, "error", err)
	}
}

// DeleteDocument handles DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	if err := h.ingestService.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DocumentHandler) recordOutcome(state string) {
	if h.metrics != nil {
		h.metrics.RecordIngestOutcome("arkiv", state)
	}
}

// parseUpload extracts the ingest request from multipart or raw bodies. The
// returned cleanup releases multipart temp files.
func parseUpload(r *http.Request) (*services.IngestRequest, func(), error) {
	noop := func() {}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, noop, fmt.Errorf("invalid multipart form: %w", err)
		}
		cleanup := func() { r.MultipartForm.RemoveAll() }

		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, cleanup, fmt.Errorf("missing file field: %w", err)
		}

		name := r.FormValue("name")
		if name == "" {
			name = header.Filename
		}

		req := &services.IngestRequest{
			Name:     name,
			Category: models.Category(r.FormValue("category")),
			FolderID: optionalFormValue(r, "folder_id"),
			Body:     file,
		}
		return req, func() { file.Close(); cleanup() }, nil
	}

	q := r.URL.Query()
	req := &services.IngestRequest{
		Name:     q.Get("name"),
		Category: models.Category(q.Get("category")),
		Body:     r.Body,
	}
	if folderID := q.Get("folder_id"); folderID != "" {
		req.FolderID = &folderID
	}
	return req, noop, nil
}

// parseResolve extracts the resolution request. Multipart carries the bytes
// for version/replace; a JSON body covers skip.
func parseResolve(w http.ResponseWriter, r *http.Request) (*services.ResolveRequest, func(), error) {
	noop := func() {}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, noop, fmt.Errorf("invalid multipart form: %w", err)
		}
		cleanup := func() { r.MultipartForm.RemoveAll() }

		req := &services.ResolveRequest{
			Resolution: models.Resolution(strings.TrimSpace(r.FormValue("resolution"))),
			FolderID:   optionalFormValue(r, "folder_id"),
		}
		if category := r.FormValue("category"); category != "" {
			c := models.Category(category)
			req.Category = &c
		}

		file, _, err := r.FormFile("file")
		if err == nil {
			req.Body = file
			return req, func() { file.Close(); cleanup() }, nil
		}
		if err != http.ErrMissingFile {
			return nil, cleanup, fmt.Errorf("invalid file field: %w", err)
		}
		return req, cleanup, nil
	}

	var body struct {
		Resolution string  `json:"resolution"`
		Category   *string `json:"category"`
		FolderID   *string `json:"folder_id"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		return nil, noop, err
	}

	req := &services.ResolveRequest{
		Resolution: models.Resolution(body.Resolution),
		FolderID:   body.FolderID,
	}
	if body.Category != nil {
		c := models.Category(*body.Category)
		req.Category = &c
	}
	return req, noop, nil
}

func optionalFormValue(r *http.Request, key string) *string {
	if v := r.FormValue(key); v != "" {
		return &v
	}
	return nil
}
