package docstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFolderRepo is an in-memory FolderRepository mirroring the postgres
// repository's contract, including sibling name uniqueness on create.
type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[string]*models.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*models.Folder)}
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.DeletedAt == nil && f.Name == folder.Name && sameParent(f.ParentID, folder.ParentID) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				Kind:         domain.ConflictDuplicateName,
				ResourceType: "folder",
				ResourceID:   f.ID,
			}
		}
	}
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, id string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.DeletedAt != nil {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) GetByNameAndParent(_ context.Context, name string, parentID *string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.DeletedAt == nil && f.Name == name && sameParent(f.ParentID, parentID) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) Update(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[folder.ID]
	if !ok || f.DeletedAt != nil {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.DeletedAt != nil {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	now := f.UpdatedAt
	f.DeletedAt = &now
	return nil
}

func (r *fakeFolderRepo) ListChildren(_ context.Context, parentID *string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.DeletedAt == nil && sameParent(f.ParentID, parentID) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFolderRepo) GetPath(ctx context.Context, folderID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var segments []string
	currentID := folderID
	for {
		f, ok := r.folders[currentID]
		if !ok || f.DeletedAt != nil {
			return "", fmt.Errorf("folder %s: %w", currentID, domain.ErrNotFound)
		}
		segments = append([]string{f.Name}, segments...)
		if f.ParentID == nil {
			break
		}
		currentID = *f.ParentID
	}
	path := "/"
	for _, seg := range segments {
		path += seg + "/"
	}
	return path[:len(path)-1], nil
}

func (r *fakeFolderRepo) GetAll(_ context.Context) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.DeletedAt == nil {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFolderRepo) SubtreeIDs(_ context.Context, folderID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.folders[folderID]; !ok || f.DeletedAt != nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}
	ids := []string{folderID}
	for i := 0; i < len(ids); i++ {
		for _, f := range r.folders {
			if f.DeletedAt == nil && f.ParentID != nil && *f.ParentID == ids[i] {
				ids = append(ids, f.ID)
			}
		}
	}
	return ids, nil
}

// fakeDocumentRepo is an in-memory DocumentRepository. Create enforces the
// active-hash uniqueness the postgres partial index provides.
type fakeDocumentRepo struct {
	mu       sync.Mutex
	docs     map[string]*models.Document
	versions map[string]*models.DocumentVersion
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:     make(map[string]*models.Document),
		versions: make(map[string]*models.DocumentVersion),
	}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *models.Document, version *models.DocumentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if !d.IsDeleted && d.ContentHash == doc.ContentHash {
			return &domain.ConcurrencyError{Message: "a record with this content was committed concurrently"}
		}
	}
	dc := *doc
	vc := *version
	r.docs[doc.ID] = &dc
	r.versions[version.ID] = &vc
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocumentRepo) GetByIDWithVersions(ctx context.Context, id string) (*models.Document, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions {
		if v.DocumentID == id {
			doc.Versions = append(doc.Versions, *v)
		}
	}
	sort.Slice(doc.Versions, func(i, j int) bool {
		return doc.Versions[i].CreatedAt.Before(doc.Versions[j].CreatedAt)
	})
	return doc, nil
}

func (r *fakeDocumentRepo) FindActiveByHash(_ context.Context, contentHash string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if !d.IsDeleted && d.ContentHash == contentHash {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) Update(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	cp := *doc
	cp.Versions = nil
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) AppendVersion(_ context.Context, version *models.DocumentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *version
	r.versions[version.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) ArchiveVersion(_ context.Context, versionID string, restorable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[versionID]
	if !ok {
		return fmt.Errorf("document version %s: %w", versionID, domain.ErrNotFound)
	}
	v.Archived = true
	v.Restorable = restorable
	return nil
}

func (r *fakeDocumentRepo) ListByFolder(_ context.Context, folderID *string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if !d.IsDeleted && sameParent(d.FolderID, folderID) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) GetAllMetadata(_ context.Context) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if !d.IsDeleted {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeDocumentRepo) CountActiveInFolders(_ context.Context, folderIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		ids[id] = true
	}
	count := 0
	for _, d := range r.docs {
		if !d.IsDeleted && d.FolderID != nil && ids[*d.FolderID] {
			count++
		}
	}
	return count, nil
}

func (r *fakeDocumentRepo) SummarizeFolders(_ context.Context, folderIDs []string) (*models.FolderSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		ids[id] = true
	}
	summary := &models.FolderSummary{}
	for _, d := range r.docs {
		if d.IsDeleted || d.FolderID == nil || !ids[*d.FolderID] {
			continue
		}
		summary.TotalDocuments++
		summary.TotalBytes += d.SizeBytes
		if d.IsArchived {
			summary.ArchivedDocuments++
		} else {
			summary.ActiveDocuments++
		}
	}
	return summary, nil
}

func (r *fakeDocumentRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	d.IsDeleted = true
	return nil
}

// fakeWorkflowRepo is an in-memory WorkflowRepository with compare-and-set
// bind semantics.
type fakeWorkflowRepo struct {
	mu       sync.Mutex
	bindings map[string]*models.WorkflowBinding
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{bindings: make(map[string]*models.WorkflowBinding)}
}

func (r *fakeWorkflowRepo) Bind(_ context.Context, binding *models.WorkflowBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[binding.FolderID]; ok {
		return &domain.ConflictError{
			Message:      "folder already has a workflow binding",
			Kind:         domain.ConflictAlreadyBound,
			ResourceType: "folder",
			ResourceID:   binding.FolderID,
		}
	}
	cp := *binding
	r.bindings[binding.FolderID] = &cp
	return nil
}

func (r *fakeWorkflowRepo) GetByFolder(_ context.Context, folderID string) (*models.WorkflowBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[folderID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeWorkflowRepo) HasWorkflow(_ context.Context, folderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[folderID]
	return ok, nil
}

// fakeTxManager runs the function directly; the fakes have no transactions.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeBlobStore keeps blobs in a map.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Save(_ context.Context, key string, data io.Reader, _ int64) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = b
	return nil
}

func (s *fakeBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu        sync.Mutex
	committed []string
	resolved  []models.Resolution
}

func (p *fakePublisher) DocumentCommitted(_ context.Context, doc *models.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.committed = append(p.committed, doc.ID)
	return nil
}

func (p *fakePublisher) DuplicateResolved(_ context.Context, _ *models.Document, resolution models.Resolution) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = append(p.resolved, resolution)
	return nil
}
