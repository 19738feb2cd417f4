package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/services"
)

type folderFixture struct {
	folders *fakeFolderRepo
	docs    *fakeDocumentRepo
	service services.FolderService
}

func newFolderFixture() *folderFixture {
	folders := newFakeFolderRepo()
	docs := newFakeDocumentRepo()
	return &folderFixture{
		folders: folders,
		docs:    docs,
		service: NewFolderService(folders, docs, fakeTxManager{}, nil, testLogger()),
	}
}

func (f *folderFixture) mustCreate(t *testing.T, name string, parentID *string) *models.Folder {
	t.Helper()
	folder, err := f.service.CreateFolder(context.Background(), &services.CreateFolderRequest{
		Name:      name,
		ParentID:  parentID,
		CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("CreateFolder(%q) error = %v", name, err)
	}
	return folder
}

func TestCreateFolder(t *testing.T) {
	f := newFolderFixture()

	root := f.mustCreate(t, "Contracts", nil)
	if root.Path != "/Contracts" {
		t.Errorf("Path = %q, want %q", root.Path, "/Contracts")
	}
	if root.ID == "" {
		t.Error("ID not assigned")
	}

	child := f.mustCreate(t, "2026", &root.ID)
	if child.Path != "/Contracts/2026" {
		t.Errorf("Path = %q, want %q", child.Path, "/Contracts/2026")
	}
}

func TestCreateFolderValidation(t *testing.T) {
	f := newFolderFixture()

	tests := []struct {
		name       string
		folderName string
	}{
		{"empty name", ""},
		{"whitespace only", "   "},
		{"slash in name", "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateFolder(context.Background(), &services.CreateFolderRequest{
				Name:      tt.folderName,
				CreatedBy: "tester",
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CreateFolder(%q) error = %v, want validation error", tt.folderName, err)
			}
		})
	}
}

func TestCreateFolderDuplicateSibling(t *testing.T) {
	f := newFolderFixture()

	root := f.mustCreate(t, "Contracts", nil)
	f.mustCreate(t, "2026", &root.ID)

	_, err := f.service.CreateFolder(context.Background(), &services.CreateFolderRequest{
		Name:      "2026",
		ParentID:  &root.ID,
		CreatedBy: "tester",
	})

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want ConflictError", err)
	}
	if conflict.Kind != domain.ConflictDuplicateName {
		t.Errorf("Kind = %q, want %q", conflict.Kind, domain.ConflictDuplicateName)
	}

	// Same name under a different parent is fine.
	other := f.mustCreate(t, "Reports", nil)
	f.mustCreate(t, "2026", &other.ID)
}

func TestCreateFolderMissingParent(t *testing.T) {
	f := newFolderFixture()

	missing := "no-such-folder"
	_, err := f.service.CreateFolder(context.Background(), &services.CreateFolderRequest{
		Name:      "orphan",
		ParentID:  &missing,
		CreatedBy: "tester",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestMoveFolder(t *testing.T) {
	f := newFolderFixture()

	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", nil)
	child := f.mustCreate(t, "child", &a.ID)

	moved, err := f.service.MoveFolder(context.Background(), child.ID, &services.MoveFolderRequest{
		NewParentID: &b.ID,
	})
	if err != nil {
		t.Fatalf("MoveFolder() error = %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != b.ID {
		t.Errorf("ParentID = %v, want %s", moved.ParentID, b.ID)
	}
	if moved.Path != "/B/child" {
		t.Errorf("Path = %q, want %q", moved.Path, "/B/child")
	}
}

func TestMoveFolderCycleRejected(t *testing.T) {
	f := newFolderFixture()

	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", &a.ID)
	c := f.mustCreate(t, "C", &b.ID)

	tests := []struct {
		name     string
		folderID string
		target   string
	}{
		{"into own child", a.ID, b.ID},
		{"into own grandchild", a.ID, c.ID},
		{"into itself", a.ID, a.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.MoveFolder(context.Background(), tt.folderID, &services.MoveFolderRequest{
				NewParentID: &tt.target,
			})

			var conflict *domain.ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("error = %v, want ConflictError", err)
			}
			if conflict.Kind != domain.ConflictCycleDetected {
				t.Errorf("Kind = %q, want %q", conflict.Kind, domain.ConflictCycleDetected)
			}
		})
	}
}

func TestMoveFolderNameCollisionAtTarget(t *testing.T) {
	f := newFolderFixture()

	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", nil)
	f.mustCreate(t, "reports", &a.ID)
	moving := f.mustCreate(t, "reports", &b.ID)

	_, err := f.service.MoveFolder(context.Background(), moving.ID, &services.MoveFolderRequest{
		NewParentID: &a.ID,
	})

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want ConflictError", err)
	}
	if conflict.Kind != domain.ConflictDuplicateName {
		t.Errorf("Kind = %q, want %q", conflict.Kind, domain.ConflictDuplicateName)
	}
}

func TestUpdateFolderRename(t *testing.T) {
	f := newFolderFixture()

	folder := f.mustCreate(t, "old-name", nil)

	newName := "new-name"
	updated, err := f.service.UpdateFolder(context.Background(), folder.ID, &services.UpdateFolderRequest{
		Name: &newName,
	})
	if err != nil {
		t.Fatalf("UpdateFolder() error = %v", err)
	}
	if updated.Name != newName {
		t.Errorf("Name = %q, want %q", updated.Name, newName)
	}
}

func TestUpdateFolderNoFields(t *testing.T) {
	f := newFolderFixture()

	folder := f.mustCreate(t, "unchanged", nil)

	_, err := f.service.UpdateFolder(context.Background(), folder.ID, &services.UpdateFolderRequest{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestDeleteFolderSubtree(t *testing.T) {
	f := newFolderFixture()

	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", &a.ID)
	c := f.mustCreate(t, "C", &b.ID)

	if err := f.service.DeleteFolder(context.Background(), a.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}

	for _, id := range []string{a.ID, b.ID, c.ID} {
		if _, err := f.service.GetFolder(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetFolder(%s) error = %v, want not found after subtree delete", id, err)
		}
	}
}

func TestDeleteSystemFolderRejected(t *testing.T) {
	f := newFolderFixture()

	now := time.Now()
	system := &models.Folder{
		ID:        "sys-1",
		Name:      "tender-alpha",
		IsSystem:  true,
		CreatedBy: "engine",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.folders.Create(context.Background(), system); err != nil {
		t.Fatalf("seed system folder: %v", err)
	}

	err := f.service.DeleteFolder(context.Background(), system.ID)

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want ConflictError", err)
	}
	if conflict.Kind != domain.ConflictSystemFolderProtected {
		t.Errorf("Kind = %q, want %q", conflict.Kind, domain.ConflictSystemFolderProtected)
	}
}

func TestDeleteFolderWithSystemDescendantRejected(t *testing.T) {
	f := newFolderFixture()

	a := f.mustCreate(t, "A", nil)

	// A system folder nested under A whose document was already soft-deleted:
	// the subtree is empty of active documents, but the system folder still
	// blocks deleting the ancestor.
	now := time.Now()
	system := &models.Folder{
		ID:        "sys-2",
		Name:      "tender-beta",
		ParentID:  &a.ID,
		IsSystem:  true,
		CreatedBy: "engine",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.folders.Create(context.Background(), system); err != nil {
		t.Fatalf("seed system folder: %v", err)
	}

	err := f.service.DeleteFolder(context.Background(), a.ID)

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want ConflictError", err)
	}
	if conflict.Kind != domain.ConflictSystemFolderProtected {
		t.Errorf("Kind = %q, want %q", conflict.Kind, domain.ConflictSystemFolderProtected)
	}
	if conflict.ResourceID != system.ID {
		t.Errorf("ResourceID = %q, want %q", conflict.ResourceID, system.ID)
	}

	// Neither folder was touched.
	if _, err := f.folders.GetByID(context.Background(), a.ID); err != nil {
		t.Errorf("GetByID(A) error = %v, want nil", err)
	}
	if _, err := f.folders.GetByID(context.Background(), system.ID); err != nil {
		t.Errorf("GetByID(system) error = %v, want nil", err)
	}
}

func TestMoveSystemFolderRejected(t *testing.T) {
	f := newFolderFixture()

	a := f.mustCreate(t, "A", nil)

	now := time.Now()
	system := &models.Folder{
		ID:        "sys-3",
		Name:      "tender-gamma",
		IsSystem:  true,
		CreatedBy: "engine",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.folders.Create(context.Background(), system); err != nil {
		t.Fatalf("seed system folder: %v", err)
	}

	_, err := f.service.MoveFolder(context.Background(), system.ID, &services.MoveFolderRequest{
		NewParentID: &a.ID,
	})

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want ConflictError", err)
	}
	if conflict.Kind != domain.ConflictSystemFolderProtected {
		t.Errorf("Kind = %q, want %q", conflict.Kind, domain.ConflictSystemFolderProtected)
	}

	moved, err := f.folders.GetByID(context.Background(), system.ID)
	if err != nil {
		t.Fatalf("GetByID(system) error = %v", err)
	}
	if moved.ParentID != nil {
		t.Errorf("ParentID = %v, want nil", *moved.ParentID)
	}
}

func TestDeleteFolderWithActiveDocumentsRejected(t *testing.T) {
	f := newFolderFixture()

	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", &a.ID)

	// An active document deep in the subtree blocks deleting the ancestor.
	now := time.Now()
	doc := &models.Document{
		ID:          "doc-1",
		Name:        "report.pdf",
		ContentHash: "hash-1",
		Category:    models.CategoryReport,
		FolderID:    &b.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.docs.Create(context.Background(), doc, &models.DocumentVersion{ID: "v1", DocumentID: doc.ID, CreatedAt: now}); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	err := f.service.DeleteFolder(context.Background(), a.ID)

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want ConflictError", err)
	}
	if conflict.Kind != domain.ConflictFolderNotEmpty {
		t.Errorf("Kind = %q, want %q", conflict.Kind, domain.ConflictFolderNotEmpty)
	}

	// Soft-deleting the document unblocks the delete.
	if err := f.docs.SoftDelete(context.Background(), doc.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}
	if err := f.service.DeleteFolder(context.Background(), a.ID); err != nil {
		t.Errorf("DeleteFolder() after soft delete error = %v", err)
	}
}
