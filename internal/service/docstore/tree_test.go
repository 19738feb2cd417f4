package docstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"arkiv/internal/domain"
	"arkiv/internal/domain/models"
	"arkiv/internal/domain/services"
)

type treeFixture struct {
	*ingestFixture
	tree services.TreeService
}

func newTreeFixture() *treeFixture {
	f := newIngestFixture()
	return &treeFixture{
		ingestFixture: f,
		tree:          NewTreeService(f.folders, f.docs, nil, testLogger()),
	}
}

func TestGetTree(t *testing.T) {
	f := newTreeFixture()
	ctx := context.Background()

	a := f.mustCreateFolder(t, "A")
	child, err := f.folderService.CreateFolder(ctx, &services.CreateFolderRequest{
		Name: "child", ParentID: &a.ID, CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	f.mustCreateFolder(t, "B")

	f.mustIngest(t, "nested.txt", models.CategoryGeneral, &child.ID, "nested doc")
	f.mustIngest(t, "loose.txt", models.CategoryGeneral, nil, "rootless doc")

	tree, err := f.tree.GetTree(ctx)
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}

	if len(tree.Folders) != 2 {
		t.Fatalf("root folder count = %d, want 2", len(tree.Folders))
	}
	if len(tree.Documents) != 1 || tree.Documents[0].Name != "loose.txt" {
		t.Errorf("root documents = %+v, want just loose.txt", tree.Documents)
	}

	var nodeA *models.FolderTreeNode
	for _, n := range tree.Folders {
		if n.ID == a.ID {
			nodeA = n
		}
	}
	if nodeA == nil {
		t.Fatal("folder A missing from tree")
	}
	if len(nodeA.Folders) != 1 || nodeA.Folders[0].ID != child.ID {
		t.Fatalf("A children = %+v, want [child]", nodeA.Folders)
	}
	docs := nodeA.Folders[0].Documents
	if len(docs) != 1 || docs[0].Name != "nested.txt" {
		t.Errorf("child documents = %+v, want [nested.txt]", docs)
	}
}

func TestGetFolderSummaryAggregatesSubtree(t *testing.T) {
	f := newTreeFixture()
	ctx := context.Background()

	a := f.mustCreateFolder(t, "A")
	child, err := f.folderService.CreateFolder(ctx, &services.CreateFolderRequest{
		Name: "child", ParentID: &a.ID, CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	f.mustIngest(t, "top.txt", models.CategoryGeneral, &a.ID, strings.Repeat("x", 10))
	f.mustIngest(t, "deep.txt", models.CategoryGeneral, &child.ID, strings.Repeat("y", 5))

	summary, err := f.tree.GetFolderSummary(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetFolderSummary() error = %v", err)
	}

	if summary.FolderID != a.ID {
		t.Errorf("FolderID = %s, want %s", summary.FolderID, a.ID)
	}
	if summary.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", summary.TotalDocuments)
	}
	if summary.ActiveDocuments != 2 {
		t.Errorf("ActiveDocuments = %d, want 2", summary.ActiveDocuments)
	}
	if summary.TotalBytes != 15 {
		t.Errorf("TotalBytes = %d, want 15", summary.TotalBytes)
	}

	// The child's own summary excludes the parent's document.
	childSummary, err := f.tree.GetFolderSummary(ctx, child.ID)
	if err != nil {
		t.Fatalf("GetFolderSummary(child) error = %v", err)
	}
	if childSummary.TotalDocuments != 1 {
		t.Errorf("child TotalDocuments = %d, want 1", childSummary.TotalDocuments)
	}
}

func TestGetFolderSummaryMissingFolder(t *testing.T) {
	f := newTreeFixture()

	_, err := f.tree.GetFolderSummary(context.Background(), "no-such-folder")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestListContents(t *testing.T) {
	f := newTreeFixture()
	ctx := context.Background()

	a := f.mustCreateFolder(t, "A")
	child, err := f.folderService.CreateFolder(ctx, &services.CreateFolderRequest{
		Name: "child", ParentID: &a.ID, CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	f.mustIngest(t, "direct.txt", models.CategoryGeneral, &a.ID, "direct doc")
	f.mustIngest(t, "nested.txt", models.CategoryGeneral, &child.ID, "nested doc")

	contents, err := f.tree.ListContents(ctx, &a.ID)
	if err != nil {
		t.Fatalf("ListContents() error = %v", err)
	}

	// Immediate children only: the nested document belongs to child's listing.
	if len(contents.Folders) != 1 || contents.Folders[0].ID != child.ID {
		t.Errorf("Folders = %+v, want [child]", contents.Folders)
	}
	if len(contents.Documents) != 1 || contents.Documents[0].Name != "direct.txt" {
		t.Errorf("Documents = %+v, want [direct.txt]", contents.Documents)
	}

	empty, err := f.tree.ListContents(ctx, &child.ID)
	if err != nil {
		t.Fatalf("ListContents(child) error = %v", err)
	}
	if len(empty.Folders) != 0 {
		t.Errorf("child Folders = %+v, want empty", empty.Folders)
	}
	if len(empty.Documents) != 1 || empty.Documents[0].Name != "nested.txt" {
		t.Errorf("child Documents = %+v, want [nested.txt]", empty.Documents)
	}
}

func TestListContentsRootLevel(t *testing.T) {
	f := newTreeFixture()
	ctx := context.Background()

	a := f.mustCreateFolder(t, "A")
	f.mustIngest(t, "loose.txt", models.CategoryGeneral, nil, "rootless doc")

	contents, err := f.tree.ListContents(ctx, nil)
	if err != nil {
		t.Fatalf("ListContents(nil) error = %v", err)
	}
	if len(contents.Folders) != 1 || contents.Folders[0].ID != a.ID {
		t.Errorf("Folders = %+v, want [A]", contents.Folders)
	}
	if len(contents.Documents) != 1 || contents.Documents[0].Name != "loose.txt" {
		t.Errorf("Documents = %+v, want [loose.txt]", contents.Documents)
	}
}

func TestListContentsMissingFolder(t *testing.T) {
	f := newTreeFixture()

	id := "no-such-folder"
	_, err := f.tree.ListContents(context.Background(), &id)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
