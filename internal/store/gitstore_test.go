package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

func initTestRepo(t *testing.T, files map[string]string) *git.Repository {
	t.Helper()
	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	if err != nil {
		t.Fatalf("git.Init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	for path, content := range files {
		if err := util.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", path, err)
		}
		if _, err := wt.Add(path); err != nil {
			t.Fatalf("Add %s: %v", path, err)
		}
	}
	sig := &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return repo
}

func TestGitStoreSnapshot(t *testing.T) {
	repo := initTestRepo(t, map[string]string{
		"OWNERS":      "root@example.com\n",
		"src/OWNERS":  "src@example.com\n",
		"src/main.go": "package main\n",
	})
	s := OpenRepository("backend", repo)
	ctx := context.Background()

	ok, err := s.BranchExists(ctx, "backend", "master")
	if err != nil || !ok {
		t.Fatalf("BranchExists(master) = %v, %v", ok, err)
	}
	ok, err = s.BranchExists(ctx, "backend", "release-1")
	if err != nil || ok {
		t.Fatalf("BranchExists(release-1) = %v, %v", ok, err)
	}

	snap, err := s.Snapshot(ctx, "backend", "master")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("Snapshot returned nil for existing branch")
	}
	if snap.Revision() == "" {
		t.Error("snapshot revision is empty")
	}

	blob, err := snap.Load(ctx, "/src/OWNERS")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if blob == nil || string(blob.Content) != "src@example.com\n" {
		t.Fatalf("Load returned %+v", blob)
	}
	if blob.Revision != snap.Revision() {
		t.Errorf("blob revision %q != snapshot revision %q", blob.Revision, snap.Revision())
	}

	missing, err := snap.Load(ctx, "/nope/OWNERS")
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if missing != nil {
		t.Errorf("Load of missing file = %+v, want nil", missing)
	}

	files, err := snap.Files(ctx, "OWNERS")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"/OWNERS", "/src/OWNERS"}
	if len(files) != 2 || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("Files = %v, want %v", files, want)
	}

	// Missing branch yields a nil snapshot, not an error.
	none, err := s.Snapshot(ctx, "backend", "release-1")
	if err != nil {
		t.Fatalf("Snapshot missing branch: %v", err)
	}
	if none != nil {
		t.Error("Snapshot of missing branch should be nil")
	}
}

func TestGitStoreSave(t *testing.T) {
	repo := initTestRepo(t, map[string]string{
		"OWNERS": "root@example.com\n",
	})
	s := OpenRepository("backend", repo)
	ctx := context.Background()

	snap, err := s.Snapshot(ctx, "backend", "master")
	if err != nil || snap == nil {
		t.Fatalf("Snapshot: %v, %v", snap, err)
	}
	head := snap.Revision()

	// Create a new file in a new folder; empty revision means "must not exist".
	rev, err := s.Save(ctx, "backend", "master", "/src/api/OWNERS", "", []byte("api@example.com\n"), Author{Name: "jane", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Save create: %v", err)
	}
	if rev == "" || rev == head {
		t.Fatalf("Save returned revision %q, head was %q", rev, head)
	}

	// The old snapshot stays pinned to the pre-save tree.
	if blob, err := snap.Load(ctx, "/src/api/OWNERS"); err != nil || blob != nil {
		t.Errorf("pinned snapshot sees new file: %+v, %v", blob, err)
	}

	// A fresh snapshot sees the new file.
	snap2, err := s.Snapshot(ctx, "backend", "master")
	if err != nil || snap2 == nil {
		t.Fatalf("Snapshot: %v, %v", snap2, err)
	}
	blob, err := snap2.Load(ctx, "/src/api/OWNERS")
	if err != nil || blob == nil {
		t.Fatalf("Load after save: %+v, %v", blob, err)
	}
	if string(blob.Content) != "api@example.com\n" {
		t.Errorf("content = %q", blob.Content)
	}

	// Creating over an existing file must fail.
	if _, err := s.Save(ctx, "backend", "master", "/src/api/OWNERS", "", []byte("x\n"), Author{}); !errors.Is(err, ErrRevisionMismatch) {
		t.Fatalf("Save create over existing = %v, want ErrRevisionMismatch", err)
	}

	// Stale revision (the old head) must fail.
	if _, err := s.Save(ctx, "backend", "master", "/src/api/OWNERS", head, []byte("x\n"), Author{}); !errors.Is(err, ErrRevisionMismatch) {
		t.Fatalf("Save with stale revision = %v, want ErrRevisionMismatch", err)
	}

	// Update with the current revision.
	rev2, err := s.Save(ctx, "backend", "master", "/src/api/OWNERS", rev, []byte("api2@example.com\n"), Author{})
	if err != nil {
		t.Fatalf("Save update: %v", err)
	}

	// Delete with nil content.
	if _, err := s.Save(ctx, "backend", "master", "/src/api/OWNERS", rev2, nil, Author{}); err != nil {
		t.Fatalf("Save delete: %v", err)
	}
	snap3, err := s.Snapshot(ctx, "backend", "master")
	if err != nil || snap3 == nil {
		t.Fatalf("Snapshot: %v, %v", snap3, err)
	}
	if blob, err := snap3.Load(ctx, "/src/api/OWNERS"); err != nil || blob != nil {
		t.Errorf("file still present after delete: %+v, %v", blob, err)
	}

	// The untouched root file survived all tree rewrites.
	if blob, err := snap3.Load(ctx, "/OWNERS"); err != nil || blob == nil || string(blob.Content) != "root@example.com\n" {
		t.Errorf("root file corrupted: %+v, %v", blob, err)
	}

	// Missing branch.
	if _, err := s.Save(ctx, "backend", "release-1", "/OWNERS", "", []byte("x"), Author{}); !errors.Is(err, ErrBranchMissing) {
		t.Fatalf("Save on missing branch = %v, want ErrBranchMissing", err)
	}
}
