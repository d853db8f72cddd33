package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage"
)

// GitStore serves configs from local Git repositories, one per project,
// located under a common root directory. Snapshots are pinned to the branch
// head commit at snapshot time, so a whole ownership query reads one
// consistent tree even while the branch advances.
//
// Save commits directly against the object store and advances the branch ref
// with a compare-and-swap, which is what makes the optimistic-concurrency
// precondition atomic.
type GitStore struct {
	root string

	mu    sync.Mutex
	repos map[string]*git.Repository
}

func NewGitStore(root string) *GitStore {
	return &GitStore{root: root, repos: make(map[string]*git.Repository)}
}

// OpenRepository wraps a single already-open repository as a GitStore that
// serves exactly one project name.
func OpenRepository(project string, repo *git.Repository) *GitStore {
	return &GitStore{repos: map[string]*git.Repository{project: repo}}
}

func (s *GitStore) repository(project string) (*git.Repository, error) {
	if project == "" || strings.Contains(project, "..") {
		return nil, fmt.Errorf("invalid project name: %q", project)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if repo, ok := s.repos[project]; ok {
		return repo, nil
	}
	if s.root == "" {
		return nil, fmt.Errorf("unknown project: %q", project)
	}

	var lastErr error
	for _, candidate := range []string{
		filepath.Join(s.root, filepath.FromSlash(project)),
		filepath.Join(s.root, filepath.FromSlash(project)+".git"),
	} {
		repo, err := git.PlainOpen(candidate)
		if err == nil {
			s.repos[project] = repo
			return repo, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("opening project %q under %s: %w", project, s.root, lastErr)
}

func (s *GitStore) branchHead(project, branch string) (*git.Repository, *plumbing.Reference, error) {
	repo, err := s.repository(project)
	if err != nil {
		return nil, nil, err
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return repo, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return repo, ref, nil
}

func (s *GitStore) BranchExists(ctx context.Context, project, branch string) (bool, error) {
	_, ref, err := s.branchHead(project, branch)
	return ref != nil, err
}

func (s *GitStore) Snapshot(ctx context.Context, project, branch string) (Snapshot, error) {
	repo, ref, err := s.branchHead(project, branch)
	if err != nil || ref == nil {
		return nil, err
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", ref.Hash(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading tree of %s: %w", ref.Hash(), err)
	}
	return &gitSnapshot{revision: ref.Hash().String(), tree: tree}, nil
}

func (s *GitStore) Save(ctx context.Context, project, branch, filePath, expectedRevision string, content []byte, author Author) (string, error) {
	repo, ref, err := s.branchHead(project, branch)
	if err != nil {
		return "", err
	}
	if ref == nil {
		return "", fmt.Errorf("%w: %s:%s", ErrBranchMissing, project, branch)
	}

	head := ref.Hash()
	relPath := strings.TrimPrefix(path.Clean(filePath), "/")

	commit, err := repo.CommitObject(head)
	if err != nil {
		return "", err
	}
	tree, err := commit.Tree()
	if err != nil {
		return "", err
	}

	_, statErr := tree.File(relPath)
	exists := statErr == nil
	if statErr != nil && !isFileNotFound(statErr) {
		return "", statErr
	}

	if expectedRevision == "" {
		if exists {
			return "", fmt.Errorf("%w: %s already exists", ErrRevisionMismatch, filePath)
		}
	} else if expectedRevision != head.String() {
		return "", fmt.Errorf("%w: %s advanced from %s to %s", ErrRevisionMismatch, branch, expectedRevision, head)
	}

	var blobHash plumbing.Hash
	if content != nil {
		blobHash, err = writeBlob(repo.Storer, content)
		if err != nil {
			return "", err
		}
	}

	newTreeHash, err := updateTree(repo.Storer, tree, strings.Split(relPath, "/"), blobHash, content == nil)
	if err != nil {
		return "", err
	}

	sig := object.Signature{Name: author.Name, Email: author.Email, When: time.Now()}
	if sig.Name == "" {
		sig.Name = "pathowners"
	}
	if sig.Email == "" {
		sig.Email = "pathowners@localhost"
	}
	message := fmt.Sprintf("Update %s", relPath)
	if content == nil {
		message = fmt.Sprintf("Delete %s", relPath)
	}

	newCommit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     newTreeHash,
		ParentHashes: []plumbing.Hash{head},
	}
	obj := repo.Storer.NewEncodedObject()
	if err := newCommit.Encode(obj); err != nil {
		return "", err
	}
	commitHash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", err
	}

	newRef := plumbing.NewHashReference(ref.Name(), commitHash)
	if err := repo.Storer.CheckAndSetReference(newRef, ref); err != nil {
		if errors.Is(err, storage.ErrReferenceHasChanged) {
			return "", fmt.Errorf("%w: %s", ErrRevisionMismatch, branch)
		}
		return "", err
	}
	return commitHash.String(), nil
}

type gitSnapshot struct {
	revision string
	tree     *object.Tree
}

func (s *gitSnapshot) Revision() string {
	return s.revision
}

func (s *gitSnapshot) Load(ctx context.Context, filePath string) (*Blob, error) {
	relPath := strings.TrimPrefix(path.Clean(filePath), "/")
	f, err := s.tree.File(relPath)
	if err != nil {
		if isFileNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return &Blob{Path: filePath, Revision: s.revision, Content: []byte(content)}, nil
}

func (s *gitSnapshot) Files(ctx context.Context, baseName string) ([]string, error) {
	var out []string
	err := s.tree.Files().ForEach(func(f *object.File) error {
		if path.Base(f.Name) == baseName {
			out = append(out, "/"+f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func isFileNotFound(err error) bool {
	return errors.Is(err, object.ErrFileNotFound) ||
		errors.Is(err, object.ErrEntryNotFound) ||
		errors.Is(err, object.ErrDirectoryNotFound)
}

func writeBlob(s storer.EncodedObjectStorer, content []byte) (plumbing.Hash, error) {
	obj := s.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(obj)
}

// updateTree rebuilds the tree objects along segments so that the addressed
// file is replaced (or removed) and returns the new root tree hash. Entry
// order follows git's tree sort rule, where directories compare as "name/".
func updateTree(s storer.EncodedObjectStorer, tree *object.Tree, segments []string, blobHash plumbing.Hash, remove bool) (plumbing.Hash, error) {
	var entries []object.TreeEntry
	if tree != nil {
		entries = append(entries, tree.Entries...)
	}

	name := segments[0]
	idx := -1
	for i, e := range entries {
		if e.Name == name {
			idx = i
			break
		}
	}

	if len(segments) == 1 {
		if remove {
			if idx >= 0 {
				entries = append(entries[:idx], entries[idx+1:]...)
			}
		} else {
			entry := object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: blobHash}
			if idx >= 0 {
				entries[idx] = entry
			} else {
				entries = append(entries, entry)
			}
		}
		return writeTree(s, entries)
	}

	var subtree *object.Tree
	if idx >= 0 && entries[idx].Mode == filemode.Dir {
		var err error
		subtree, err = object.GetTree(s, entries[idx].Hash)
		if err != nil {
			return plumbing.ZeroHash, err
		}
	}

	subHash, err := updateTree(s, subtree, segments[1:], blobHash, remove)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	entry := object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: subHash}
	if idx >= 0 {
		entries[idx] = entry
	} else {
		entries = append(entries, entry)
	}
	return writeTree(s, entries)
}

func writeTree(s storer.EncodedObjectStorer, entries []object.TreeEntry) (plumbing.Hash, error) {
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})
	tree := &object.Tree{Entries: entries}
	obj := s.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(obj)
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}
