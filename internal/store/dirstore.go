package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore serves configs from a plain directory tree, mapping each project
// to a subdirectory of the root. It exposes exactly one branch (the working
// tree has no others). Revisions are content hashes, which gives Save a real
// precondition but makes snapshot pinning best-effort: DirStore is meant for
// local CLI runs and tests, not for concurrent writers.
type DirStore struct {
	root   string
	branch string
}

func NewDirStore(root, branch string) *DirStore {
	if branch == "" {
		branch = "main"
	}
	return &DirStore{root: root, branch: branch}
}

func (s *DirStore) projectDir(project string) (string, error) {
	if project == "" || strings.Contains(project, "..") {
		return "", fmt.Errorf("invalid project name: %q", project)
	}
	return filepath.Join(s.root, filepath.FromSlash(project)), nil
}

func (s *DirStore) BranchExists(ctx context.Context, project, branch string) (bool, error) {
	if branch != s.branch {
		return false, nil
	}
	dir, err := s.projectDir(project)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (s *DirStore) Snapshot(ctx context.Context, project, branch string) (Snapshot, error) {
	ok, err := s.BranchExists(ctx, project, branch)
	if err != nil || !ok {
		return nil, err
	}
	dir, err := s.projectDir(project)
	if err != nil {
		return nil, err
	}
	return &dirSnapshot{dir: dir}, nil
}

func (s *DirStore) Save(ctx context.Context, project, branch, filePath, expectedRevision string, content []byte, author Author) (string, error) {
	ok, err := s.BranchExists(ctx, project, branch)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s:%s", ErrBranchMissing, project, branch)
	}

	dir, err := s.projectDir(project)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(path.Clean(filePath), "/")))

	current, err := os.ReadFile(target)
	switch {
	case os.IsNotExist(err):
		if expectedRevision != "" {
			return "", fmt.Errorf("%w: %s no longer exists", ErrRevisionMismatch, filePath)
		}
	case err != nil:
		return "", err
	default:
		if expectedRevision != contentHash(current) {
			return "", fmt.Errorf("%w: %s", ErrRevisionMismatch, filePath)
		}
	}

	if content == nil {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return "", err
		}
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	// Write through a temp file so readers never observe a torn write.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".pathowners-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return contentHash(content), nil
}

type dirSnapshot struct {
	dir string
}

func (s *dirSnapshot) Revision() string {
	return "working-tree"
}

func (s *dirSnapshot) Load(ctx context.Context, filePath string) (*Blob, error) {
	target := filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(path.Clean(filePath), "/")))
	content, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Blob{Path: filePath, Revision: contentHash(content), Content: content}, nil
}

func (s *dirSnapshot) Files(ctx context.Context, baseName string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != baseName {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		out = append(out, "/"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func contentHash(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}
