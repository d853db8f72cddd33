// Package store defines revision-pinned access to code-owner config files
// keyed by (project, branch, path), plus the backends that implement it.
//
// The resolver never touches storage directly; it reads through a Snapshot so
// that every load in a single ownership query sees one consistent revision of
// the branch.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBranchMissing is returned by Save when the target branch does not
	// exist. Writes never create branches implicitly.
	ErrBranchMissing = errors.New("branch does not exist")

	// ErrRevisionMismatch is returned by Save when the optimistic-concurrency
	// precondition failed because the config changed underneath the writer.
	ErrRevisionMismatch = errors.New("config was modified concurrently")
)

// Author identifies who a Save is attributed to.
type Author struct {
	Name  string
	Email string
}

// Blob is raw config content read from a snapshot. Revision is the
// backend-defined precondition token to pass to Save when overwriting this
// content.
type Blob struct {
	Path     string
	Revision string
	Content  []byte
}

// Snapshot is a read-only view of one branch pinned at a single revision.
// All loads for one ownership query must go through the same snapshot.
type Snapshot interface {
	// Revision identifies the pinned state (e.g. a commit hash).
	Revision() string

	// Load reads the file at the given absolute path. It returns nil (and no
	// error) when the file does not exist; absence is a normal outcome, not
	// a failure.
	Load(ctx context.Context, filePath string) (*Blob, error)

	// Files lists the absolute paths of all files in the snapshot whose base
	// name equals baseName, in lexical order.
	Files(ctx context.Context, baseName string) ([]string, error)
}

// Store is the abstract config storage backend.
type Store interface {
	BranchExists(ctx context.Context, project, branch string) (bool, error)

	// Snapshot pins the branch at its current revision. It returns nil (and
	// no error) when the branch does not exist.
	Snapshot(ctx context.Context, project, branch string) (Snapshot, error)

	// Save writes content to filePath on the branch and returns the new
	// revision. expectedRevision must be the Revision of the Blob the caller
	// read before modifying, or empty when the file is expected not to exist
	// yet. A failed precondition yields ErrRevisionMismatch; a missing branch
	// yields ErrBranchMissing. A nil content deletes the file.
	Save(ctx context.Context, project, branch, filePath, expectedRevision string, content []byte, author Author) (string, error)
}

// SaveRetryAttempts bounds how often SaveWithRetry re-reads and retries after
// a concurrent modification.
const SaveRetryAttempts = 5

// SaveWithRetry runs a read-modify-write loop against a single config file:
// it loads the current content, applies update, and saves with the loaded
// revision as precondition, retrying a bounded number of times when a
// concurrent writer wins the race. update receives nil when the file does
// not exist; returning nil content deletes the file.
func SaveWithRetry(ctx context.Context, s Store, project, branch, filePath string, author Author, update func(prev *Blob) ([]byte, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < SaveRetryAttempts; attempt++ {
		snap, err := s.Snapshot(ctx, project, branch)
		if err != nil {
			return "", err
		}
		if snap == nil {
			return "", fmt.Errorf("%w: %s:%s", ErrBranchMissing, project, branch)
		}

		prev, err := snap.Load(ctx, filePath)
		if err != nil {
			return "", err
		}

		content, err := update(prev)
		if err != nil {
			return "", err
		}

		expected := ""
		if prev != nil {
			expected = prev.Revision
		}
		rev, err := s.Save(ctx, project, branch, filePath, expected, content, author)
		if err == nil {
			return rev, nil
		}
		if !errors.Is(err, ErrRevisionMismatch) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("saving %s on %s:%s: retries exhausted: %w", filePath, project, branch, lastErr)
}
