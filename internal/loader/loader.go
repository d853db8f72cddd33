// Package loader reads and parses code-owner configs through a store
// snapshot, caching parse results by (key, revision) and deduplicating
// concurrent identical loads.
package loader

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"pathowners/internal/codec"
	"pathowners/internal/model"
	"pathowners/internal/store"
)

// Loader parses config files of one dialect. It is safe for concurrent use;
// cached entries are invalidated purely by revision change (never by time),
// so a stale snapshot can keep serving its own revision consistently.
type Loader struct {
	codec     codec.Codec
	fileNames []string

	cache sync.Map // cacheKey -> cacheEntry
	group singleflight.Group
}

type cacheEntry struct {
	cfg *model.CodeOwnerConfig
	err error
}

// New builds a loader. fileNames are the config file names probed in order
// when loading a folder (e.g. "OWNERS", "OWNERS.ext").
func New(c codec.Codec, fileNames []string) *Loader {
	return &Loader{codec: c, fileNames: fileNames}
}

func (l *Loader) Codec() codec.Codec {
	return l.codec
}

// FileNames returns the config file names this loader probes for.
func (l *Loader) FileNames() []string {
	return append([]string(nil), l.fileNames...)
}

// LoadFolder loads the config governing key's folder, probing the configured
// file names in order. A folder with no config file yields (nil, nil); that
// is the normal "no contribution" case. Malformed content fails with a
// *codec.ParseError.
func (l *Loader) LoadFolder(ctx context.Context, snap store.Snapshot, key model.CodeOwnerConfigKey) (*model.CodeOwnerConfig, error) {
	for _, name := range l.fileNames {
		cfg, found, err := l.LoadFile(ctx, snap, key, name)
		if err != nil {
			return nil, err
		}
		if found {
			return cfg, nil
		}
	}
	return nil, nil
}

// LoadFile loads and parses one named config file in key's folder. found
// reports whether the file exists at all.
func (l *Loader) LoadFile(ctx context.Context, snap store.Snapshot, key model.CodeOwnerConfigKey, fileName string) (*model.CodeOwnerConfig, bool, error) {
	filePath := key.FilePath(fileName)
	flightKey := key.Project + ":" + key.Branch + ":" + filePath + "@" + snap.Revision()

	if cached, ok := l.cache.Load(flightKey); ok {
		entry := cached.(cacheEntry)
		return entry.cfg, entry.cfg != nil || entry.err != nil, entry.err
	}

	v, err, _ := l.group.Do(flightKey, func() (interface{}, error) {
		blob, err := snap.Load(ctx, filePath)
		if err != nil {
			return cacheEntry{}, err
		}
		if blob == nil {
			entry := cacheEntry{}
			l.cache.Store(flightKey, entry)
			return entry, nil
		}
		cfg, parseErr := l.codec.Parse(key, snap.Revision(), blob.Content)
		entry := cacheEntry{cfg: cfg, err: parseErr}
		l.cache.Store(flightKey, entry)
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	entry := v.(cacheEntry)
	return entry.cfg, entry.cfg != nil || entry.err != nil, entry.err
}

// LoadFileLenient is the diagnostic variant: malformed lines are returned as
// problems instead of failing the load.
func (l *Loader) LoadFileLenient(ctx context.Context, snap store.Snapshot, key model.CodeOwnerConfigKey, fileName string) (*model.CodeOwnerConfig, []codec.LineProblem, bool, error) {
	filePath := key.FilePath(fileName)
	blob, err := snap.Load(ctx, filePath)
	if err != nil {
		return nil, nil, false, err
	}
	if blob == nil {
		return nil, nil, false, nil
	}
	cfg, problems := l.codec.ParseLenient(key, snap.Revision(), blob.Content)
	return cfg, problems, true, nil
}

// SnapshotSet pins each (project, branch) pair at its current revision the
// first time it is touched during a query, so cross-branch imports and the
// folder walk all read consistent state.
type SnapshotSet struct {
	store store.Store

	mu    sync.Mutex
	snaps map[branchKey]store.Snapshot
}

type branchKey struct {
	project string
	branch  string
}

func NewSnapshotSet(s store.Store) *SnapshotSet {
	return &SnapshotSet{store: s, snaps: make(map[branchKey]store.Snapshot)}
}

// For returns the pinned snapshot for a branch, creating it on first use. A
// missing branch yields (nil, nil).
func (s *SnapshotSet) For(ctx context.Context, project, branch string) (store.Snapshot, error) {
	k := branchKey{project: project, branch: branch}

	s.mu.Lock()
	snap, ok := s.snaps[k]
	s.mu.Unlock()
	if ok {
		return snap, nil
	}

	snap, err := s.store.Snapshot(ctx, project, branch)
	if err != nil {
		return nil, fmt.Errorf("pinning %s:%s: %w", project, branch, err)
	}

	s.mu.Lock()
	// Keep the first snapshot if another goroutine raced us here; a query
	// must never observe two revisions of the same branch.
	if existing, ok := s.snaps[k]; ok {
		snap = existing
	} else {
		s.snaps[k] = snap
	}
	s.mu.Unlock()
	return snap, nil
}
