// Package owners evaluates which users own a path: it walks the folder
// hierarchy from the path's leaf folder up to the repository root, merging
// per-file rules, global owners, imports, default/global code owners, and
// the fallback policy into a final ownership decision.
package owners

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"

	"pathowners/internal/codec"
	"pathowners/internal/loader"
	"pathowners/internal/model"
	"pathowners/internal/resolve"
	"pathowners/internal/settings"
	"pathowners/internal/store"
)

// Options control one ownership query.
type Options struct {
	// ResolveAllUsers replaces the all-users wildcard with a bounded,
	// reproducibly seeded sample drawn from AllUsers.
	ResolveAllUsers bool
	// AllUsers is the directory of eligible accounts used for wildcard
	// sampling. Injected by the caller; the resolver has no account access.
	AllUsers []string
	// Seed makes tie shuffling and wildcard sampling reproducible.
	Seed int64
	// Limit caps the number of returned owners. Zero means no cap.
	Limit int
	// Lenient treats unparsable configs as "no contribution" instead of
	// failing the query. Reserved for diagnostic paths; ownership decisions
	// must not silently ignore broken configs.
	Lenient bool
}

// Owner is one resolved owner with its provenance.
type Owner struct {
	Reference   model.CodeOwnerReference `json:"reference"`
	Annotations []string                 `json:"annotations,omitempty"`
	// Distance is the number of folder levels walked before the owner was
	// found; closer owners score higher.
	Distance int `json:"distance"`
	// Sources lists where the ownership came from: config file paths, or the
	// markers "<default>", "<global>", "<fallback>".
	Sources []string `json:"sources,omitempty"`
}

// PathOwners is the ownership decision for one path.
type PathOwners struct {
	Path            string                        `json:"path"`
	Owners          []Owner                       `json:"owners"`
	OwnedByAllUsers bool                          `json:"owned_by_all_users"`
	Unresolved      []model.CodeOwnerConfigImport `json:"-"`
	DebugLogs       []string                      `json:"debug_logs,omitempty"`
}

const (
	sourceDefault  = "<default>"
	sourceGlobal   = "<global>"
	sourceFallback = "<fallback>"
)

// Resolver answers ownership queries against a config store. It holds no
// per-query state and is safe for concurrent use.
type Resolver struct {
	store store.Store
}

func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// OwnersOf determines the owners of filePath on the given branch. The whole
// walk, including cross-branch imports, is pinned to one snapshot per branch.
func (r *Resolver) OwnersOf(ctx context.Context, project, branch, filePath string, opts Options) (*PathOwners, error) {
	snaps := loader.NewSnapshotSet(r.store)
	snap, err := snaps.For(ctx, project, branch)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s:%s", store.ErrBranchMissing, project, branch)
	}

	cfg, err := settings.Load(ctx, snap)
	if err != nil {
		return nil, err
	}

	c, err := codec.ForBackend(codec.Backend(cfg.Backend))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", settings.ErrInvalidConfiguration, err)
	}
	ld := loader.New(c, cfg.FileNames())
	res := resolve.New(ld, snaps).WithLimits(cfg.MaxImportDepth, 0)

	w := &walk{
		resolver: r,
		loader:   ld,
		resolve:  res,
		settings: cfg,
		snap:     snap,
		project:  project,
		branch:   branch,
		opts:     opts,
	}
	return w.run(ctx, filePath)
}

// walk carries the state of a single query so the Resolver itself stays
// stateless.
type walk struct {
	resolver *Resolver
	loader   *loader.Loader
	resolve  *resolve.Resolver
	settings *settings.Settings
	snap     store.Snapshot
	project  string
	branch   string
	opts     Options

	result  PathOwners
	acc     map[model.CodeOwnerReference]*Owner
	stopped bool
}

func (w *walk) run(ctx context.Context, filePath string) (*PathOwners, error) {
	filePath = "/" + strings.TrimPrefix(path.Clean(filePath), "/")
	w.result = PathOwners{Path: filePath}
	w.acc = make(map[model.CodeOwnerReference]*Owner)

	distance := 0
	key := model.NewCodeOwnerConfigKey(w.project, w.branch, path.Dir(filePath))
	for {
		if err := w.visitFolder(ctx, key, filePath, distance); err != nil {
			return nil, err
		}
		if w.stopped {
			w.logf("stopping at %s: parent code owners are ignored", key.FolderPath)
			break
		}
		parent, ok := key.ParentFolder()
		if !ok {
			break
		}
		key = parent
		distance++
	}

	if !w.stopped {
		w.applyConfiguredOwners(distance)
	}

	w.finishWildcard()
	w.result.Owners = rankOwners(collectOwners(w.acc), w.opts.Seed, w.opts.Limit)
	return &w.result, nil
}

// visitFolder merges one folder level's contribution into the accumulator,
// implementing the precedence rules between per-file rules, this folder's
// global owners, and the noparent flags.
func (w *walk) visitFolder(ctx context.Context, key model.CodeOwnerConfigKey, filePath string, distance int) error {
	cfg, err := w.loadFolder(ctx, key)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	eff, err := w.resolve.Resolve(ctx, cfg, key.FilePath(w.loader.FileNames()[0]))
	if err != nil {
		return err
	}
	w.result.Unresolved = append(w.result.Unresolved, eff.Unresolved...)
	for _, imp := range eff.Unresolved {
		w.logf("unresolved import in %s: %s", key.FolderPath, imp.Message)
	}

	relPath := strings.TrimPrefix(filePath, key.FolderPath)
	perFileOverride := false
	matchedAny := false

	for _, set := range eff.PerFileSets {
		if !matchesAny(set.PathExpressions, relPath) {
			continue
		}
		matchedAny = true
		if set.IgnoreGlobalAndParentCodeOwners {
			perFileOverride = true
		}
		for _, ref := range set.CodeOwners {
			w.addOwner(ref, distance, key.FilePath(w.loader.FileNames()[0]), set.AnnotationsFor(ref))
		}
	}
	if matchedAny {
		w.logf("per-file rules in %s matched %s", key.FolderPath, relPath)
	}

	if perFileOverride {
		// The matching per-file rule suppresses this folder's global owners
		// and everything above it; its own owners were kept above.
		w.logf("per-file rule in %s ignores global and parent code owners for %s", key.FolderPath, relPath)
		w.stopped = true
		return nil
	}

	for _, set := range eff.GlobalSets {
		for _, ref := range set.CodeOwners {
			w.addOwner(ref, distance, key.FilePath(w.loader.FileNames()[0]), set.AnnotationsFor(ref))
		}
	}

	if eff.IgnoreParentCodeOwners {
		w.stopped = true
	}
	return nil
}

func (w *walk) loadFolder(ctx context.Context, key model.CodeOwnerConfigKey) (*model.CodeOwnerConfig, error) {
	if !w.opts.Lenient {
		return w.loader.LoadFolder(ctx, w.snap, key)
	}
	for _, name := range w.loader.FileNames() {
		cfg, problems, found, err := w.loader.LoadFileLenient(ctx, w.snap, key, name)
		if err != nil {
			return nil, err
		}
		for _, p := range problems {
			w.logf("ignoring invalid content in %s: %s", key.FilePath(name), p)
		}
		if found {
			return cfg, nil
		}
	}
	return nil, nil
}

// applyConfiguredOwners merges default and global code owners like
// root-level global owners, then consults the fallback policy only when the
// accumulator is still empty.
func (w *walk) applyConfiguredOwners(rootDistance int) {
	for _, email := range w.settings.DefaultOwners {
		w.addOwner(model.NewCodeOwnerReference(email), rootDistance+1, sourceDefault, nil)
	}
	for _, email := range w.settings.GlobalOwners {
		w.addOwner(model.NewCodeOwnerReference(email), rootDistance+2, sourceGlobal, nil)
	}
	if len(w.acc) > 0 {
		return
	}

	switch w.settings.Fallback.Policy {
	case settings.FallbackAllUsers:
		w.logf("no code owners found; falling back to all users")
		w.addOwner(model.NewCodeOwnerReference(model.AllUsersWildcard), rootDistance+3, sourceFallback, nil)
	case settings.FallbackConfigured:
		w.logf("no code owners found; falling back to configured fallback owners")
		for _, email := range w.settings.Fallback.Owners {
			w.addOwner(model.NewCodeOwnerReference(email), rootDistance+3, sourceFallback, nil)
		}
	}
}

// finishWildcard turns an accumulated all-users wildcard into the
// OwnedByAllUsers verdict and, when requested, a bounded seeded sample of
// concrete accounts.
func (w *walk) finishWildcard() {
	wildcard, ok := w.acc[model.NewCodeOwnerReference(model.AllUsersWildcard)]
	if !ok {
		return
	}
	w.result.OwnedByAllUsers = true
	delete(w.acc, model.NewCodeOwnerReference(model.AllUsersWildcard))

	if !w.opts.ResolveAllUsers || len(w.opts.AllUsers) == 0 {
		return
	}
	limit := w.opts.Limit
	if limit <= 0 || limit > len(w.opts.AllUsers) {
		limit = len(w.opts.AllUsers)
	}
	for _, email := range sampleUsers(w.opts.AllUsers, limit, w.opts.Seed) {
		w.addOwner(model.NewCodeOwnerReference(email), wildcard.Distance, wildcard.Sources[0], nil)
	}
}

func (w *walk) addOwner(ref model.CodeOwnerReference, distance int, source string, annotations []string) {
	if existing, ok := w.acc[ref]; ok {
		existing.Annotations = mergeSorted(existing.Annotations, annotations)
		existing.Sources = appendUnique(existing.Sources, source)
		if distance < existing.Distance {
			existing.Distance = distance
		}
		return
	}
	w.acc[ref] = &Owner{
		Reference:   ref,
		Annotations: mergeSorted(nil, annotations),
		Distance:    distance,
		Sources:     []string{source},
	}
}

func (w *walk) logf(format string, args ...any) {
	w.result.DebugLogs = append(w.result.DebugLogs, fmt.Sprintf(format, args...))
}

// matchesAny reports whether relPath matches any of the glob expressions.
// Patterns without a slash also match against the bare file name, so
// "*.md" covers files in subfolders of the config's folder.
func matchesAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, path.Base(relPath)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func collectOwners(acc map[model.CodeOwnerReference]*Owner) []Owner {
	out := make([]Owner, 0, len(acc))
	for _, o := range acc {
		out = append(out, *o)
	}
	return out
}

func mergeSorted(existing, extra []string) []string {
	if len(extra) == 0 {
		return existing
	}
	merged := append(append([]string(nil), existing...), extra...)
	return sortedUnique(merged)
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}
