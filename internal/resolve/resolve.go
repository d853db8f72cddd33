// Package resolve expands the import graph of a code-owner config into the
// effective owner sets, collecting unresolved imports instead of failing and
// guaranteeing termination on cyclic or adversarial graphs.
package resolve

import (
	"context"
	"fmt"

	"pathowners/internal/loader"
	"pathowners/internal/model"
)

const (
	// DefaultMaxDepth bounds how deep import chains are followed.
	DefaultMaxDepth = 10
	// DefaultBudget bounds the total number of import edges expanded per
	// resolution, as a second line of defense behind cycle detection.
	DefaultBudget = 1000
)

// ImportNode is one edge in the resolved import tree, kept for display and
// diagnostics. Cycle marks a back-edge: the target config was already on the
// resolution stack and is not descended into again.
type ImportNode struct {
	Import   model.CodeOwnerConfigImport
	Cycle    bool
	Children []*ImportNode
}

// Effective is a config with its whole import graph folded in: the owner
// sets ownership evaluation consumes, plus the diagnostic import tree and
// every import that could not be resolved (with a reason).
type Effective struct {
	Key                    model.CodeOwnerConfigKey
	IgnoreParentCodeOwners bool

	// GlobalSets are folder-wide owner sets, local ones first, then imported
	// ones in import order.
	GlobalSets []model.CodeOwnerSet

	// PerFileSets are glob-restricted sets with their per-file imports
	// already folded into the owner lists.
	PerFileSets []model.CodeOwnerSet

	Tree       []*ImportNode
	Unresolved []model.CodeOwnerConfigImport
}

// Resolver resolves import references through a pinned snapshot set.
type Resolver struct {
	loader   *loader.Loader
	snaps    *loader.SnapshotSet
	maxDepth int
	budget   int
}

func New(l *loader.Loader, snaps *loader.SnapshotSet) *Resolver {
	return &Resolver{loader: l, snaps: snaps, maxDepth: DefaultMaxDepth, budget: DefaultBudget}
}

// WithLimits overrides the depth and edge budget. Zero keeps the default.
func (r *Resolver) WithLimits(maxDepth, budget int) *Resolver {
	out := *r
	if maxDepth > 0 {
		out.maxDepth = maxDepth
	}
	if budget > 0 {
		out.budget = budget
	}
	return &out
}

type state struct {
	onStack map[string]bool
	visited int
}

// Resolve folds cfg's import graph into an Effective view. rootFilePath is
// the path of the file cfg was parsed from, used to recognize imports that
// point back at the root.
func (r *Resolver) Resolve(ctx context.Context, cfg *model.CodeOwnerConfig, rootFilePath string) (*Effective, error) {
	st := &state{onStack: map[string]bool{stackKey(cfg.Key, rootFilePath): true}}

	eff := &Effective{
		Key:                    cfg.Key,
		IgnoreParentCodeOwners: cfg.IgnoreParentCodeOwners,
	}

	if err := r.mergeConfig(ctx, st, eff, cfg, model.ImportModeAll, 0, &eff.Tree); err != nil {
		return nil, err
	}
	return eff, nil
}

// mergeConfig contributes cfg's own sets to eff (narrowed by mode) and then
// expands cfg's folder-level imports.
func (r *Resolver) mergeConfig(ctx context.Context, st *state, eff *Effective, cfg *model.CodeOwnerConfig, mode model.ImportMode, depth int, children *[]*ImportNode) error {
	eff.GlobalSets = append(eff.GlobalSets, cfg.GlobalSets()...)

	if mode == model.ImportModeAll {
		for _, set := range cfg.PerFileSets() {
			folded, err := r.foldPerFileSet(ctx, st, eff, cfg.Key, set, depth, children)
			if err != nil {
				return err
			}
			eff.PerFileSets = append(eff.PerFileSets, folded)
		}
	}

	for _, ref := range cfg.Imports {
		if mode == model.ImportModeGlobalOnly {
			// Imports of a global-only import stay narrowed, transitively.
			ref.Mode = model.ImportModeGlobalOnly
		}
		if err := r.expandImport(ctx, st, eff, cfg, ref, depth, children); err != nil {
			return err
		}
	}
	return nil
}

// expandImport resolves one folder-level import edge.
func (r *Resolver) expandImport(ctx context.Context, st *state, eff *Effective, importing *model.CodeOwnerConfig, ref model.CodeOwnerConfigReference, depth int, children *[]*ImportNode) error {
	imported, node, key, err := r.loadImport(ctx, st, eff, importing, ref, depth, children)
	if err != nil || imported == nil {
		return err
	}
	defer delete(st.onStack, key)

	if ref.Mode == model.ImportModeAll && imported.IgnoreParentCodeOwners {
		eff.IgnoreParentCodeOwners = true
	}
	return r.mergeConfig(ctx, st, eff, imported, ref.Mode, depth+1, &node.Children)
}

// foldPerFileSet resolves a per-file set's imports (always global-only) and
// returns the set with the imported owners appended.
func (r *Resolver) foldPerFileSet(ctx context.Context, st *state, eff *Effective, importingKey model.CodeOwnerConfigKey, set model.CodeOwnerSet, depth int, children *[]*ImportNode) (model.CodeOwnerSet, error) {
	if len(set.Imports) == 0 {
		return set, nil
	}

	folded := set
	folded.CodeOwners = append([]model.CodeOwnerReference(nil), set.CodeOwners...)
	folded.Imports = nil

	importing := &model.CodeOwnerConfig{Key: importingKey}
	for _, ref := range set.Imports {
		ref.Mode = model.ImportModeGlobalOnly
		imported, node, key, err := r.loadImport(ctx, st, eff, importing, ref, depth, children)
		if err != nil {
			return model.CodeOwnerSet{}, err
		}
		if imported == nil {
			continue
		}
		owners, err := r.collectGlobalOwners(ctx, st, eff, imported, depth+1, &node.Children)
		delete(st.onStack, key)
		if err != nil {
			return model.CodeOwnerSet{}, err
		}
		folded.CodeOwners = append(folded.CodeOwners, owners...)
	}
	folded.CodeOwners = model.DedupeReferences(folded.CodeOwners)
	return folded, nil
}

// collectGlobalOwners gathers the global owners of cfg and of its imports,
// narrowed to global-only transitively. Used for per-file import chains,
// which never pull in per-file rules.
func (r *Resolver) collectGlobalOwners(ctx context.Context, st *state, eff *Effective, cfg *model.CodeOwnerConfig, depth int, children *[]*ImportNode) ([]model.CodeOwnerReference, error) {
	var owners []model.CodeOwnerReference
	for _, set := range cfg.GlobalSets() {
		owners = append(owners, set.CodeOwners...)
	}

	for _, ref := range cfg.Imports {
		ref.Mode = model.ImportModeGlobalOnly
		imported, node, key, err := r.loadImport(ctx, st, eff, cfg, ref, depth, children)
		if err != nil {
			return nil, err
		}
		if imported == nil {
			continue
		}
		nested, err := r.collectGlobalOwners(ctx, st, eff, imported, depth+1, &node.Children)
		delete(st.onStack, key)
		if err != nil {
			return nil, err
		}
		owners = append(owners, nested...)
	}
	return owners, nil
}

// loadImport loads the target of one import reference. It returns a nil
// config (and records the reason on eff) for unresolved imports and for
// back-edges into the current resolution stack; the caller only descends
// when a non-nil config comes back, and must pop the returned stack key once
// the subtree is finished.
func (r *Resolver) loadImport(ctx context.Context, st *state, eff *Effective, importing *model.CodeOwnerConfig, ref model.CodeOwnerConfigReference, depth int, children *[]*ImportNode) (*model.CodeOwnerConfig, *ImportNode, string, error) {
	targetKey, fileName := ref.EffectiveKey(importing.Key)

	unresolved := func(format string, args ...any) {
		imp := model.UnresolvedImport(importing.Key, targetKey, ref, fmt.Sprintf(format, args...))
		eff.Unresolved = append(eff.Unresolved, imp)
		*children = append(*children, &ImportNode{Import: imp})
	}

	st.visited++
	if st.visited > r.budget {
		unresolved("too many imports: budget of %d import edges exceeded", r.budget)
		return nil, nil, "", nil
	}
	if depth >= r.maxDepth {
		unresolved("too many imports: maximum import depth %d exceeded", r.maxDepth)
		return nil, nil, "", nil
	}

	snap, err := r.snaps.For(ctx, targetKey.Project, targetKey.Branch)
	if err != nil {
		return nil, nil, "", err
	}
	if snap == nil {
		unresolved("branch %s not found in project %s", targetKey.Branch, targetKey.Project)
		return nil, nil, "", nil
	}

	cfg, found, parseErr := r.loader.LoadFile(ctx, snap, targetKey, fileName)
	if parseErr != nil {
		unresolved("config file %s is invalid: %v", targetKey.FilePath(fileName), parseErr)
		return nil, nil, "", nil
	}
	if !found {
		unresolved("config file %s not found", targetKey.FilePath(fileName))
		return nil, nil, "", nil
	}

	key := stackKey(targetKey, targetKey.FilePath(fileName))
	node := &ImportNode{Import: model.ResolvedImport(importing.Key, ref, cfg)}
	*children = append(*children, node)

	if st.onStack[key] {
		// Import cycle: keep the edge, don't descend again.
		node.Cycle = true
		return nil, node, "", nil
	}

	st.onStack[key] = true
	return cfg, node, key, nil
}

func stackKey(key model.CodeOwnerConfigKey, filePath string) string {
	return key.Project + ":" + key.Branch + ":" + filePath
}
