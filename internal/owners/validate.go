package owners

import (
	"context"
	"errors"
	"fmt"
	"path"

	"pathowners/internal/codec"
	"pathowners/internal/loader"
	"pathowners/internal/model"
	"pathowners/internal/resolve"
	"pathowners/internal/settings"
	"pathowners/internal/store"
)

// Finding is one problem detected by Validate.
type Finding struct {
	// Path of the config file the problem was found in.
	Path string `json:"path"`
	// Kind is "parse" or "import".
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Validate checks every config file on the branch in one pass: strict parse
// errors and unresolved imports are collected, not aborted on, so a single
// run reports all problems across the whole tree.
func (r *Resolver) Validate(ctx context.Context, project, branch string) ([]Finding, error) {
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

	var findings []Finding
	for _, name := range cfg.FileNames() {
		files, err := snap.Files(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, filePath := range files {
			key := model.NewCodeOwnerConfigKey(project, branch, path.Dir(filePath))
			parsed, _, parseErr := ld.LoadFile(ctx, snap, key, path.Base(filePath))
			if parseErr != nil {
				var pe *codec.ParseError
				if errors.As(parseErr, &pe) {
					for _, p := range pe.Problems {
						findings = append(findings, Finding{Path: filePath, Kind: "parse", Message: p.String()})
					}
				} else {
					findings = append(findings, Finding{Path: filePath, Kind: "parse", Message: parseErr.Error()})
				}
				continue
			}

			eff, err := res.Resolve(ctx, parsed, filePath)
			if err != nil {
				return nil, err
			}
			for _, imp := range eff.Unresolved {
				findings = append(findings, Finding{Path: filePath, Kind: "import", Message: imp.Message})
			}
		}
	}
	return findings, nil
}
