// Package settings holds the per-project configuration the resolver consumes
// but does not own: default and global code owners, the fallback-owner
// policy, and the config file naming convention. Settings are read from the
// branch on every query and never cached across queries.
package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"pathowners/internal/store"
)

// SettingsFile is the well-known settings path at the repository root.
const SettingsFile = "/.pathowners.yml"

// ErrInvalidConfiguration marks settings that are present but unusable.
// Ownership decisions are security relevant, so a broken policy fails the
// query instead of falling back to a guessed default.
var ErrInvalidConfiguration = errors.New("invalid pathowners configuration")

// FallbackPolicy decides who owns a path when a full walk found no owner at
// all. It is strictly last-resort and never overrides an explicit owner
// determination, even one that ended up empty after exclusions.
type FallbackPolicy string

const (
	// FallbackNone leaves unowned paths unowned.
	FallbackNone FallbackPolicy = "none"
	// FallbackAllUsers makes every user an owner of otherwise unowned paths.
	FallbackAllUsers FallbackPolicy = "all-users"
	// FallbackConfigured uses the explicit owner list from the settings file.
	FallbackConfigured FallbackPolicy = "configured"
)

type Fallback struct {
	Policy FallbackPolicy `yaml:"policy"`
	Owners []string       `yaml:"owners"`
}

type Settings struct {
	// Backend selects the config dialect: find-owners or structured.
	Backend string `yaml:"backend"`

	// FileName is the config file base name, "OWNERS" by default.
	FileName string `yaml:"file_name"`

	// FileExtension, when set, makes the effective file name
	// "<FileName>.<FileExtension>" (e.g. OWNERS.android for a fork that must
	// not clash with upstream OWNERS files).
	FileExtension string `yaml:"file_extension"`

	// DefaultOwners own every path in the project; they behave like
	// root-level global owners and honor the same noparent exclusions.
	DefaultOwners []string `yaml:"default_owners"`

	// GlobalOwners own every path in the project independent of the walked
	// config tree; like DefaultOwners they are skipped when a noparent
	// exclusion stopped the walk.
	GlobalOwners []string `yaml:"global_owners"`

	Fallback Fallback `yaml:"fallback_owners"`

	// MaxImportDepth overrides the resolver's import depth bound. Zero keeps
	// the default.
	MaxImportDepth int `yaml:"max_import_depth"`
}

func Default() *Settings {
	return &Settings{
		Backend:  "find-owners",
		FileName: "OWNERS",
		Fallback: Fallback{Policy: FallbackNone},
	}
}

// FileNames returns the config file names to probe, most specific first.
func (s *Settings) FileNames() []string {
	if s.FileExtension != "" {
		return []string{s.FileName + "." + s.FileExtension}
	}
	return []string{s.FileName}
}

func (s *Settings) validate() error {
	if s.FileName == "" {
		return fmt.Errorf("%w: file_name must not be empty", ErrInvalidConfiguration)
	}
	switch s.Fallback.Policy {
	case FallbackNone, FallbackAllUsers:
		if len(s.Fallback.Owners) > 0 {
			return fmt.Errorf("%w: fallback_owners.owners is only allowed with policy %q", ErrInvalidConfiguration, FallbackConfigured)
		}
	case FallbackConfigured:
		if len(s.Fallback.Owners) == 0 {
			return fmt.Errorf("%w: fallback_owners.policy %q requires a non-empty owners list", ErrInvalidConfiguration, FallbackConfigured)
		}
	default:
		return fmt.Errorf("%w: unknown fallback_owners.policy %q (must be one of: none, all-users, configured)", ErrInvalidConfiguration, s.Fallback.Policy)
	}
	if s.MaxImportDepth < 0 {
		return fmt.Errorf("%w: max_import_depth must be >= 0", ErrInvalidConfiguration)
	}
	return nil
}

// Parse decodes a settings document. Unknown fields are rejected so typos in
// security-relevant settings cannot be silently ignored.
func Parse(content []byte) (*Settings, error) {
	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the settings file from a branch snapshot, returning defaults
// when the file does not exist.
func Load(ctx context.Context, snap store.Snapshot) (*Settings, error) {
	blob, err := snap.Load(ctx, SettingsFile)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return Default(), nil
	}
	return Parse(blob.Content)
}
