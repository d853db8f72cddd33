// Package codec implements the code-owner config dialects: parsing raw file
// content into model.CodeOwnerConfig and formatting configs back to their
// canonical text form.
//
// The set of dialects is closed and known at compile time; there is no
// runtime registry.
package codec

import (
	"fmt"
	"sort"
	"strings"

	"pathowners/internal/model"
)

// Backend identifies a config dialect.
type Backend string

const (
	// BackendFindOwners is the line-oriented OWNERS text syntax.
	BackendFindOwners Backend = "find-owners"
	// BackendStructured is the schema-validated structured syntax.
	BackendStructured Backend = "structured"
)

// Codec parses and formats one dialect.
//
// Parse is strict: malformed input fails with a *ParseError naming every
// offending line. ParseLenient drops invalid lines and returns them as
// problems instead; it is meant for diagnostic paths only, where a broken
// config must not abort the whole query.
type Codec interface {
	Backend() Backend
	Parse(key model.CodeOwnerConfigKey, revision string, content []byte) (*model.CodeOwnerConfig, error)
	ParseLenient(key model.CodeOwnerConfigKey, revision string, content []byte) (*model.CodeOwnerConfig, []LineProblem)
	Format(cfg *model.CodeOwnerConfig) (string, error)
}

// ForBackend returns the codec for a dialect.
func ForBackend(b Backend) (Codec, error) {
	switch b {
	case BackendFindOwners:
		return FindOwners{}, nil
	case BackendStructured:
		return Structured{}, nil
	default:
		return nil, fmt.Errorf("unsupported code-owner backend: %q", b)
	}
}

// ResolveBackend maps a user-facing backend name to a Backend.
func ResolveBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(BackendFindOwners):
		return BackendFindOwners, nil
	case string(BackendStructured):
		return BackendStructured, nil
	default:
		return "", fmt.Errorf("unsupported code-owner backend: %q (must be one of: find-owners, structured)", name)
	}
}

// LineProblem is one malformed line in a config file. Line is 1-based; a
// zero line means the problem is not tied to a specific line (e.g. a
// structured-schema error).
type LineProblem struct {
	Line    int
	Message string
}

func (p LineProblem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("line %d: %s", p.Line, p.Message)
	}
	return p.Message
}

// ParseError reports malformed config content under the strict contract. It
// carries the config key and every line-level problem found, not just the
// first one.
type ParseError struct {
	Key      model.CodeOwnerConfigKey
	Problems []LineProblem
}

func (e *ParseError) Error() string {
	problems := append([]LineProblem(nil), e.Problems...)
	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Line < problems[j].Line })
	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.String())
	}
	return fmt.Sprintf("invalid code owner config %s: %s", e.Key, strings.Join(msgs, "; "))
}
