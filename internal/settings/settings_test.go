package settings

import (
	"context"
	"errors"
	"testing"

	"pathowners/internal/store"
)

func TestParse(t *testing.T) {
	t.Run("empty document yields defaults", func(t *testing.T) {
		s, err := Parse(nil)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if s.Backend != "find-owners" || s.FileName != "OWNERS" {
			t.Errorf("defaults = %+v", s)
		}
		if s.Fallback.Policy != FallbackNone {
			t.Errorf("fallback policy = %q, want none", s.Fallback.Policy)
		}
		if got := s.FileNames(); len(got) != 1 || got[0] != "OWNERS" {
			t.Errorf("FileNames = %v", got)
		}
	})

	t.Run("full document", func(t *testing.T) {
		content := `
backend: structured
file_name: OWNERS
file_extension: android
default_owners:
  - default@example.com
global_owners:
  - admin@example.com
fallback_owners:
  policy: configured
  owners:
    - fallback@example.com
max_import_depth: 4
`
		s, err := Parse([]byte(content))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if s.Backend != "structured" {
			t.Errorf("backend = %q", s.Backend)
		}
		if got := s.FileNames(); len(got) != 1 || got[0] != "OWNERS.android" {
			t.Errorf("FileNames = %v", got)
		}
		if len(s.DefaultOwners) != 1 || s.DefaultOwners[0] != "default@example.com" {
			t.Errorf("DefaultOwners = %v", s.DefaultOwners)
		}
		if s.Fallback.Policy != FallbackConfigured || len(s.Fallback.Owners) != 1 {
			t.Errorf("Fallback = %+v", s.Fallback)
		}
		if s.MaxImportDepth != 4 {
			t.Errorf("MaxImportDepth = %d", s.MaxImportDepth)
		}
	})

	t.Run("invalid documents", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"unknown field", "backend: find-owners\nbogus: true\n"},
			{"empty file name", "file_name: \"\"\n"},
			{"unknown fallback policy", "fallback_owners:\n  policy: everyone\n"},
			{"owners without configured policy", "fallback_owners:\n  policy: none\n  owners: [a@b.c]\n"},
			{"configured without owners", "fallback_owners:\n  policy: configured\n"},
			{"negative import depth", "max_import_depth: -1\n"},
			{"not yaml", ": :\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Parse([]byte(tt.content))
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("Parse(%q) = %v, want ErrInvalidConfiguration", tt.content, err)
				}
			})
		}
	})
}

type settingsSnapshot struct {
	content []byte
	err     error
}

func (s settingsSnapshot) Revision() string { return "rev1" }

func (s settingsSnapshot) Load(ctx context.Context, filePath string) (*store.Blob, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.content == nil {
		return nil, nil
	}
	return &store.Blob{Path: filePath, Revision: "rev1", Content: s.content}, nil
}

func (s settingsSnapshot) Files(ctx context.Context, baseName string) ([]string, error) {
	return nil, nil
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	s, err := Load(ctx, settingsSnapshot{})
	if err != nil {
		t.Fatalf("Load without settings file: %v", err)
	}
	if s.FileName != "OWNERS" {
		t.Errorf("defaults not applied: %+v", s)
	}

	s, err = Load(ctx, settingsSnapshot{content: []byte("file_name: CODEOWNERS\n")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.FileName != "CODEOWNERS" {
		t.Errorf("FileName = %q", s.FileName)
	}

	boom := errors.New("boom")
	if _, err := Load(ctx, settingsSnapshot{err: boom}); !errors.Is(err, boom) {
		t.Errorf("Load error = %v, want boom", err)
	}
}
