package model

import "testing"

func TestEffectiveKey(t *testing.T) {
	importing := NewCodeOwnerConfigKey("backend", "main", "/src/api")

	tests := []struct {
		name     string
		ref      CodeOwnerConfigReference
		wantKey  CodeOwnerConfigKey
		wantName string
	}{
		{
			name:     "absolute path same project",
			ref:      CodeOwnerConfigReference{FilePath: "/build/OWNERS"},
			wantKey:  NewCodeOwnerConfigKey("backend", "main", "/build"),
			wantName: "OWNERS",
		},
		{
			name:     "relative path resolves against importing folder",
			ref:      CodeOwnerConfigReference{FilePath: "handlers/OWNERS"},
			wantKey:  NewCodeOwnerConfigKey("backend", "main", "/src/api/handlers"),
			wantName: "OWNERS",
		},
		{
			name:     "relative path with parent traversal",
			ref:      CodeOwnerConfigReference{FilePath: "../OWNERS"},
			wantKey:  NewCodeOwnerConfigKey("backend", "main", "/src"),
			wantName: "OWNERS",
		},
		{
			name:     "cross project defaults branch",
			ref:      CodeOwnerConfigReference{Project: "shared", FilePath: "/OWNERS"},
			wantKey:  NewCodeOwnerConfigKey("shared", "main", "/"),
			wantName: "OWNERS",
		},
		{
			name:     "cross project and branch",
			ref:      CodeOwnerConfigReference{Project: "shared", Branch: "release-1", FilePath: "/docs/OWNERS"},
			wantKey:  NewCodeOwnerConfigKey("shared", "release-1", "/docs"),
			wantName: "OWNERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey, gotName := tt.ref.EffectiveKey(importing)
			if gotKey != tt.wantKey {
				t.Errorf("key = %v, want %v", gotKey, tt.wantKey)
			}
			if gotName != tt.wantName {
				t.Errorf("name = %q, want %q", gotName, tt.wantName)
			}
		})
	}
}

func TestImportModeString(t *testing.T) {
	if got := ImportModeAll.String(); got != "ALL" {
		t.Errorf("ImportModeAll.String() = %q", got)
	}
	if got := ImportModeGlobalOnly.String(); got != "GLOBAL_CODE_OWNER_SETS_ONLY" {
		t.Errorf("ImportModeGlobalOnly.String() = %q", got)
	}
}

func TestImportResolution(t *testing.T) {
	importing := NewCodeOwnerConfigKey("backend", "main", "/src")
	target := NewCodeOwnerConfigKey("backend", "main", "/build")
	ref := CodeOwnerConfigReference{FilePath: "/build/OWNERS"}

	resolved := ResolvedImport(importing, ref, &CodeOwnerConfig{Key: target})
	if !resolved.Resolved() {
		t.Error("ResolvedImport is not Resolved")
	}
	if resolved.Key != target {
		t.Errorf("resolved key = %v, want %v", resolved.Key, target)
	}

	unresolved := UnresolvedImport(importing, target, ref, "config file /build/OWNERS not found")
	if unresolved.Resolved() {
		t.Error("UnresolvedImport is Resolved")
	}
	if unresolved.Message == "" {
		t.Error("UnresolvedImport has no message")
	}
}
