package model

import "testing"

func TestNormalizeFolderPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{".", "/"},
		{"/src", "/src/"},
		{"src", "/src/"},
		{"/src/", "/src/"},
		{"/src//api/", "/src/api/"},
		{"/src/./api", "/src/api/"},
		{"/src/api/..", "/src/"},
	}
	for _, tt := range tests {
		if got := NormalizeFolderPath(tt.in); got != tt.want {
			t.Errorf("NormalizeFolderPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParentFolder(t *testing.T) {
	key := NewCodeOwnerConfigKey("backend", "main", "/src/api/handlers")

	var folders []string
	for {
		folders = append(folders, key.FolderPath)
		parent, ok := key.ParentFolder()
		if !ok {
			break
		}
		key = parent
	}

	want := []string{"/src/api/handlers/", "/src/api/", "/src/", "/"}
	if len(folders) != len(want) {
		t.Fatalf("walked %v, want %v", folders, want)
	}
	for i := range want {
		if folders[i] != want[i] {
			t.Errorf("folder[%d] = %q, want %q", i, folders[i], want[i])
		}
	}

	if _, ok := NewCodeOwnerConfigKey("backend", "main", "/").ParentFolder(); ok {
		t.Error("root must not have a parent")
	}
}

func TestKeyFilePathAndString(t *testing.T) {
	key := NewCodeOwnerConfigKey("backend", "main", "/src")
	if got := key.FilePath("OWNERS"); got != "/src/OWNERS" {
		t.Errorf("FilePath = %q, want /src/OWNERS", got)
	}
	if got := key.String(); got != "backend:main:/src/" {
		t.Errorf("String = %q, want backend:main:/src/", got)
	}
	if !key.BranchEquals("backend", "main") {
		t.Error("BranchEquals(backend, main) = false")
	}
	if key.BranchEquals("backend", "other") {
		t.Error("BranchEquals(backend, other) = true")
	}
}
