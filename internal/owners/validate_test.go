package owners

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pathowners/internal/store"
)

func TestValidate(t *testing.T) {
	st := mainBranch(map[string]string{
		"/OWNERS":     "root@example.com\n",
		"/bad/OWNERS": "first broken line\nok@example.com\nsecond broken line\n",
		"/imp/OWNERS": "include /missing/OWNERS\n",
	})

	findings, err := NewResolver(st).Validate(context.Background(), "backend", "main")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var parse, imports []Finding
	for _, f := range findings {
		switch f.Kind {
		case "parse":
			parse = append(parse, f)
		case "import":
			imports = append(imports, f)
		default:
			t.Errorf("unknown finding kind %q", f.Kind)
		}
	}

	// Every problem line of the broken file is reported individually.
	if len(parse) != 2 {
		t.Fatalf("parse findings = %+v", parse)
	}
	for _, f := range parse {
		if f.Path != "/bad/OWNERS" {
			t.Errorf("parse finding path = %q", f.Path)
		}
	}

	if len(imports) != 1 {
		t.Fatalf("import findings = %+v", imports)
	}
	if imports[0].Path != "/imp/OWNERS" || !strings.Contains(imports[0].Message, "/missing/OWNERS not found") {
		t.Errorf("import finding = %+v", imports[0])
	}
}

func TestValidateCleanBranch(t *testing.T) {
	st := mainBranch(map[string]string{
		"/OWNERS":     "root@example.com\n",
		"/src/OWNERS": "include /OWNERS\nsrc@example.com\n",
	})

	findings, err := NewResolver(st).Validate(context.Background(), "backend", "main")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %+v", findings)
	}
}

func TestValidateMissingBranch(t *testing.T) {
	st := mainBranch(nil)
	_, err := NewResolver(st).Validate(context.Background(), "backend", "release-1")
	if !errors.Is(err, store.ErrBranchMissing) {
		t.Fatalf("err = %v, want ErrBranchMissing", err)
	}
}

func TestValidateBrokenSettings(t *testing.T) {
	st := mainBranch(map[string]string{
		"/.pathowners.yml": "backend: find-owners\nbogus: true\n",
	})
	if _, err := NewResolver(st).Validate(context.Background(), "backend", "main"); err == nil {
		t.Fatal("broken settings must fail validation")
	}
}
