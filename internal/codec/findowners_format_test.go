package codec

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pathowners/internal/model"
)

func TestFindOwnersFormat(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty config formats to empty output",
			content: "# only comments\n",
			want:    "",
		},
		{
			name: "canonical ordering",
			content: "# header comment\n" +
				"zoe@example.com\n" +
				"adam@example.com # backup #{LAST_RESORT_SUGGESTION}\n" +
				"set noparent\n" +
				"include /build/OWNERS\n" +
				"file: /tools/OWNERS\n" +
				"per-file *.md=zoe@example.com\n",
			want: "set noparent\n" +
				"file: /tools/OWNERS\n" +
				"include /build/OWNERS\n" +
				"adam@example.com #{LAST_RESORT_SUGGESTION}\n" +
				"zoe@example.com\n" +
				"per-file *.md=zoe@example.com\n",
		},
		{
			name: "duplicates dropped",
			content: "jane@example.com\n" +
				"jane@example.com\n" +
				"include /build/OWNERS\n" +
				"include /build/OWNERS\n",
			want: "include /build/OWNERS\n" +
				"jane@example.com\n",
		},
		{
			name: "per-file owners grouped by annotations",
			content: "per-file *.sql=zoe@example.com\n" +
				"per-file *.sql=set noparent\n",
			want: "per-file *.sql=zoe@example.com\n" +
				"per-file *.sql=set noparent\n",
		},
		{
			name:    "per-file globs sorted within set",
			content: "per-file docs/**,*.md=jane@example.com\n",
			want:    "per-file *.md,docs/**=jane@example.com\n",
		},
		{
			name:    "per-file import",
			content: "per-file BUILD=file: tools:/OWNERS\n",
			want:    "per-file BUILD=file: tools:/OWNERS\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustParse(t, tt.content)
			got, err := FindOwners{}.Format(cfg)
			if err != nil {
				t.Fatalf("Format failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Format mismatch:\ngot:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

// Formatting must be a semantic no-op: the formatted text parses back to the
// same config, and formatting again changes nothing.
func TestFindOwnersFormatRoundTrip(t *testing.T) {
	content := "set noparent\n" +
		"zoe@example.com # release owner #{CAN_SUBMIT}\n" +
		"adam@example.com\n" +
		"include backend:/OWNERS\n" +
		"file: shared:release-1:/OWNERS\n" +
		"per-file *.sql,migrations/**=dba@example.com # db #{DB}\n" +
		"per-file *.gen.go=set noparent\n" +
		"per-file BUILD=file: /tools/OWNERS\n"

	first := mustParse(t, content)
	formatted, err := FindOwners{}.Format(first)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	second := mustParse(t, formatted)

	// Formatting reorders owners and imports, so compare order-insensitively.
	opts := []cmp.Option{
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(a, b model.CodeOwnerReference) bool { return a.Email < b.Email }),
		cmpopts.SortSlices(func(a, b model.CodeOwnerConfigReference) bool { return fmt.Sprint(a) < fmt.Sprint(b) }),
	}
	if diff := cmp.Diff(first, second, opts...); diff != "" {
		t.Errorf("reparsed config differs (-first +second):\n%s", diff)
	}

	again, err := FindOwners{}.Format(second)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if again != formatted {
		t.Errorf("formatting is not idempotent:\nfirst:\n%s\nsecond:\n%s", formatted, again)
	}
}
