package owners

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pathowners/internal/model"
)

func mkOwners(emailDistances map[string]int) []Owner {
	var out []Owner
	for email, d := range emailDistances {
		out = append(out, Owner{Reference: model.NewCodeOwnerReference(email), Distance: d})
	}
	return out
}

func TestRankOwners(t *testing.T) {
	input := map[string]int{
		"far@x.com":      2,
		"near@x.com":     0,
		"tie-a@x.com":    1,
		"tie-b@x.com":    1,
		"tie-c@x.com":    1,
		"farthest@x.com": 3,
	}

	ranked := rankOwners(mkOwners(input), 42, 0)
	if len(ranked) != len(input) {
		t.Fatalf("ranked %d owners, want %d", len(ranked), len(input))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Distance > ranked[i].Distance {
			t.Fatalf("not ordered by distance: %+v", ranked)
		}
	}

	// Same seed gives the same tie order even though the input map iterates
	// in random order.
	again := rankOwners(mkOwners(input), 42, 0)
	if diff := cmp.Diff(emails(ranked), emails(again)); diff != "" {
		t.Errorf("ranking is not reproducible (-first +second):\n%s", diff)
	}

	// The limit is applied after ranking, keeping the closest owners.
	top := rankOwners(mkOwners(input), 42, 2)
	if len(top) != 2 {
		t.Fatalf("limited to %d owners, want 2", len(top))
	}
	if top[0].Reference.Email != "near@x.com" {
		t.Errorf("closest owner after limit = %q", top[0].Reference.Email)
	}
}

func TestRankOwnersEmpty(t *testing.T) {
	if got := rankOwners(nil, 0, 5); len(got) != 0 {
		t.Errorf("rankOwners(nil) = %+v", got)
	}
}

func TestSampleUsers(t *testing.T) {
	users := []string{"d@x.com", "a@x.com", "c@x.com", "b@x.com"}

	sample := sampleUsers(users, 2, 99)
	if len(sample) != 2 {
		t.Fatalf("sample = %v", sample)
	}
	again := sampleUsers(users, 2, 99)
	if diff := cmp.Diff(sample, again); diff != "" {
		t.Errorf("sampling is not reproducible (-first +second):\n%s", diff)
	}

	// The order of the input pool must not influence the draw.
	shuffledInput := []string{"b@x.com", "d@x.com", "a@x.com", "c@x.com"}
	if diff := cmp.Diff(sample, sampleUsers(shuffledInput, 2, 99)); diff != "" {
		t.Errorf("sample depends on input order (-first +second):\n%s", diff)
	}

	// Requesting more than available returns everyone.
	if got := sampleUsers(users, 10, 1); len(got) != len(users) {
		t.Errorf("oversized sample = %v", got)
	}
}

func TestSortedUnique(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"b", "a", "b", "a"}, []string{"a", "b"}},
		{[]string{"x"}, []string{"x"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, sortedUnique(tt.in)); diff != "" {
			t.Errorf("sortedUnique(%v) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func emails(list []Owner) []string {
	out := make([]string, len(list))
	for i, o := range list {
		out[i] = o.Reference.Email
	}
	return out
}
