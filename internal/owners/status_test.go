package owners

import (
	"strings"
	"testing"

	"pathowners/internal/model"
)

func TestStatusFor(t *testing.T) {
	owned := &PathOwners{
		Path: "/src/main.go",
		Owners: []Owner{
			{Reference: model.NewCodeOwnerReference("jane@example.com")},
			{Reference: model.NewCodeOwnerReference("joe@example.com")},
		},
	}

	tests := []struct {
		name       string
		po         *PathOwners
		approvers  []string
		reviewers  []string
		wantStatus model.OwnerStatus
		wantReason string
	}{
		{
			name:       "owner approved",
			po:         owned,
			approvers:  []string{"other@example.com", "jane@example.com"},
			wantStatus: model.StatusApproved,
			wantReason: "approved by jane@example.com",
		},
		{
			name:       "owner is only a reviewer",
			po:         owned,
			reviewers:  []string{"joe@example.com"},
			wantStatus: model.StatusPending,
			wantReason: "reviewer joe@example.com",
		},
		{
			name:       "approval outranks a pending reviewer",
			po:         owned,
			approvers:  []string{"jane@example.com"},
			reviewers:  []string{"joe@example.com"},
			wantStatus: model.StatusApproved,
			wantReason: "approved by jane@example.com",
		},
		{
			name:       "non-owner approvals do not count",
			po:         owned,
			approvers:  []string{"other@example.com"},
			wantStatus: model.StatusInsufficientReviewers,
			wantReason: "no code owner is a reviewer",
		},
		{
			name:       "no reviewers at all",
			po:         owned,
			wantStatus: model.StatusInsufficientReviewers,
			wantReason: "no code owner is a reviewer",
		},
		{
			name:       "all-users ownership accepts any approver",
			po:         &PathOwners{Path: "/src/main.go", OwnedByAllUsers: true},
			approvers:  []string{"random@example.com"},
			wantStatus: model.StatusApproved,
			wantReason: "approved by random@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusFor(tt.po, tt.approvers, tt.reviewers)
			if got.Path != tt.po.Path {
				t.Errorf("Path = %q", got.Path)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if len(got.Reasons) != 1 || !strings.Contains(got.Reasons[0], tt.wantReason) {
				t.Errorf("Reasons = %v, want substring %q", got.Reasons, tt.wantReason)
			}
		})
	}
}
