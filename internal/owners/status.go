package owners

import (
	"fmt"

	"pathowners/internal/model"
)

// StatusFor reduces an ownership decision to the per-path approval verdict:
// APPROVED when an owner approved, PENDING when an owner is at least a
// reviewer, INSUFFICIENT_REVIEWERS otherwise. Reasons name the accounts that
// determined the verdict.
func StatusFor(po *PathOwners, approvers, reviewers []string) model.PathCodeOwnerStatus {
	status := model.PathCodeOwnerStatus{Path: po.Path, Status: model.StatusInsufficientReviewers}

	isOwner := func(email string) bool {
		if po.OwnedByAllUsers {
			return true
		}
		ref := model.NewCodeOwnerReference(email)
		for _, o := range po.Owners {
			if o.Reference == ref {
				return true
			}
		}
		return false
	}

	for _, email := range approvers {
		if isOwner(email) {
			status.Status = model.StatusApproved
			status.Reasons = append(status.Reasons, fmt.Sprintf("approved by %s who is a code owner", email))
			return status
		}
	}
	for _, email := range reviewers {
		if isOwner(email) {
			status.Status = model.StatusPending
			status.Reasons = append(status.Reasons, fmt.Sprintf("reviewer %s is a code owner", email))
			return status
		}
	}

	status.Reasons = append(status.Reasons, "no code owner is a reviewer of the change")
	return status
}
