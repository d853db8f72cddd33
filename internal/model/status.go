package model

// OwnerStatus is the per-path approval verdict.
type OwnerStatus string

const (
	StatusApproved              OwnerStatus = "APPROVED"
	StatusPending               OwnerStatus = "PENDING"
	StatusInsufficientReviewers OwnerStatus = "INSUFFICIENT_REVIEWERS"
)

// PathCodeOwnerStatus is the ownership/approval verdict for a single path.
type PathCodeOwnerStatus struct {
	Path    string      `json:"path"`
	Status  OwnerStatus `json:"status"`
	Reasons []string    `json:"reasons,omitempty"`
}

// FileCodeOwnerStatus is the verdict for one changed file. Renames carry both
// the old and the new path verdicts.
type FileCodeOwnerStatus struct {
	ChangeType string               `json:"change_type,omitempty"`
	NewPath    *PathCodeOwnerStatus `json:"new_path,omitempty"`
	OldPath    *PathCodeOwnerStatus `json:"old_path,omitempty"`
}

// CombinedStatus reduces per-path verdicts for one file to a single status:
// every path must be approved; a single INSUFFICIENT_REVIEWERS wins over
// PENDING.
func (f FileCodeOwnerStatus) CombinedStatus() OwnerStatus {
	combined := StatusApproved
	for _, p := range []*PathCodeOwnerStatus{f.NewPath, f.OldPath} {
		if p == nil {
			continue
		}
		switch p.Status {
		case StatusInsufficientReviewers:
			return StatusInsufficientReviewers
		case StatusPending:
			combined = StatusPending
		}
	}
	return combined
}
