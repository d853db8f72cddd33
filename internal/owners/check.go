package owners

import (
	"context"

	"pathowners/internal/model"
)

// CheckResult explains whether and why a specific email owns a path. It
// carries full provenance so a user can see exactly which config files and
// policies granted (or failed to grant) ownership.
type CheckResult struct {
	Email       string `json:"email"`
	Path        string `json:"path"`
	IsCodeOwner bool   `json:"is_code_owner"`

	// ConfigFilePaths lists the config files that name the email.
	ConfigFilePaths []string `json:"config_file_paths,omitempty"`

	IsDefaultCodeOwner  bool `json:"is_default_code_owner"`
	IsGlobalCodeOwner   bool `json:"is_global_code_owner"`
	IsFallbackCodeOwner bool `json:"is_fallback_code_owner"`
	IsOwnedByAllUsers   bool `json:"is_owned_by_all_users"`

	Annotations []string `json:"annotations,omitempty"`
	DebugLogs   []string `json:"debug_logs,omitempty"`
}

// Check answers "is this email a code owner of the path, and why". Unlike
// OwnersOf it parses leniently: a broken config file must not prevent the
// diagnosis, it is reported in the debug log instead.
func (r *Resolver) Check(ctx context.Context, project, branch, filePath, email string, opts Options) (*CheckResult, error) {
	opts.Lenient = true
	opts.Limit = 0
	opts.ResolveAllUsers = false

	po, err := r.OwnersOf(ctx, project, branch, filePath, opts)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{
		Email:             email,
		Path:              po.Path,
		IsOwnedByAllUsers: po.OwnedByAllUsers,
		DebugLogs:         po.DebugLogs,
	}

	ref := model.NewCodeOwnerReference(email)
	for _, o := range po.Owners {
		if o.Reference != ref {
			continue
		}
		res.Annotations = o.Annotations
		for _, src := range o.Sources {
			switch src {
			case sourceDefault:
				res.IsDefaultCodeOwner = true
			case sourceGlobal:
				res.IsGlobalCodeOwner = true
			case sourceFallback:
				res.IsFallbackCodeOwner = true
			default:
				res.ConfigFilePaths = append(res.ConfigFilePaths, src)
			}
		}
	}

	res.IsCodeOwner = len(res.ConfigFilePaths) > 0 ||
		res.IsDefaultCodeOwner || res.IsGlobalCodeOwner || res.IsFallbackCodeOwner ||
		po.OwnedByAllUsers

	if res.IsCodeOwner {
		res.DebugLogs = append(res.DebugLogs, "email "+email+" is a code owner of "+po.Path)
	} else {
		res.DebugLogs = append(res.DebugLogs, "email "+email+" is not a code owner of "+po.Path)
	}
	return res, nil
}
