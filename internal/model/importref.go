package model

import (
	"path"
	"strings"
)

// ImportMode controls how much of an imported config is pulled in.
type ImportMode int

const (
	// ImportModeAll imports the full config: global owners, per-file rules,
	// the noparent flag, and the imported config's own imports.
	ImportModeAll ImportMode = iota

	// ImportModeGlobalOnly imports only the folder-wide owner sets. Per-file
	// rules, the noparent flag, and per-file imports of the imported config
	// are ignored; its folder-level imports are still followed, narrowed to
	// global-only transitively.
	ImportModeGlobalOnly
)

func (m ImportMode) String() string {
	switch m {
	case ImportModeAll:
		return "ALL"
	case ImportModeGlobalOnly:
		return "GLOBAL_CODE_OWNER_SETS_ONLY"
	default:
		return "UNKNOWN"
	}
}

// CodeOwnerConfigReference is an import declaration inside a config file.
// Project and Branch are optional; unset fields default to the importing
// config's own project/branch when the reference is resolved.
type CodeOwnerConfigReference struct {
	Mode    ImportMode
	Project string
	Branch  string
	// FilePath is the referenced config file, absolute or relative to the
	// importing config's folder.
	FilePath string
}

// EffectiveKey resolves the reference against the importing config's key,
// returning the key of the referenced folder and the referenced file name.
func (r CodeOwnerConfigReference) EffectiveKey(importing CodeOwnerConfigKey) (CodeOwnerConfigKey, string) {
	project := r.Project
	if project == "" {
		project = importing.Project
	}
	branch := r.Branch
	if branch == "" {
		branch = importing.Branch
	}

	filePath := r.FilePath
	if !strings.HasPrefix(filePath, "/") {
		filePath = importing.FolderPath + filePath
	}
	filePath = path.Clean(filePath)

	folder := path.Dir(filePath)
	name := path.Base(filePath)
	return NewCodeOwnerConfigKey(project, branch, folder), name
}

// CodeOwnerConfigImport is the result of resolving one import reference:
// either the resolved config, or an error message explaining why the target
// could not be used.
type CodeOwnerConfigImport struct {
	Importing CodeOwnerConfigKey
	Key       CodeOwnerConfigKey
	Reference CodeOwnerConfigReference

	// Config is set only for resolved imports.
	Config *CodeOwnerConfig
	// Message is set only for unresolved imports.
	Message string
}

func ResolvedImport(importing CodeOwnerConfigKey, ref CodeOwnerConfigReference, cfg *CodeOwnerConfig) CodeOwnerConfigImport {
	return CodeOwnerConfigImport{Importing: importing, Key: cfg.Key, Reference: ref, Config: cfg}
}

func UnresolvedImport(importing, key CodeOwnerConfigKey, ref CodeOwnerConfigReference, message string) CodeOwnerConfigImport {
	return CodeOwnerConfigImport{Importing: importing, Key: key, Reference: ref, Message: message}
}

// Resolved reports whether the import was resolved to a config.
func (i CodeOwnerConfigImport) Resolved() bool {
	return i.Config != nil
}
