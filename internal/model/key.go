package model

import (
	"fmt"
	"path"
	"strings"
)

// CodeOwnerConfigKey identifies a single code-owner config: the project and
// branch it lives in plus the folder it governs. Keys are comparable and used
// as map keys throughout the resolver.
type CodeOwnerConfigKey struct {
	Project string
	Branch  string
	// FolderPath is absolute and always ends in "/". The repository root is "/".
	FolderPath string
}

func NewCodeOwnerConfigKey(project, branch, folderPath string) CodeOwnerConfigKey {
	return CodeOwnerConfigKey{
		Project:    project,
		Branch:     branch,
		FolderPath: NormalizeFolderPath(folderPath),
	}
}

// NormalizeFolderPath returns an absolute, cleaned folder path ending in "/".
func NormalizeFolderPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if p == "/" {
		return "/"
	}
	return p + "/"
}

// ParentFolder returns the key of the parent folder, or false when the key
// already addresses the repository root.
func (k CodeOwnerConfigKey) ParentFolder() (CodeOwnerConfigKey, bool) {
	if k.FolderPath == "/" {
		return CodeOwnerConfigKey{}, false
	}
	parent := path.Dir(strings.TrimSuffix(k.FolderPath, "/"))
	return NewCodeOwnerConfigKey(k.Project, k.Branch, parent), true
}

// FilePath returns the absolute path of the config file addressed by this key,
// given the configured file name (e.g. "OWNERS").
func (k CodeOwnerConfigKey) FilePath(fileName string) string {
	return k.FolderPath + fileName
}

func (k CodeOwnerConfigKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Project, k.Branch, k.FolderPath)
}

// BranchEquals reports whether the key addresses the given project and branch.
func (k CodeOwnerConfigKey) BranchEquals(project, branch string) bool {
	return k.Project == project && k.Branch == branch
}
