package model

import "sort"

// CodeOwnerSet groups owner references that share path expressions, per-file
// imports, and annotations.
//
// A set with no path expressions declares folder-wide ("global") owners; a set
// with path expressions is a per-file rule and is only consulted for matching
// file names.
type CodeOwnerSet struct {
	PathExpressions []string

	// IgnoreGlobalAndParentCodeOwners suppresses this folder's global owners
	// and all parent-folder owners for files matched by PathExpressions
	// ("set noparent" inside a per-file rule).
	IgnoreGlobalAndParentCodeOwners bool

	CodeOwners []CodeOwnerReference

	// Annotations maps an owner reference to its sorted #{TAG} annotations.
	Annotations map[CodeOwnerReference][]string

	// Imports are per-file imports scoped to this set. They always use
	// ImportModeGlobalOnly.
	Imports []CodeOwnerConfigReference
}

// IsGlobal reports whether the set applies to the whole folder.
func (s CodeOwnerSet) IsGlobal() bool {
	return len(s.PathExpressions) == 0
}

// AnnotationsFor returns the sorted annotations attached to ref, if any.
func (s CodeOwnerSet) AnnotationsFor(ref CodeOwnerReference) []string {
	return s.Annotations[ref]
}

// NormalizedSet returns a copy of s with owners deduplicated and annotation
// sets sorted and deduplicated. Path expression order and owner order are
// preserved; sorting for output is the formatter's concern.
func NormalizedSet(s CodeOwnerSet) CodeOwnerSet {
	out := CodeOwnerSet{
		PathExpressions:                 append([]string(nil), s.PathExpressions...),
		IgnoreGlobalAndParentCodeOwners: s.IgnoreGlobalAndParentCodeOwners,
		CodeOwners:                      DedupeReferences(s.CodeOwners),
		Imports:                         append([]CodeOwnerConfigReference(nil), s.Imports...),
	}
	if len(s.Annotations) > 0 {
		out.Annotations = make(map[CodeOwnerReference][]string, len(s.Annotations))
		for ref, anns := range s.Annotations {
			out.Annotations[ref] = dedupeSortedStrings(anns)
		}
	}
	return out
}

func dedupeSortedStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[i-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}
