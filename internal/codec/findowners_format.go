package codec

import (
	"sort"
	"strings"

	"pathowners/internal/model"
)

// Format renders the canonical text form of a config. Output is
// deterministic: emails, globs, annotations, and imports are sorted and
// deduplicated. Comments and blank lines from the original file are not
// reproduced, so formatting is a semantic round trip, not a textual one.
func (FindOwners) Format(cfg *model.CodeOwnerConfig) (string, error) {
	var sb strings.Builder

	if cfg.IgnoreParentCodeOwners {
		sb.WriteString("set noparent\n")
	}

	for _, imp := range sortedImportLines(cfg.Imports) {
		sb.WriteString(imp)
		sb.WriteString("\n")
	}

	for _, set := range cfg.GlobalSets() {
		owners := append([]model.CodeOwnerReference(nil), set.CodeOwners...)
		owners = model.DedupeReferences(owners)
		model.SortReferences(owners)
		for _, ref := range owners {
			sb.WriteString(ref.Email)
			sb.WriteString(annotationSuffix(set.AnnotationsFor(ref)))
			sb.WriteString("\n")
		}
	}

	for _, set := range cfg.PerFileSets() {
		globs := formatGlobs(set.PathExpressions)

		if set.IgnoreGlobalAndParentCodeOwners {
			sb.WriteString("per-file " + globs + "=set noparent\n")
		}
		for _, line := range perFileOwnerLines(globs, set) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		for _, imp := range set.Imports {
			sb.WriteString("per-file " + globs + "=file: " + importValue(imp) + "\n")
		}
	}

	return sb.String(), nil
}

// perFileOwnerLines renders a per-file set's owners, grouping owners that
// share the same annotations onto one line (annotations in a line comment
// apply to every owner on the line).
func perFileOwnerLines(globs string, set model.CodeOwnerSet) []string {
	if len(set.CodeOwners) == 0 {
		return nil
	}

	owners := model.DedupeReferences(set.CodeOwners)
	model.SortReferences(owners)

	groups := make(map[string][]string)
	for _, ref := range owners {
		suffix := annotationSuffix(set.AnnotationsFor(ref))
		groups[suffix] = append(groups[suffix], ref.Email)
	}

	suffixes := make([]string, 0, len(groups))
	for suffix := range groups {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)

	lines := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		lines = append(lines, "per-file "+globs+"="+strings.Join(groups[suffix], ",")+suffix)
	}
	return lines
}

func annotationSuffix(annotations []string) string {
	if len(annotations) == 0 {
		return ""
	}
	sorted := append([]string(nil), annotations...)
	sort.Strings(sorted)
	var sb strings.Builder
	sb.WriteString(" ")
	for _, a := range sorted {
		sb.WriteString("#{" + a + "}")
	}
	return sb.String()
}

func formatGlobs(globs []string) string {
	sorted := append([]string(nil), globs...)
	sort.Strings(sorted)
	n := 0
	for i, g := range sorted {
		if i > 0 && g == sorted[i-1] {
			continue
		}
		sorted[n] = g
		n++
	}
	return strings.Join(sorted[:n], ",")
}

func sortedImportLines(imports []model.CodeOwnerConfigReference) []string {
	lines := make([]string, 0, len(imports))
	seen := make(map[string]struct{}, len(imports))
	for _, imp := range imports {
		var line string
		if imp.Mode == model.ImportModeAll {
			line = "include " + importValue(imp)
		} else {
			line = "file: " + importValue(imp)
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}

func importValue(ref model.CodeOwnerConfigReference) string {
	switch {
	case ref.Project != "" && ref.Branch != "":
		return ref.Project + ":" + ref.Branch + ":" + ref.FilePath
	case ref.Project != "":
		return ref.Project + ":" + ref.FilePath
	default:
		return ref.FilePath
	}
}
