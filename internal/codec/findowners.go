package codec

import (
	"fmt"
	"regexp"
	"strings"

	"pathowners/internal/model"
)

// FindOwners implements the line-oriented OWNERS syntax:
//
//	set noparent
//	include [project:[branch:]]path
//	file: [project:[branch:]]path
//	email-or-* [# comment with optional #{ANNOTATION} tokens]
//	per-file globs = email[,email...] [# comment]
//	per-file globs = set noparent
//	per-file globs = file: [project:[branch:]]path
//
// Blank lines and lines starting with "#" are ignored.
type FindOwners struct{}

var (
	emailPattern      = regexp.MustCompile(`^[^\s@,=#]+@[^\s@,=#]+$`)
	annotationPattern = regexp.MustCompile(`#\{([^{}\s]*)\}`)
)

func (FindOwners) Backend() Backend {
	return BackendFindOwners
}

func (c FindOwners) Parse(key model.CodeOwnerConfigKey, revision string, content []byte) (*model.CodeOwnerConfig, error) {
	cfg, problems := c.parse(key, revision, content, false)
	if len(problems) > 0 {
		return nil, &ParseError{Key: key, Problems: problems}
	}
	return cfg, nil
}

func (c FindOwners) ParseLenient(key model.CodeOwnerConfigKey, revision string, content []byte) (*model.CodeOwnerConfig, []LineProblem) {
	return c.parse(key, revision, content, true)
}

func (c FindOwners) parse(key model.CodeOwnerConfigKey, revision string, content []byte, lenient bool) (*model.CodeOwnerConfig, []LineProblem) {
	b := model.NewConfigBuilder(key, revision)
	var problems []LineProblem

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case line == "set noparent":
			// Idempotent; repeating it is allowed.
			b.SetIgnoreParentCodeOwners()

		case strings.HasPrefix(line, "per-file "):
			if problem := parsePerFileLine(b, strings.TrimPrefix(line, "per-file ")); problem != "" {
				problems = append(problems, LineProblem{Line: lineNo, Message: problem})
			}

		case strings.HasPrefix(line, "include "):
			ref, problem := parseImportValue(model.ImportModeAll, strings.TrimPrefix(line, "include "))
			if problem != "" {
				problems = append(problems, LineProblem{Line: lineNo, Message: problem})
				continue
			}
			b.AddImport(ref)

		case strings.HasPrefix(line, "file:"):
			ref, problem := parseImportValue(model.ImportModeGlobalOnly, strings.TrimPrefix(line, "file:"))
			if problem != "" {
				problems = append(problems, LineProblem{Line: lineNo, Message: problem})
				continue
			}
			b.AddImport(ref)

		default:
			owner, annotations, problem := parseOwnerLine(line)
			if problem != "" {
				problems = append(problems, LineProblem{Line: lineNo, Message: problem})
				continue
			}
			b.AddGlobalOwner(owner, annotations...)
		}
	}

	if !lenient && len(problems) > 0 {
		return nil, problems
	}
	return b.Build(), problems
}

// splitComment splits a line at the first "#" into content and comment. The
// comment part may carry #{TAG} annotation tokens; everything else in it is
// discarded.
func splitComment(line string) (content, comment string) {
	if idx := strings.Index(line, "#"); idx >= 0 {
		return strings.TrimSpace(line[:idx]), line[idx:]
	}
	return line, ""
}

// parseAnnotations extracts #{TAG} tokens from a comment. Empty tags are
// dropped; they carry no information and must not fail parsing.
func parseAnnotations(comment string) []string {
	var out []string
	for _, m := range annotationPattern.FindAllStringSubmatch(comment, -1) {
		if m[1] == "" {
			continue
		}
		out = append(out, m[1])
	}
	return out
}

func parseOwnerLine(line string) (model.CodeOwnerReference, []string, string) {
	content, comment := splitComment(line)
	annotations := parseAnnotations(comment)

	if content == model.AllUsersWildcard {
		return model.NewCodeOwnerReference(model.AllUsersWildcard), annotations, ""
	}
	if !emailPattern.MatchString(content) {
		return model.CodeOwnerReference{}, nil, fmt.Sprintf("invalid line: %q", line)
	}
	return model.NewCodeOwnerReference(content), annotations, ""
}

func parsePerFileLine(b *model.ConfigBuilder, rest string) string {
	content, comment := splitComment(rest)
	annotations := parseAnnotations(comment)

	globsPart, directive, ok := strings.Cut(content, "=")
	if !ok {
		return fmt.Sprintf("invalid per-file line: missing '=' in %q", rest)
	}

	var globs []string
	for _, g := range SplitGlobs(strings.TrimSpace(globsPart)) {
		g = strings.TrimSpace(g)
		if g == "" {
			return fmt.Sprintf("invalid per-file line: empty path expression in %q", rest)
		}
		globs = append(globs, g)
	}
	if len(globs) == 0 {
		return fmt.Sprintf("invalid per-file line: no path expressions in %q", rest)
	}

	directive = strings.TrimSpace(directive)
	switch {
	case directive == "set noparent":
		b.AddCodeOwnerSet(model.CodeOwnerSet{
			PathExpressions:                 globs,
			IgnoreGlobalAndParentCodeOwners: true,
		})
		return ""

	case strings.HasPrefix(directive, "include "), directive == "include":
		// A per-file import can only pull in global owner sets; the ALL import
		// mode is structurally unsupported in a per-file context.
		return fmt.Sprintf("per-file imports must use the file: syntax, not include: %q", rest)

	case strings.HasPrefix(directive, "file:"):
		ref, problem := parseImportValue(model.ImportModeGlobalOnly, strings.TrimPrefix(directive, "file:"))
		if problem != "" {
			return problem
		}
		b.AddCodeOwnerSet(model.CodeOwnerSet{
			PathExpressions: globs,
			Imports:         []model.CodeOwnerConfigReference{ref},
		})
		return ""

	default:
		set := model.CodeOwnerSet{PathExpressions: globs}
		for _, token := range strings.Split(directive, ",") {
			token = strings.TrimSpace(token)
			if token == model.AllUsersWildcard {
				set.CodeOwners = append(set.CodeOwners, model.NewCodeOwnerReference(token))
				continue
			}
			if !emailPattern.MatchString(token) {
				return fmt.Sprintf("invalid per-file owner %q in %q", token, rest)
			}
			set.CodeOwners = append(set.CodeOwners, model.NewCodeOwnerReference(token))
		}
		if len(annotations) > 0 {
			set.Annotations = make(map[model.CodeOwnerReference][]string, len(set.CodeOwners))
			for _, ref := range set.CodeOwners {
				set.Annotations[ref] = append([]string(nil), annotations...)
			}
		}
		b.AddCodeOwnerSet(set)
		return ""
	}
}

// parseImportValue parses the value of an include/file: directive. The value
// is "path", "project:path" or "project:branch:path"; a branch can only be
// given together with a project.
func parseImportValue(mode model.ImportMode, value string) (model.CodeOwnerConfigReference, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return model.CodeOwnerConfigReference{}, "import is missing a file path"
	}

	ref := model.CodeOwnerConfigReference{Mode: mode}
	parts := strings.SplitN(value, ":", 3)
	switch len(parts) {
	case 1:
		ref.FilePath = strings.TrimSpace(parts[0])
	case 2:
		ref.Project = strings.TrimSpace(parts[0])
		ref.FilePath = strings.TrimSpace(parts[1])
		if ref.Project == "" {
			return model.CodeOwnerConfigReference{}, fmt.Sprintf("invalid import %q: empty project", value)
		}
	case 3:
		ref.Project = strings.TrimSpace(parts[0])
		ref.Branch = strings.TrimSpace(parts[1])
		ref.FilePath = strings.TrimSpace(parts[2])
		if ref.Project == "" || ref.Branch == "" {
			return model.CodeOwnerConfigReference{}, fmt.Sprintf("invalid import %q: project and branch must both be non-empty", value)
		}
	}
	if ref.FilePath == "" {
		return model.CodeOwnerConfigReference{}, fmt.Sprintf("invalid import %q: empty file path", value)
	}
	return ref, ""
}
