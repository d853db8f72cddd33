package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"pathowners/internal/model"
)

// Structured implements the schema-validated structured dialect. There is no
// free-text grammar; parse failures are deserialization/schema errors only,
// so strict and lenient parsing behave identically.
type Structured struct{}

type structuredConfig struct {
	IgnoreParentOwners bool               `json:"ignore_parent_owners,omitempty"`
	Owners             []structuredOwner  `json:"owners,omitempty"`
	PerFile            []structuredRule   `json:"per_file,omitempty"`
	Imports            []structuredImport `json:"imports,omitempty"`
}

type structuredOwner struct {
	Email       string   `json:"email"`
	Annotations []string `json:"annotations,omitempty"`
}

type structuredRule struct {
	Paths              []string           `json:"paths"`
	Owners             []structuredOwner  `json:"owners,omitempty"`
	IgnoreGlobalOwners bool               `json:"ignore_global_and_parent_owners,omitempty"`
	Imports            []structuredImport `json:"imports,omitempty"`
}

type structuredImport struct {
	Mode    string `json:"mode"`
	Project string `json:"project,omitempty"`
	Branch  string `json:"branch,omitempty"`
	Path    string `json:"path"`
}

func (Structured) Backend() Backend {
	return BackendStructured
}

func (c Structured) Parse(key model.CodeOwnerConfigKey, revision string, content []byte) (*model.CodeOwnerConfig, error) {
	var raw structuredConfig
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Key: key, Problems: []LineProblem{{Message: fmt.Sprintf("invalid structured config: %v", err)}}}
	}

	b := model.NewConfigBuilder(key, revision)
	if raw.IgnoreParentOwners {
		b.SetIgnoreParentCodeOwners()
	}

	var problems []LineProblem
	addProblem := func(format string, args ...any) {
		problems = append(problems, LineProblem{Message: fmt.Sprintf(format, args...)})
	}

	for _, o := range raw.Owners {
		if o.Email == "" {
			addProblem("owner entry is missing an email")
			continue
		}
		b.AddGlobalOwner(model.NewCodeOwnerReference(o.Email), o.Annotations...)
	}

	for _, imp := range raw.Imports {
		ref, err := structuredImportRef(imp, false)
		if err != nil {
			addProblem("%v", err)
			continue
		}
		b.AddImport(ref)
	}

	for i, rule := range raw.PerFile {
		if len(rule.Paths) == 0 {
			addProblem("per_file rule %d has no paths", i)
			continue
		}
		set := model.CodeOwnerSet{
			PathExpressions:                 rule.Paths,
			IgnoreGlobalAndParentCodeOwners: rule.IgnoreGlobalOwners,
		}
		for _, o := range rule.Owners {
			if o.Email == "" {
				addProblem("per_file rule %d has an owner without an email", i)
				continue
			}
			ref := model.NewCodeOwnerReference(o.Email)
			set.CodeOwners = append(set.CodeOwners, ref)
			if len(o.Annotations) > 0 {
				if set.Annotations == nil {
					set.Annotations = make(map[model.CodeOwnerReference][]string)
				}
				set.Annotations[ref] = o.Annotations
			}
		}
		for _, imp := range rule.Imports {
			ref, err := structuredImportRef(imp, true)
			if err != nil {
				addProblem("per_file rule %d: %v", i, err)
				continue
			}
			set.Imports = append(set.Imports, ref)
		}
		b.AddCodeOwnerSet(set)
	}

	if len(problems) > 0 {
		return nil, &ParseError{Key: key, Problems: problems}
	}
	return b.Build(), nil
}

// ParseLenient is identical to Parse for the structured dialect: a schema
// error invalidates the whole document, so there are no lines to drop.
func (c Structured) ParseLenient(key model.CodeOwnerConfigKey, revision string, content []byte) (*model.CodeOwnerConfig, []LineProblem) {
	cfg, err := c.Parse(key, revision, content)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, pe.Problems
		}
		return nil, []LineProblem{{Message: err.Error()}}
	}
	return cfg, nil
}

func (Structured) Format(cfg *model.CodeOwnerConfig) (string, error) {
	out := structuredConfig{IgnoreParentOwners: cfg.IgnoreParentCodeOwners}

	for _, set := range cfg.GlobalSets() {
		out.Owners = append(out.Owners, structuredOwners(set)...)
	}
	for _, imp := range cfg.Imports {
		out.Imports = append(out.Imports, structuredImportFromRef(imp))
	}
	for _, set := range cfg.PerFileSets() {
		rule := structuredRule{
			Paths:              sortedUnique(set.PathExpressions),
			Owners:             structuredOwners(set),
			IgnoreGlobalOwners: set.IgnoreGlobalAndParentCodeOwners,
		}
		for _, imp := range set.Imports {
			rule.Imports = append(rule.Imports, structuredImportFromRef(imp))
		}
		out.PerFile = append(out.PerFile, rule)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func structuredOwners(set model.CodeOwnerSet) []structuredOwner {
	owners := model.DedupeReferences(set.CodeOwners)
	model.SortReferences(owners)
	out := make([]structuredOwner, 0, len(owners))
	for _, ref := range owners {
		out = append(out, structuredOwner{Email: ref.Email, Annotations: sortedUnique(set.AnnotationsFor(ref))})
	}
	return out
}

func structuredImportRef(imp structuredImport, perFile bool) (model.CodeOwnerConfigReference, error) {
	var mode model.ImportMode
	switch imp.Mode {
	case "ALL":
		mode = model.ImportModeAll
	case "GLOBAL_CODE_OWNER_SETS_ONLY":
		mode = model.ImportModeGlobalOnly
	default:
		return model.CodeOwnerConfigReference{}, fmt.Errorf("invalid import mode %q", imp.Mode)
	}
	if perFile && mode != model.ImportModeGlobalOnly {
		return model.CodeOwnerConfigReference{}, fmt.Errorf("per_file imports must use mode GLOBAL_CODE_OWNER_SETS_ONLY")
	}
	if imp.Path == "" {
		return model.CodeOwnerConfigReference{}, fmt.Errorf("import is missing a path")
	}
	if imp.Branch != "" && imp.Project == "" {
		return model.CodeOwnerConfigReference{}, fmt.Errorf("import with a branch must also name a project")
	}
	return model.CodeOwnerConfigReference{Mode: mode, Project: imp.Project, Branch: imp.Branch, FilePath: imp.Path}, nil
}

func structuredImportFromRef(ref model.CodeOwnerConfigReference) structuredImport {
	return structuredImport{
		Mode:    ref.Mode.String(),
		Project: ref.Project,
		Branch:  ref.Branch,
		Path:    ref.FilePath,
	}
}

func sortedUnique(in []string) []string {
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
