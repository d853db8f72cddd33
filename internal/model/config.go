package model

// CodeOwnerConfig is the parsed contents of one code-owner config file.
// Configs are immutable values; an update produces a new config that the
// store persists under the same key.
type CodeOwnerConfig struct {
	Key CodeOwnerConfigKey

	// Revision identifies the storage version the config was parsed from
	// (e.g. a commit id). Required for cache correctness.
	Revision string

	// IgnoreParentCodeOwners is the top-level "set noparent" flag.
	IgnoreParentCodeOwners bool

	// CodeOwnerSets holds the global set (if any owners were declared without
	// path expressions) first, then per-file sets in file order.
	CodeOwnerSets []CodeOwnerSet

	// Imports are folder-level imports ("include" / "file:" lines).
	Imports []CodeOwnerConfigReference
}

// GlobalSets returns the sets that apply to the whole folder.
func (c *CodeOwnerConfig) GlobalSets() []CodeOwnerSet {
	var out []CodeOwnerSet
	for _, s := range c.CodeOwnerSets {
		if s.IsGlobal() {
			out = append(out, s)
		}
	}
	return out
}

// PerFileSets returns the sets restricted by path expressions, in file order.
func (c *CodeOwnerConfig) PerFileSets() []CodeOwnerSet {
	var out []CodeOwnerSet
	for _, s := range c.CodeOwnerSets {
		if !s.IsGlobal() {
			out = append(out, s)
		}
	}
	return out
}

// IsEmpty reports whether the config declares nothing at all.
func (c *CodeOwnerConfig) IsEmpty() bool {
	return !c.IgnoreParentCodeOwners && len(c.CodeOwnerSets) == 0 && len(c.Imports) == 0
}

// ConfigBuilder accumulates parse state and produces a normalized
// CodeOwnerConfig. It is transient scratch space for a single parse and must
// not be shared across goroutines.
type ConfigBuilder struct {
	key                    CodeOwnerConfigKey
	revision               string
	ignoreParentCodeOwners bool
	globalOwners           []CodeOwnerReference
	globalAnnotations      map[CodeOwnerReference][]string
	perFileSets            []CodeOwnerSet
	imports                []CodeOwnerConfigReference
}

func NewConfigBuilder(key CodeOwnerConfigKey, revision string) *ConfigBuilder {
	return &ConfigBuilder{key: key, revision: revision}
}

func (b *ConfigBuilder) SetIgnoreParentCodeOwners() *ConfigBuilder {
	b.ignoreParentCodeOwners = true
	return b
}

// AddGlobalOwner records a folder-wide owner with its annotations. All global
// owners are merged into a single set placed first in the built config.
func (b *ConfigBuilder) AddGlobalOwner(ref CodeOwnerReference, annotations ...string) *ConfigBuilder {
	b.globalOwners = append(b.globalOwners, ref)
	if len(annotations) > 0 {
		if b.globalAnnotations == nil {
			b.globalAnnotations = make(map[CodeOwnerReference][]string)
		}
		b.globalAnnotations[ref] = append(b.globalAnnotations[ref], annotations...)
	}
	return b
}

// AddCodeOwnerSet appends a set. Global sets are folded into the builder's
// single global set so the built config never contains two of them.
func (b *ConfigBuilder) AddCodeOwnerSet(s CodeOwnerSet) *ConfigBuilder {
	if s.IsGlobal() && len(s.Imports) == 0 && !s.IgnoreGlobalAndParentCodeOwners {
		for _, ref := range s.CodeOwners {
			b.AddGlobalOwner(ref, s.Annotations[ref]...)
		}
		return b
	}
	b.perFileSets = append(b.perFileSets, s)
	return b
}

func (b *ConfigBuilder) AddImport(ref CodeOwnerConfigReference) *ConfigBuilder {
	b.imports = append(b.imports, ref)
	return b
}

func (b *ConfigBuilder) Build() *CodeOwnerConfig {
	cfg := &CodeOwnerConfig{
		Key:                    b.key,
		Revision:               b.revision,
		IgnoreParentCodeOwners: b.ignoreParentCodeOwners,
		Imports:                append([]CodeOwnerConfigReference(nil), b.imports...),
	}
	if len(b.globalOwners) > 0 {
		cfg.CodeOwnerSets = append(cfg.CodeOwnerSets, NormalizedSet(CodeOwnerSet{
			CodeOwners:  b.globalOwners,
			Annotations: b.globalAnnotations,
		}))
	}
	for _, s := range b.perFileSets {
		cfg.CodeOwnerSets = append(cfg.CodeOwnerSets, NormalizedSet(s))
	}
	return cfg
}
