package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect
	// command behavior, keep the CLI flags in internal/cli in sync.
	Source  Source
	Query   Query
	Output  Output
	Runtime Runtime
}

type Source struct {
	// Dir serves config files from a plain directory tree (see --dir).
	Dir string

	// Git serves config files from a local Git repository, bare or with a
	// worktree (see --git).
	Git string

	// GitRoot serves config files from a directory of Git repositories, one
	// per project (see --git-root). Required for cross-project imports.
	GitRoot string

	// GitHub serves config files from a GitHub repository as OWNER/REPO
	// (see --github).
	GitHub string

	// Project is the project name queries run against. Defaults to the
	// repository or directory name for single-repo sources.
	Project string

	// Branch is the branch queries run against (see --branch).
	Branch string

	// Token is an explicit GitHub access token (see --token). When empty,
	// GITHUB_TOKEN and gh CLI authentication are tried in that order.
	Token string
}

type Query struct {
	// Limit caps how many owners are returned per path (see --limit).
	// 0 means unlimited.
	Limit int

	// Seed makes owner ranking and all-users sampling reproducible (see --seed).
	Seed int64

	// ResolveAllUsers expands the all-users wildcard into a bounded sample
	// drawn from AllUsers (see --resolve-all-users).
	ResolveAllUsers bool

	// AllUsers is the account directory used for wildcard sampling (see
	// --all-users). Values may be provided as repeated flags and/or
	// comma-separated lists.
	AllUsers []string
}

type Output struct {
	// Format controls the console format (see --format).
	// Allowed values: text, json, ndjson.
	Format string

	// NoColor disables colored text output (see --no-color).
	NoColor bool
}

type Runtime struct {
	// Concurrency controls parallelism when resolving multiple paths
	// (see --concurrency). Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the command (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// Verbose enables more detailed diagnostics on stderr, including every
	// GitHub API request when the GitHub source is used.
	Verbose bool
}

// envOverrides are environment fallbacks applied before validation.
// Explicit flags always win.
type envOverrides struct {
	Branch  string `env:"PATHOWNERS_BRANCH"`
	GitRoot string `env:"PATHOWNERS_GIT_ROOT"`
	Token   string `env:"PATHOWNERS_TOKEN"`
}

func New() *Config {
	return &Config{
		Source: Source{
			Branch: "main",
		},
		Output: Output{
			Format: "text",
		},
		Runtime: Runtime{
			Concurrency: 5,
			Timeout:     5 * time.Minute,
		},
	}
}

// ApplyEnv fills unset source fields from the environment.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	if c.Source.Branch == "" && o.Branch != "" {
		c.Source.Branch = o.Branch
	}
	if o.GitRoot != "" && c.Source.Dir == "" && c.Source.Git == "" && c.Source.GitRoot == "" && c.Source.GitHub == "" {
		c.Source.GitRoot = o.GitRoot
	}
	if c.Source.Token == "" && o.Token != "" {
		c.Source.Token = o.Token
	}
	return nil
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Query.AllUsers = splitCommaList(c.Query.AllUsers)

	// Source validation
	sources := 0
	for _, v := range []string{c.Source.Dir, c.Source.Git, c.Source.GitRoot, c.Source.GitHub} {
		if v != "" {
			sources++
		}
	}
	if sources == 0 {
		return errors.New("one of --dir, --git, --git-root, or --github must be provided")
	}
	if sources > 1 {
		return errors.New("--dir, --git, --git-root, and --github are mutually exclusive")
	}
	if c.Source.GitHub != "" {
		owner, repo, ok := strings.Cut(c.Source.GitHub, "/")
		if !ok || owner == "" || repo == "" {
			return fmt.Errorf("invalid --github value %q: expected OWNER/REPO", c.Source.GitHub)
		}
	}
	if c.Source.GitRoot != "" && c.Source.Project == "" {
		return errors.New("--git-root requires --project")
	}
	if c.Source.Branch == "" {
		return errors.New("--branch must not be empty")
	}

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Output.Format != "text" && c.Output.Format != "json" && c.Output.Format != "ndjson" {
		return fmt.Errorf("unsupported --format: %s (must be one of: text, json, ndjson)", c.Output.Format)
	}

	// Query validation
	if c.Query.Limit < 0 {
		return errors.New("--limit must be >= 0")
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
