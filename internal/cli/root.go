package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pathowners/internal/config"
	"pathowners/internal/flags"
)

var cfg = config.New()

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pathowners",
	Short: "Resolve code owners for paths from OWNERS-style config files",
	Long: `Pathowners reads code-owner config files from a directory tree, a local Git
repository, or a GitHub repository, and answers who owns which path.

Config files are discovered per folder and evaluated from the path's folder up
to the repository root, honoring per-file rules, imports across files and
projects, and the repository-level owner settings.

Examples:
	# Who owns a file, reading OWNERS files from a working tree
	pathowners resolve --dir . src/storage/engine.go

	# Check a specific user against a local Git repository
	pathowners check --git ~/src/backend src/api/server.go alice@example.com

	# Validate every config file on a branch of a GitHub repository
	pathowners validate --github acme/backend --branch release-1.2

	# Print build info
	pathowners version

Output:
	By default, commands write human-readable output to stdout.
	Use --format json or --format ndjson for machine-readable output.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.Source.Dir, flags.FlagDir, "", "Read config files from this directory tree")
	pf.StringVar(&cfg.Source.Git, flags.FlagGit, "", "Read config files from this local Git repository")
	pf.StringVar(&cfg.Source.GitRoot, flags.FlagGitRoot, "", "Read config files from Git repositories under this root, one per project (requires --project)")
	pf.StringVar(&cfg.Source.GitHub, flags.FlagGitHub, "", "Read config files from a GitHub repository as OWNER/REPO")
	pf.StringVar(&cfg.Source.Project, flags.FlagProject, "", "Project name to query (default: repository or directory name)")
	pf.StringVar(&cfg.Source.Branch, flags.FlagBranch, "main", "Branch to query")
	pf.StringVar(&cfg.Source.Token, flags.FlagToken, "", "GitHub access token (default: GITHUB_TOKEN, then gh CLI auth)")

	pf.StringVar(&cfg.Output.Format, flags.FlagFormat, "text", "Output format: text|json|ndjson")
	pf.BoolVar(&cfg.Output.NoColor, flags.FlagNoColor, false, "Disable colored output")

	pf.DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout")
	pf.BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose diagnostics (prints debug logs and every GitHub API call)")
}

// setup finalizes the config before a command runs. Commands that read or
// write a config source must call it first.
func setup() error {
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Output.NoColor {
		color.NoColor = true
	}
	return nil
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
