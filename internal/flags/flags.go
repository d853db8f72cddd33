package flags

// Package flags defines canonical CLI flag names shared across the CLI.
// Keeping these as constants helps avoid drift between Cobra flag wiring and
// other code paths that need to reference flags (e.g. error messages).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Source.Branch, flags.FlagBranch, "main", "...")
//	arg := "--" + flags.FlagBranch
const (
	// Source
	FlagDir     = "dir"
	FlagGit     = "git"
	FlagGitRoot = "git-root"
	FlagGitHub  = "github"
	FlagProject = "project"
	FlagBranch  = "branch"
	FlagToken   = "token"

	// Query
	FlagLimit           = "limit"
	FlagSeed            = "seed"
	FlagResolveAllUsers = "resolve-all-users"
	FlagAllUsers        = "all-users"

	// Output
	FlagFormat  = "format"
	FlagNoColor = "no-color"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagVerbose     = "verbose"

	// Write-path commands
	FlagWrite   = "write"
	FlagDiff    = "diff"
	FlagMessage = "message"
)
