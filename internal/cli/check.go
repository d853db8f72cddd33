package cli

import (
	"context"

	"github.com/spf13/cobra"

	"pathowners/internal/flags"
	"pathowners/internal/output"
	"pathowners/internal/owners"
)

var checkCmd = &cobra.Command{
	Use:   "check [path] [email]",
	Short: "Check whether an email is a code owner of a path",
	Long: `Check whether a specific email is a code owner of a path and explain why.

The answer includes the config files that name the email and whether ownership
comes from per-folder rules, the repository's default or global owners, the
fallback policy, or the all-users wildcard. Unlike "resolve", broken config
files do not abort the check; they are reported in the debug log (--verbose).

Examples:
  pathowners check --dir . src/api/server.go alice@example.com
  pathowners check --github acme/backend --branch release-1.2 docs/index.md bob@example.com
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
		defer cancel()

		st, project, err := openStore(ctx)
		if err != nil {
			return err
		}
		resolver := owners.NewResolver(st)

		res, err := resolver.Check(ctx, project, cfg.Source.Branch, args[0], args[1], owners.Options{
			Seed: cfg.Query.Seed,
		})
		if err != nil {
			return err
		}

		sink := output.NewConsoleSink(cmd.OutOrStdout(), cfg.Output.Format, cfg.Runtime.Verbose)
		if err := sink.Write(res); err != nil {
			return err
		}
		return sink.Close()
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Int64Var(&cfg.Query.Seed, flags.FlagSeed, 0, "Seed for reproducible ranking and sampling")
}
