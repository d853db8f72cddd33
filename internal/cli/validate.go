package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pathowners/internal/output"
	"pathowners/internal/owners"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every config file on the branch",
	Long: `Validate every code-owner config file on the branch in one pass.

Reported problems:
  parse   the file does not conform to the configured dialect
  import  an import cannot be resolved (missing file, missing branch,
          invalid target, cycle budget exceeded)

Exit codes:
  0 = all config files are valid
  1 = problems found
  2 = validation did not run (e.g. missing branch)

Examples:
  pathowners validate --dir .
  pathowners validate --github acme/backend --branch release-1.2 --format json
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := setup(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
		defer cancel()

		st, project, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		findings, err := owners.NewResolver(st).Validate(ctx, project, cfg.Source.Branch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		sink := output.NewConsoleSink(cmd.OutOrStdout(), cfg.Output.Format, cfg.Runtime.Verbose)
		for _, f := range findings {
			if err := sink.Write(f); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
		}
		if err := sink.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if len(findings) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
