package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"pathowners/internal/flags"
	"pathowners/internal/output"
	"pathowners/internal/owners"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]...",
	Short: "Resolve the code owners of one or more paths",
	Long: `Resolve the code owners of one or more paths on a branch.

For each path, config files are evaluated from the path's folder up to the
repository root. Owners are ranked by distance (closest folder first); ties
are broken by a seeded shuffle so repeated runs with the same --seed return
the same order.

Examples:
  # Owners of a single file from a working tree
  pathowners resolve --dir . src/storage/engine.go

  # Several paths against a GitHub repository, capped to 3 owners each
  pathowners resolve --github acme/backend --limit 3 src/a.go src/b.go

  # Expand the all-users wildcard into a sample of known accounts
  pathowners resolve --dir . --resolve-all-users --all-users alice@example.com,bob@example.com docs/index.md
`,
	Args: cobra.MinimumNArgs(1),
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
		opts := owners.Options{
			ResolveAllUsers: cfg.Query.ResolveAllUsers,
			AllUsers:        cfg.Query.AllUsers,
			Seed:            cfg.Query.Seed,
			Limit:           cfg.Query.Limit,
		}

		results, err := resolvePaths(ctx, resolver, project, cfg.Source.Branch, args, opts, cfg.Runtime.Concurrency)
		if err != nil {
			return err
		}

		sink := output.NewConsoleSink(cmd.OutOrStdout(), cfg.Output.Format, cfg.Runtime.Verbose)
		for _, po := range results {
			if err := sink.Write(po); err != nil {
				return err
			}
		}
		return sink.Close()
	},
}

// resolvePaths fans resolution out over a bounded number of workers and
// returns the results in argument order. The first error cancels the rest.
func resolvePaths(ctx context.Context, resolver *owners.Resolver, project, branch string, paths []string, opts owners.Options, concurrency int) ([]*owners.PathOwners, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, concurrency)
	results := make([]*owners.PathOwners, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup

scheduleLoop:
	for i, p := range paths {
		select {
		case sem <- struct{}{}:
			// acquired
		case <-runCtx.Done():
			break scheduleLoop
		}

		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			defer func() { <-sem }()

			po, err := resolver.OwnersOf(runCtx, project, branch, p, opts)
			if err != nil {
				errs[i] = fmt.Errorf("resolving %s: %w", p, err)
				cancel()
				return
			}
			results[i] = po
		}(i, p)
	}

	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().IntVar(&cfg.Query.Limit, flags.FlagLimit, 0, "Maximum owners to return per path (0 = unlimited)")
	resolveCmd.Flags().Int64Var(&cfg.Query.Seed, flags.FlagSeed, 0, "Seed for reproducible ranking and sampling")
	resolveCmd.Flags().BoolVar(&cfg.Query.ResolveAllUsers, flags.FlagResolveAllUsers, false, "Expand the all-users wildcard into sampled accounts from --all-users")
	resolveCmd.Flags().StringSliceVar(&cfg.Query.AllUsers, flags.FlagAllUsers, nil, "Accounts eligible for wildcard sampling (repeatable; comma-separated accepted)")
	resolveCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Concurrent workers for multi-path resolution")
}
