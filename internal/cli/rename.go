package cli

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"pathowners/internal/codec"
	"pathowners/internal/flags"
	"pathowners/internal/model"
	"pathowners/internal/output"
	"pathowners/internal/store"
)

var renameWrite bool

var renameCmd = &cobra.Command{
	Use:   "rename-email [old-email] [new-email]",
	Short: "Rename an email across all config files",
	Long: `Rename an email address in every code-owner config file on the branch.

For the find-owners dialect the replacement is textual: comments, ordering,
and formatting of the files are preserved exactly. The structured dialect is
rewritten through the parser. Only whole emails are replaced; substrings of
longer emails are left alone.

Without --write the command only lists the files that would change. Writes go
through the optimistic-concurrency retry loop, so a concurrent edit of an
unrelated part of the file does not lose the rename.

Examples:
  pathowners rename-email --dir . old@example.com new@example.com
  pathowners rename-email --git ~/src/backend --write old@example.com new@example.com
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}
		oldEmail, newEmail := args[0], args[1]

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
		defer cancel()

		st, project, err := openStore(ctx)
		if err != nil {
			return err
		}
		bctx, err := openBranch(ctx, st, project, cfg.Source.Branch)
		if err != nil {
			return err
		}

		sink := output.NewConsoleSink(cmd.OutOrStdout(), cfg.Output.Format, cfg.Runtime.Verbose)
		for _, filePath := range bctx.configFiles {
			change, err := renameInFile(ctx, st, bctx, project, filePath, oldEmail, newEmail)
			if err != nil {
				return err
			}
			if err := sink.Write(change); err != nil {
				return err
			}
		}
		return sink.Close()
	},
}

func renameInFile(ctx context.Context, st store.Store, bctx *branchContext, project, filePath, oldEmail, newEmail string) (output.FileChange, error) {
	change := output.FileChange{Path: filePath}

	rewrite := func(key model.CodeOwnerConfigKey, blob *store.Blob) (string, error) {
		if bctx.codec.Backend() == codec.BackendFindOwners {
			return codec.ReplaceEmail(string(blob.Content), oldEmail, newEmail), nil
		}
		parsed, err := bctx.codec.Parse(key, blob.Revision, blob.Content)
		if err != nil {
			return "", fmt.Errorf("cannot rewrite %s: %w", filePath, err)
		}
		renameInConfig(parsed, oldEmail, newEmail)
		return bctx.codec.Format(parsed)
	}

	key := model.NewCodeOwnerConfigKey(project, cfg.Source.Branch, path.Dir(filePath))

	blob, err := bctx.snap.Load(ctx, filePath)
	if err != nil || blob == nil {
		return change, err
	}
	updated, err := rewrite(key, blob)
	if err != nil {
		return change, err
	}
	change.Changed = updated != string(blob.Content)
	if !renameWrite || !change.Changed {
		return change, nil
	}

	_, err = store.SaveWithRetry(ctx, st, project, cfg.Source.Branch, filePath, store.Author{}, func(prev *store.Blob) ([]byte, error) {
		if prev == nil {
			return nil, fmt.Errorf("%s was deleted concurrently", filePath)
		}
		updated, err := rewrite(key, prev)
		if err != nil {
			return nil, err
		}
		return []byte(updated), nil
	})
	if err != nil {
		return change, fmt.Errorf("writing %s: %w", filePath, err)
	}
	return change, nil
}

// renameInConfig replaces the email in every owner reference of the config,
// including per-file sets and annotation keys.
func renameInConfig(cfg *model.CodeOwnerConfig, oldEmail, newEmail string) {
	oldRef := model.NewCodeOwnerReference(oldEmail)
	newRef := model.NewCodeOwnerReference(newEmail)
	for si := range cfg.CodeOwnerSets {
		set := &cfg.CodeOwnerSets[si]
		for oi, ref := range set.CodeOwners {
			if ref == oldRef {
				set.CodeOwners[oi] = newRef
			}
		}
		if annotations, ok := set.Annotations[oldRef]; ok {
			delete(set.Annotations, oldRef)
			set.Annotations[newRef] = annotations
		}
	}
}

func init() {
	rootCmd.AddCommand(renameCmd)
	renameCmd.Flags().BoolVar(&renameWrite, flags.FlagWrite, false, "Write renamed files back to the source")
}
