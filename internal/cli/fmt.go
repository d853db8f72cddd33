package cli

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"pathowners/internal/codec"
	"pathowners/internal/flags"
	"pathowners/internal/model"
	"pathowners/internal/output"
	"pathowners/internal/settings"
	"pathowners/internal/store"
)

var (
	fmtWrite bool
	fmtDiff  bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt",
	Short: "Reformat config files into canonical form",
	Long: `Reformat every code-owner config file on the branch into canonical form.

Canonical form sorts and deduplicates owners, imports, and per-file rules.
Reformatting never changes meaning: a reformatted file resolves to the same
owners as the original. Files that fail to parse are reported and skipped.

By default fmt only lists the files that would change. Use --diff to see the
changes and --write to save them back to the source.

Examples:
  pathowners fmt --dir . --diff
  pathowners fmt --git ~/src/backend --write
`,
	Args: cobra.NoArgs,
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
		bctx, err := openBranch(ctx, st, project, cfg.Source.Branch)
		if err != nil {
			return err
		}

		sink := output.NewConsoleSink(cmd.OutOrStdout(), cfg.Output.Format, cfg.Runtime.Verbose)
		for _, filePath := range bctx.configFiles {
			change, err := formatFile(ctx, st, bctx, project, filePath)
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

// branchContext is the per-branch state shared by the write-path commands:
// the pinned snapshot, the effective settings, the codec for the configured
// dialect, and the config files found on the branch.
type branchContext struct {
	snap        store.Snapshot
	settings    *settings.Settings
	codec       codec.Codec
	configFiles []string
}

func openBranch(ctx context.Context, st store.Store, project, branch string) (*branchContext, error) {
	snap, err := st.Snapshot(ctx, project, branch)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s:%s", store.ErrBranchMissing, project, branch)
	}

	cfg, err := settings.Load(ctx, snap)
	if err != nil {
		return nil, err
	}
	c, err := codec.ForBackend(codec.Backend(cfg.Backend))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", settings.ErrInvalidConfiguration, err)
	}

	var files []string
	for _, name := range cfg.FileNames() {
		found, err := snap.Files(ctx, name)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return &branchContext{snap: snap, settings: cfg, codec: c, configFiles: files}, nil
}

func formatFile(ctx context.Context, st store.Store, bctx *branchContext, project, filePath string) (output.FileChange, error) {
	change := output.FileChange{Path: filePath}

	blob, err := bctx.snap.Load(ctx, filePath)
	if err != nil {
		return change, err
	}
	if blob == nil {
		return change, nil
	}

	key := model.NewCodeOwnerConfigKey(project, cfg.Source.Branch, path.Dir(filePath))
	parsed, err := bctx.codec.Parse(key, blob.Revision, blob.Content)
	if err != nil {
		return change, fmt.Errorf("cannot format %s: %w", filePath, err)
	}
	formatted, err := bctx.codec.Format(parsed)
	if err != nil {
		return change, err
	}
	if formatted == string(blob.Content) {
		return change, nil
	}
	change.Changed = true
	if fmtDiff {
		change.Diff = renderDiff(string(blob.Content), formatted)
	}

	if fmtWrite {
		_, err := st.Save(ctx, project, cfg.Source.Branch, filePath, blob.Revision, []byte(formatted), store.Author{})
		if err != nil {
			return change, fmt.Errorf("writing %s: %w", filePath, err)
		}
	}
	return change, nil
}

// renderDiff renders a minimal line diff: the common prefix and suffix are
// elided, the differing middle is shown as removed and added lines.
func renderDiff(before, after string) string {
	a := strings.Split(before, "\n")
	b := strings.Split(after, "\n")

	start := 0
	for start < len(a) && start < len(b) && a[start] == b[start] {
		start++
	}
	endA, endB := len(a), len(b)
	for endA > start && endB > start && a[endA-1] == b[endB-1] {
		endA--
		endB--
	}

	var sb strings.Builder
	for _, line := range a[start:endA] {
		sb.WriteString("- " + line + "\n")
	}
	for _, line := range b[start:endB] {
		sb.WriteString("+ " + line + "\n")
	}
	return sb.String()
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().BoolVar(&fmtWrite, flags.FlagWrite, false, "Write reformatted files back to the source")
	fmtCmd.Flags().BoolVar(&fmtDiff, flags.FlagDiff, false, "Show the changes instead of only listing changed files")
}
