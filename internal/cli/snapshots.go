package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/halverson/orrery/internal/snapshot"
)

// SnapshotsOptions holds flags shared by the snapshots subcommands.
type SnapshotsOptions struct {
	*RootOptions
	Database string
	RunToken string
}

// NewSnapshotsCommand creates the snapshots command group.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect persisted snapshots",
		Long: `Inspect snapshots persisted by runs with --db.

Examples:
  orrery snapshots runs --db ./orrery.db
  orrery snapshots list --db ./orrery.db --run <token>
  orrery snapshots diff --db ./orrery.db --run <token> 1 5`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newSnapshotsRunsCommand(opts))
	cmd.AddCommand(newSnapshotsListCommand(opts))
	cmd.AddCommand(newSnapshotsDiffCommand(opts))

	return cmd
}

func newSnapshotsRunsCommand(opts *SnapshotsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "runs",
		Short:         "List run tokens in the database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts.Database, func(ctx context.Context, st *snapshot.Store) error {
				runs, err := st.ListRuns(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list runs", err)
				}
				formatter := formatterFor(opts.RootOptions, cmd)
				if opts.Format == "json" {
					return formatter.Success(map[string]any{"runs": runs})
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs found.")
					return nil
				}
				for _, token := range runs {
					fmt.Fprintln(cmd.OutOrStdout(), token)
				}
				return nil
			}, cmd)
		},
	}
}

func newSnapshotsListCommand(opts *SnapshotsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List snapshots for a run",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts.Database, func(ctx context.Context, st *snapshot.Store) error {
				snaps, err := st.ListSnapshots(ctx, opts.RunToken)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list snapshots", err)
				}
				formatter := formatterFor(opts.RootOptions, cmd)
				if opts.Format == "json" {
					return formatter.Success(map[string]any{
						"run_token": opts.RunToken,
						"snapshots": snaps,
					})
				}
				if len(snaps) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No snapshots for run %s.\n", opts.RunToken)
					return nil
				}
				for _, s := range snaps {
					label := s.Label
					if label == "" {
						label = "-"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%6d  t=%-12.6f step=%-8d %-16s %s\n",
						s.ID, s.Time, s.Step, label, s.Fingerprint[:16])
				}
				return nil
			}, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token (required)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func newSnapshotsDiffCommand(opts *SnapshotsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "diff <id-a> <id-b>",
		Short:         "Diff two snapshots of a run",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			idA, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid snapshot id %q", args[0]), err)
			}
			idB, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid snapshot id %q", args[1]), err)
			}

			return withStore(opts.Database, func(ctx context.Context, st *snapshot.Store) error {
				snapA, err := loadStoredSnapshot(ctx, st, opts.RunToken, idA)
				if err != nil {
					return err
				}
				snapB, err := loadStoredSnapshot(ctx, st, opts.RunToken, idB)
				if err != nil {
					return err
				}

				diff := snapA.DiffAgainst(snapB)
				formatter := formatterFor(opts.RootOptions, cmd)
				if opts.Format == "json" {
					return formatter.Success(diff)
				}
				return outputDiffText(cmd, diff)
			}, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token (required)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func loadStoredSnapshot(ctx context.Context, st *snapshot.Store, runToken string, id uint64) (*snapshot.Snapshot, error) {
	snap, err := st.LoadSnapshot(ctx, runToken, id)
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("snapshot %d not found in run %s", id, runToken))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load snapshot %d", id), err)
	}
	return snap, nil
}

func outputDiffText(cmd *cobra.Command, diff *snapshot.Diff) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Diff %d -> %d (dt=%.6f):\n", diff.IDA, diff.IDB, diff.TimeDiff)
	if diff.Empty() {
		fmt.Fprintln(out, "  no differences")
		return nil
	}
	for _, id := range diff.ObjectsAdded {
		fmt.Fprintf(out, "  + object %s\n", id)
	}
	for _, id := range diff.ObjectsRemoved {
		fmt.Fprintf(out, "  - object %s\n", id)
	}
	for _, id := range diff.ObjectsModified {
		fmt.Fprintf(out, "  ~ object %s\n", id)
	}
	for _, id := range diff.ParametersChanged {
		fmt.Fprintf(out, "  ~ parameter %s\n", id)
	}
	return nil
}

// withStore opens the snapshot database, runs fn, and closes it.
func withStore(dbPath string, fn func(context.Context, *snapshot.Store) error, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := snapshot.OpenStore(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	return fn(ctx, st)
}
