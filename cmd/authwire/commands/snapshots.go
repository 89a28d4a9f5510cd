package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/internal/snapshot"
)

var pruneKeep int

func init() {
	snapshotsPruneCmd.Flags().IntVar(&pruneKeep, "keep", -1,
		"number of snapshots to keep (default from config)")
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsPruneCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Manage pre-mutation snapshots",
	Long: `Manage the snapshots authwire captures before mutating a project.

Snapshots are consumed automatically: a successful run deletes its snapshot
on commit, and a failed run deletes it after restoring. Snapshots listed
here are leftovers from interrupted runs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots for the project",
	Example: `  # List leftover snapshots
  authwire snapshots list

  # For another project
  authwire snapshots list -C ../other-app

  See Also: authwire snapshots prune`,
	RunE: runSnapshotsList,
}

var snapshotsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old snapshots for the project",
	Example: `  # Keep the configured number of snapshots (default 10)
  authwire snapshots prune

  # Keep only the newest two
  authwire snapshots prune --keep 2`,
	RunE: runSnapshotsPrune,
}

func runSnapshotsList(cmd *cobra.Command, _ []string) error {
	root, err := filepath.Abs(projectFlag)
	if err != nil {
		return errors.NewSystemError(err, "")
	}
	return listSnapshots(cmd.OutOrStdout(), snapshot.NewManager(), root)
}

func listSnapshots(w io.Writer, mgr *snapshot.Manager, root string) error {
	ids, err := mgr.List(root)
	if err != nil {
		return errors.NewSystemError(err, "")
	}

	if len(ids) == 0 {
		fmt.Fprintln(w, "No snapshots for this project.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Snapshots are captured automatically before authwire mutates a project")
		fmt.Fprintln(w, "and deleted again on both commit and rollback.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFILES")
	for _, id := range ids {
		manifest, err := mgr.Get(root, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t(unreadable)\t-\n", id)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n",
			id, manifest.CreatedAt.Local().Format("2006-01-02 15:04:05"), len(manifest.Files))
	}
	return tw.Flush()
}

func runSnapshotsPrune(cmd *cobra.Command, _ []string) error {
	root, err := filepath.Abs(projectFlag)
	if err != nil {
		return errors.NewSystemError(err, "")
	}

	keep := pruneKeep
	if keep < 0 {
		keep = toolConfig().SnapshotRetention
	}

	if err := snapshot.NewManager().Prune(root, keep); err != nil {
		return errors.NewSystemError(err, "")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned snapshots, keeping the newest %d.\n", keep)
	return nil
}
