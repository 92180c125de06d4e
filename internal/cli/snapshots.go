package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"meshplan/internal/codec"
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snapshot"},
	Short:   "Manage stored discovery snapshots",
}

var snapshotsListLab string

var snapshotsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored snapshots, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		store, err := rt.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summaries, err := store.ListSnapshots(context.Background(), snapshotsListLab)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeStructured(out, "json", summaries)
		}

		if len(summaries) == 0 {
			PrintSection(out, "Snapshots")
			PrintEmptyState(out, "No snapshots stored")
			return nil
		}

		PrintSection(out, "Stored Snapshots")
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			taken := "-"
			if !s.TakenAt.IsZero() {
				taken = s.TakenAt.Local().Format("2006-01-02 15:04:05")
			}
			rows = append(rows, []string{
				s.ID, orDash(s.Lab), taken,
				strconv.Itoa(s.Nodes), strconv.Itoa(s.Edges), strconv.Itoa(s.Warnings),
			})
		}
		PrintTable(out, []string{"ID", "Lab", "Taken", "Routers", "Observations", "Warnings"}, rows)
		return nil
	},
}

var snapshotsShowFormat string

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		store, err := rt.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snapshot, err := store.GetSnapshot(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load snapshot %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		format := outputFormat(snapshotsShowFormat)
		if format == "text" {
			printSnapshot(out, snapshot)
			return nil
		}
		c, err := codec.ForFormat(format)
		if err != nil {
			return err
		}
		return c.Export(snapshot, out)
	},
}

var snapshotsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a snapshot read from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		snapshot, err := readSnapshotFile(args[0])
		if err != nil {
			return err
		}

		store, err := rt.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snapshot.ID = ""
		id, err := store.SaveSnapshot(context.Background(), snapshot)
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		if jsonOutput {
			return writeStructured(cmd.OutOrStdout(), "json", map[string]string{"id": id})
		}
		PrintSuccess(cmd.OutOrStdout(), "Snapshot stored as "+id)
		return nil
	},
}

var snapshotsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		store, err := rt.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteSnapshot(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete snapshot %s: %w", args[0], err)
		}
		PrintSuccess(cmd.OutOrStdout(), "Deleted snapshot "+args[0])
		return nil
	},
}

func init() {
	snapshotsListCmd.Flags().StringVar(&snapshotsListLab, "lab", "", "Only list snapshots of this lab")
	snapshotsShowCmd.Flags().StringVarP(&snapshotsShowFormat, "output", "o", "text", "Output format (text, yaml, json)")

	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsImportCmd)
	snapshotsCmd.AddCommand(snapshotsRmCmd)
}
