package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meshplan/internal/codec"
	"meshplan/internal/domain"
)

var (
	discoverLab    string
	discoverSave   bool
	discoverFile   string
	discoverFormat string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover a running lab and capture a snapshot",
	Long: `Inspect a containerlab lab, probe router reachability and collect each
router's loopback address and LLDP neighbors over SSH.

The result is one snapshot. Use --save to store it for later planning, or
--file to write it as YAML or JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		started := time.Now()
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.done("discover", started, &err)

		ctx, cancel := commandContext(cmd)
		defer cancel()

		p, err := rt.pipeline(discoverLab)
		if err != nil {
			return err
		}
		snapshot, err := p.Discover(ctx)
		if err != nil {
			return err
		}
		rt.recordSnapshot(snapshot)

		if discoverSave {
			store, err := rt.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.SaveSnapshot(ctx, snapshot)
			if err != nil {
				return fmt.Errorf("failed to save snapshot: %w", err)
			}
			snapshot.ID = id
			rt.logger.Info("snapshot saved", zap.String("id", id))
		}

		if discoverFile != "" {
			if err := writeSnapshotFile(discoverFile, snapshot); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		format := outputFormat(discoverFormat)
		if format != "text" {
			c, err := codec.ForFormat(format)
			if err != nil {
				return err
			}
			return c.Export(snapshot, out)
		}

		printSnapshot(out, snapshot)
		if discoverFile != "" {
			PrintSuccess(out, fmt.Sprintf("Snapshot written to %s", discoverFile))
		}
		return nil
	},
}

func writeSnapshotFile(path string, snapshot *domain.Snapshot) error {
	w, closeFn, err := createOutput(path, nil)
	if err != nil {
		return err
	}
	if err := codec.ForPath(path).Export(snapshot, w); err != nil {
		_ = closeFn()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return closeFn()
}

func printSnapshot(w io.Writer, s *domain.Snapshot) {
	PrintSection(w, "Snapshot")
	if s.ID != "" {
		PrintLabelValue(w, "ID", s.ID)
	}
	PrintLabelValue(w, "Lab", s.Lab)
	if !s.TakenAt.IsZero() {
		PrintLabelValue(w, "Taken", s.TakenAt.Format("2006-01-02 15:04:05 MST"))
	}
	PrintLabelValue(w, "Routers", strconv.Itoa(len(s.Nodes)))
	PrintLabelValue(w, "Observations", strconv.Itoa(len(s.Edges)))

	if len(s.Nodes) == 0 {
		PrintEmptyState(w, "No routers found")
		return
	}

	fmt.Fprintln(w)
	rows := make([][]string, 0, len(s.Nodes))
	for _, n := range domain.SortNodes(s.Nodes) {
		region := "-"
		if n.Region != nil {
			region = strconv.Itoa(*n.Region)
		}
		rows = append(rows, []string{n.ID, string(n.Role), region, orDash(n.Address), orDash(n.MgmtAddress)})
	}
	PrintTable(w, []string{"Router", "Role", "Region", "Loopback", "Management"}, rows)

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w)
		PrintWarnings(w, s.Warnings)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	discoverCmd.Flags().StringVar(&discoverLab, "lab", "", "Lab name (default: discovery.lab from config)")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "Save the snapshot to the snapshot store")
	discoverCmd.Flags().StringVarP(&discoverFile, "file", "f", "", "Write the snapshot to a YAML or JSON file")
	discoverCmd.Flags().StringVarP(&discoverFormat, "output", "o", "text", "Output format (text, yaml, json)")
}
