package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"meshplan/internal/adapter"
	"meshplan/internal/codec"
	"meshplan/internal/service"
)

var (
	applyOpts   planFlags
	applyOut    string
	applyFormat string
	applyYes    bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Plan a lab and write one fragment per router",
	Long: `Build a plan like 'plan' does, show its summary and ask once for
confirmation. On yes, one fragment per router is rendered and written into
--out in ascending router order.

A router that fails is reported and the rollout continues. Interrupting the
command stops before the next router; the rest are reported as skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		started := time.Now()
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.done("apply", started, &err)

		params, err := applyOpts.params(rt)
		if err != nil {
			return err
		}
		renderer, err := codec.NewFragmentRenderer(applyFormat)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc := service.NewRolloutService(service.Collaborators{
			Discoverer: rt.discoverer(applyOpts.source),
			Renderer:   renderer,
			Pusher:     adapter.NewDirectoryPusher(applyOut, renderer.Extension(), rt.logger),
			Confirmer:  promptConfirmer(cmd.InOrStdin(), out, applyYes),
		}, params, rt.bus, rt.logger)

		prepared, err := svc.Prepare(ctx)
		if err != nil {
			return err
		}
		rt.recordSnapshot(prepared.Snapshot)
		rt.recordPlan(prepared.Plan)

		report, err := svc.Apply(ctx, prepared.Plan)
		if errors.Is(err, service.ErrDeclined) {
			PrintWarning(out, "Rollout declined, nothing written")
			return nil
		}
		if report != nil {
			rt.recordReport(report)
			printReport(out, report)
		}
		if err != nil {
			return err
		}

		if failed := report.Count(service.NodeFailed); failed > 0 {
			return fmt.Errorf("%s failed", PrintCount(failed, "router", "routers"))
		}
		PrintSuccess(out, fmt.Sprintf("Wrote %s to %s",
			PrintCount(report.Count(service.NodeApplied), "fragment", "fragments"), applyOut))
		return nil
	},
}

// promptConfirmer shows the plan summary and reads a yes/no answer from in
func promptConfirmer(in io.Reader, out io.Writer, assumeYes bool) service.Confirmer {
	return service.ConfirmFunc(func(ctx context.Context, summary service.PlanSummary) (bool, error) {
		printSummary(out, summary)
		if len(summary.Warnings) > 0 {
			fmt.Fprintln(out)
			PrintWarnings(out, summary.Warnings)
		}
		if assumeYes {
			return true, nil
		}

		fmt.Fprint(out, "\nApply this plan? [y/N] ")
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func printReport(w io.Writer, report *service.Report) {
	PrintSection(w, "Rollout")
	for _, res := range report.Results {
		switch res.Status {
		case service.NodeApplied:
			PrintSuccess(w, res.NodeID)
		case service.NodeFailed:
			PrintError(w, fmt.Sprintf("%s: %s", res.NodeID, res.Error))
		default:
			PrintWarning(w, fmt.Sprintf("%s: %s", res.NodeID, res.Status))
		}
	}
	fmt.Fprintln(w)
}

func init() {
	applyOpts.register(applyCmd)
	applyCmd.Flags().StringVar(&applyOut, "out", "", "Directory fragments are written to")
	applyCmd.Flags().StringVar(&applyFormat, "format", "yaml", "Fragment format (yaml or json)")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "Apply without asking for confirmation")
	_ = applyCmd.MarkFlagRequired("out")
}
