package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"meshplan/internal/codec"
	"meshplan/internal/domain"
	"meshplan/internal/planner"
	"meshplan/internal/service"
	"meshplan/internal/watcher"
)

// planFlags are shared by plan and apply
type planFlags struct {
	source       snapshotSource
	mode         string
	asn          uint32
	includeOther bool
	uniform      bool
}

func (f *planFlags) register(cmd *cobra.Command) {
	f.source.register(cmd)
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "hierarchy", "Planning mode (hierarchy or adjacency)")
	cmd.Flags().Uint32Var(&f.asn, "asn", 0, "Autonomous system number (default: planning.asn from config)")
	cmd.Flags().BoolVar(&f.includeOther, "include-other", false, "Let unclassified routers participate")
	cmd.Flags().BoolVar(&f.uniform, "uniform", false, "Map every non-edge link to the core scheme (adjacency mode)")
}

// params resolves planner parameters from config and flag overrides
func (f *planFlags) params(rt *runtime) (planner.Params, error) {
	mode, err := planner.ParseMode(f.mode)
	if err != nil {
		return planner.Params{}, err
	}
	params := rt.cfg.PlannerParams(mode)
	if f.asn != 0 {
		params.ASN = f.asn
	}
	if f.includeOther {
		params.IncludeOther = true
	}
	if f.uniform {
		params.Uniform = true
	}
	return params, nil
}

var (
	planOpts   planFlags
	planFormat string
	planFile   string
	planWatch  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a routing plan from a snapshot",
	Long: `Build a BGP route-reflector hierarchy (--mode hierarchy) or a per-link IGP
scheme plan (--mode adjacency) from a snapshot.

The snapshot comes from --snapshot FILE, --from-store ID, or a live discovery
run when neither is given. Nothing is pushed to the routers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		started := time.Now()
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.done("plan", started, &err)

		params, err := planOpts.params(rt)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc := service.NewRolloutService(service.Collaborators{
			Discoverer: rt.discoverer(planOpts.source),
		}, params, rt.bus, rt.logger)

		if !planWatch {
			return writePlan(ctx, rt, svc, cmd.OutOrStdout())
		}

		if planOpts.source.file == "" {
			return errors.New("--watch requires --snapshot")
		}
		out := cmd.OutOrStdout()
		replan := func() {
			if err := writePlan(ctx, rt, svc, out); err != nil {
				PrintError(out, err.Error())
			}
		}
		replan()

		err = watcher.New(planOpts.source.file, replan, rt.logger).Watch(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// writePlan prepares a plan and writes it in the selected format
func writePlan(ctx context.Context, rt *runtime, svc *service.RolloutService, stdout io.Writer) error {
	prepared, err := svc.Prepare(ctx)
	if err != nil {
		return err
	}
	rt.recordSnapshot(prepared.Snapshot)
	rt.recordPlan(prepared.Plan)

	w, closeFn, err := createOutput(planFile, stdout)
	if err != nil {
		return err
	}

	format := outputFormat(planFormat)
	if format == "text" {
		printPlan(w, prepared.Plan)
		return closeFn()
	}
	c, err := codec.ForFormat(format)
	if err != nil {
		_ = closeFn()
		return err
	}
	if err := c.ExportPlan(prepared.Plan, w); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func printPlan(w io.Writer, plan *domain.Plan) {
	summary := service.Summarize(plan)
	printSummary(w, summary)

	for _, id := range plan.NodeIDs() {
		entries := plan.Entries[id]
		PrintSection(w, id)
		if len(entries) == 0 {
			PrintEmptyState(w, "No relationships")
			continue
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, entryRow(e))
		}
		PrintTable(w, []string{"Kind", "Peer", "Address", "Interface", "Scheme", "Area"}, rows)
	}

	if len(plan.Warnings) > 0 {
		PrintSection(w, "Warnings")
		PrintWarnings(w, plan.Warnings)
	}
}

func printSummary(w io.Writer, s service.PlanSummary) {
	PrintSection(w, "Plan")
	PrintLabelValue(w, "Mode", string(s.Mode))
	if s.ASN != 0 {
		PrintLabelValue(w, "ASN", strconv.FormatUint(uint64(s.ASN), 10))
	}
	PrintLabelValue(w, "Routers", strconv.Itoa(s.Nodes))
	PrintLabelValue(w, "Entries", strconv.Itoa(s.Entries))
	for _, kind := range s.Kinds() {
		PrintLabelValue(w, "  "+string(kind), strconv.Itoa(s.ByKind[kind]))
	}
	if len(s.Warnings) > 0 {
		PrintLabelValue(w, "Warnings", strconv.Itoa(len(s.Warnings)))
	}
}

func entryRow(e domain.RelationshipEntry) []string {
	scheme := "-"
	if e.SchemeID != 0 {
		scheme = strconv.Itoa(e.SchemeID)
	}
	iface := orDash(e.LocalInterface)
	if e.PeerInterface != "" {
		iface = fmt.Sprintf("%s -> %s", iface, e.PeerInterface)
	}
	return []string{string(e.Kind), e.Peer, orDash(e.PeerAddress), iface, scheme, orDash(e.AreaID)}
}

func init() {
	planOpts.register(planCmd)
	planCmd.Flags().StringVarP(&planFormat, "output", "o", "text", "Output format (text, yaml, json)")
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "Write the plan to a file instead of stdout")
	planCmd.Flags().BoolVarP(&planWatch, "watch", "w", false, "Re-plan whenever the --snapshot file changes")
}
