package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meshplan/internal/addressing"
	"meshplan/internal/adjacency"
	"meshplan/internal/codec"
	"meshplan/internal/domain"
)

var (
	addressesTopology string
	addressesSource   snapshotSource
	addressesPool     string
	addressesV6Base   string
	addressesFormat   string
)

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Assign /31 and /127 subnets to every physical link",
	Long: `Assign one IPv4 /31 and one IPv6 /127 to each physical link, in the order
links are first seen. Links come from a containerlab topology file
(--topology) or from the observations of a snapshot.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		edges, err := linkObservations(cmd, rt)
		if err != nil {
			return err
		}
		idx, err := adjacency.Ingest(edges)
		if err != nil {
			return err
		}
		links := idx.Links()
		keys := make([]domain.LinkKey, len(links))
		for i, l := range links {
			keys[i] = l.Key
		}

		pool, base := rt.cfg.Addressing.IPv4Pool, rt.cfg.Addressing.IPv6Base
		if addressesPool != "" {
			pool = addressesPool
		}
		if addressesV6Base != "" {
			base = addressesV6Base
		}
		alloc, err := addressing.ParseAllocator(pool, base)
		if err != nil {
			return err
		}
		assignments, alloc, err := alloc.Allocate(keys)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format := outputFormat(addressesFormat); format != "text" {
			return writeStructured(out, format, assignments)
		}

		PrintSection(out, "Link Addresses")
		if len(assignments) == 0 {
			PrintEmptyState(out, "No links found")
			return nil
		}
		rows := make([][]string, 0, 2*len(assignments))
		for _, a := range assignments {
			for _, side := range []addressing.InterfaceAddress{a.A, a.B} {
				rows = append(rows, []string{
					side.NodeID, side.Interface, side.IPv4.String(), side.IPv6.String(), a.Subnet.String(),
				})
			}
		}
		PrintTable(out, []string{"Router", "Interface", "IPv4", "IPv6", "Link"}, rows)
		fmt.Fprintln(out)
		PrintInfo(out, fmt.Sprintf("%s addressed, %s left in %s",
			PrintCount(len(assignments), "link", "links"),
			PrintCount(alloc.Remaining(), "subnet", "subnets"), pool))
		return nil
	},
}

// linkObservations reads edges from the topology file or the snapshot source
func linkObservations(cmd *cobra.Command, rt *runtime) ([]domain.Edge, error) {
	if addressesTopology != "" {
		f, err := os.Open(addressesTopology)
		if err != nil {
			return nil, fmt.Errorf("failed to open topology: %w", err)
		}
		defer f.Close()
		return codec.ParseTopologyLinks(f)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	snapshot, err := rt.discoverer(addressesSource).Discover(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Edges, nil
}

func init() {
	addressesCmd.Flags().StringVarP(&addressesTopology, "topology", "t", "", "Containerlab topology file to read links from")
	addressesSource.register(addressesCmd)
	addressesCmd.MarkFlagsMutuallyExclusive("topology", "snapshot")
	addressesCmd.MarkFlagsMutuallyExclusive("topology", "from-store")
	addressesCmd.Flags().StringVar(&addressesPool, "pool", "", "IPv4 pool (default: addressing.ipv4_pool from config)")
	addressesCmd.Flags().StringVar(&addressesV6Base, "v6-base", "", "IPv6 base (default: addressing.ipv6_base from config)")
	addressesCmd.Flags().StringVarP(&addressesFormat, "output", "o", "text", "Output format (text, yaml, json)")
}
