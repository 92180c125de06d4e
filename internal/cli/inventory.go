package cli

import (
	"github.com/spf13/cobra"

	"meshplan/internal/codec"
)

var (
	inventorySource snapshotSource
	inventoryFile   string
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Export a snapshot as an Ansible inventory",
	Long: `Write a YAML Ansible inventory with one group per router role. Each host
carries its management address as ansible_host plus its loopback and region.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		snapshot, err := rt.discoverer(inventorySource).Discover(ctx)
		if err != nil {
			return err
		}

		w, closeFn, err := createOutput(inventoryFile, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := codec.NewAnsibleExporter().Export(snapshot, w); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}

func init() {
	inventorySource.register(inventoryCmd)
	inventoryCmd.Flags().StringVarP(&inventoryFile, "file", "f", "", "Write the inventory to a file instead of stdout")
}
