package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/stratctl/internal/storage"
)

var blockdevCmd = &cobra.Command{
	Use:   "blockdev",
	Short: "Inspect block devices",
}

var blockdevNoHeaders bool

func init() {
	blockdevCmd.AddCommand(blockdevListCmd)

	blockdevListCmd.Flags().BoolVar(&blockdevNoHeaders, "no-headers", false, "omit the table header")
}

var blockdevListCmd = &cobra.Command{
	Use:   "list [pool-name]",
	Short: "List block devices",
	Long: `List the block devices of every pool or of one pool.

A physical size shown as "old (new)" means the device has changed size
and the pool has not yet been extended to use it.`,
	Args: checkArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pool string
		if len(args) > 0 {
			pool = args[0]
		}

		f, err := formatter(blockdevNoHeaders)
		if err != nil {
			return err
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			devices, err := mgr.ListBlockdevs(ctx, pool)
			if err != nil {
				return fmt.Errorf("failed to list block devices: %w", err)
			}

			out, err := f.FormatBlockdevs(devices)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}
