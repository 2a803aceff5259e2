package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/stratctl/internal/dbus"
	"github.com/jbweber/stratctl/internal/loader"
	"github.com/jbweber/stratctl/internal/naming"
	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/precheck"
	"github.com/jbweber/stratctl/internal/storage"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// Debug commands talk to stratisd at a lower level than the rest of the
// CLI and are meant for troubleshooting.
var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Troubleshooting commands",
}

var (
	debugName string
	debugUUID string
)

func init() {
	debugCmd.AddCommand(debugRefreshCmd)
	debugCmd.AddCommand(debugObjectPathCmd)
	debugCmd.AddCommand(debugDumpCmd)
	debugCmd.AddCommand(debugVerifyCmd)
	debugCmd.AddCommand(debugInterfacesCmd)

	debugObjectPathCmd.Flags().StringVar(&debugName, "name", "", "name of the object")
	debugObjectPathCmd.Flags().StringVar(&debugUUID, "uuid", "", "UUID of the object")
	debugObjectPathCmd.MarkFlagsMutuallyExclusive("name", "uuid")
	debugObjectPathCmd.MarkFlagsOneRequired("name", "uuid")
}

var debugRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Make stratisd reread the state of its pools",
	Args:  checkArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.RefreshState(ctx); err != nil {
				return fmt.Errorf("failed to refresh state: %w", err)
			}
			success(cmd.OutOrStdout(), "State refreshed")
			return nil
		})
	},
}

var debugObjectPathCmd = &cobra.Command{
	Use:       "get-object-path pool|filesystem|blockdev (--name NAME | --uuid UUID)",
	Short:     "Print the D-Bus object path of a pool, filesystem or block device",
	Args:      checkArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
	ValidArgs: []string{string(objects.CategoryPool), string(objects.CategoryFilesystem), string(objects.CategoryBlockdev)},
	RunE: func(cmd *cobra.Command, args []string) error {
		category := objects.Category(args[0])

		filter := objects.Filter{}
		switch {
		case debugUUID != "":
			u, err := naming.ParseUUID(debugUUID)
			if err != nil {
				return usageError{err}
			}
			filter["Uuid"] = naming.UUIDFilterValue(u)
		case category == objects.CategoryBlockdev:
			// Block devices have no name; they are known by device node.
			filter["Devnode"] = debugName
		default:
			filter["Name"] = debugName
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			path, err := mgr.ObjectPath(ctx, category, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

var debugDumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Save the objects stratisd publishes to a YAML file",
	Long: `Save the pools, filesystems, and block devices stratisd currently
publishes to a YAML file. The file can be checked later with
'stratctl debug verify'.`,
	Args: checkArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			snap, err := mgr.Snapshot(ctx)
			if err != nil {
				return err
			}
			if err := loader.SaveToFile(snap, args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Saved %d object(s) to %s", snap.Len(), args[0])
			return nil
		})
	},
}

var debugVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check a saved snapshot for inconsistencies",
	Long: `Load a snapshot saved with 'stratctl debug dump' and report states
stratisd should never publish, such as a device in more than one tier
or pool. Does not contact stratisd.`,
	Args: checkArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loader.LoadFromFile(args[0], stratisd.Schema)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}

		violations := precheck.Audit(snap)
		if len(violations) == 0 {
			success(cmd.OutOrStdout(), "%s: %d object(s), no inconsistencies found", args[0], snap.Len())
			return nil
		}

		for _, v := range violations {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return fmt.Errorf("%s: found %d inconsistencies", args[0], len(violations))
	},
}

var debugInterfacesCmd = &cobra.Command{
	Use:   "check-interfaces",
	Short: "Check that stratisd implements the interface revision stratctl uses",
	Args:  checkArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(false, func(ctx context.Context, client *dbus.Client, _ *storage.Manager) error {
			if err := client.CheckInterfaces(ctx); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "stratisd implements %s", stratisd.ManagerInterface)
			return nil
		})
	},
}
