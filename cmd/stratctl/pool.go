package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/units"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jbweber/stratctl/internal/naming"
	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/output"
	"github.com/jbweber/stratctl/internal/status"
	"github.com/jbweber/stratctl/internal/storage"
)

// Pool management commands
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage pools",
	Long: `Manage Stratis pools.

A pool is built from block devices in two tiers: the data tier holds
filesystem data and the optional cache tier speeds up access to it. A
device belongs to at most one tier of one pool.`,
}

var (
	poolNoOverprovision bool
	poolIntegrity       bool
	poolJournalSize     string
	poolTagSpec         string
	poolUUID            string
	poolDeviceUUIDs     []string
	poolNoHeaders       bool
	poolStopped         bool
)

func init() {
	poolCmd.AddCommand(poolCreateCmd)
	poolCmd.AddCommand(poolDestroyCmd)
	poolCmd.AddCommand(poolRenameCmd)
	poolCmd.AddCommand(poolAddDataCmd)
	poolCmd.AddCommand(poolAddCacheCmd)
	poolCmd.AddCommand(poolInitCacheCmd)
	poolCmd.AddCommand(poolStopCmd)
	poolCmd.AddCommand(poolStartCmd)
	poolCmd.AddCommand(poolExtendDataCmd)
	poolCmd.AddCommand(poolSetFsLimitCmd)
	poolCmd.AddCommand(poolOverprovisionCmd)
	poolCmd.AddCommand(poolListCmd)
	poolCmd.AddCommand(poolExplainCmd)

	poolCreateCmd.Flags().BoolVar(&poolNoOverprovision, "no-overprovision", false, "do not allow filesystems to exceed the pool's physical size")
	poolCreateCmd.Flags().BoolVar(&poolIntegrity, "integrity", false, "enable the integrity layer on data devices")
	poolCreateCmd.Flags().StringVar(&poolJournalSize, "journal-size", "", "integrity journal size, e.g. 128MiB (implies --integrity)")
	poolCreateCmd.Flags().StringVar(&poolTagSpec, "tag-spec", "", "integrity tag size: 0b, 32b or 512b (implies --integrity)")

	for _, c := range []*cobra.Command{poolStopCmd, poolStartCmd, poolListCmd} {
		c.Flags().StringVar(&poolUUID, "uuid", "", "select the pool by UUID instead of name")
	}

	poolExtendDataCmd.Flags().StringSliceVar(&poolDeviceUUIDs, "device-uuid", nil, "UUID of a device to extend (repeatable; default: every device that grew)")
	poolListCmd.Flags().BoolVar(&poolNoHeaders, "no-headers", false, "omit the table header")
	poolListCmd.Flags().BoolVar(&poolStopped, "stopped", false, "list stopped pools instead of running ones")
}

// poolSelector builds a selector from an optional NAME argument and the
// --uuid flag.
func poolSelector(args []string) (storage.PoolSelector, error) {
	var sel storage.PoolSelector
	if len(args) > 0 {
		sel.Name = args[0]
	}
	if poolUUID != "" {
		u, err := naming.ParseUUID(poolUUID)
		if err != nil {
			return sel, usageError{err}
		}
		sel.UUID = &u
	}
	return sel, nil
}

// createPoolOptions converts the create flags to storage options.
func createPoolOptions() (storage.CreatePoolOptions, error) {
	opts := storage.CreatePoolOptions{NoOverprovision: poolNoOverprovision}
	if !poolIntegrity && poolJournalSize == "" && poolTagSpec == "" {
		return opts, nil
	}

	integrity := &storage.IntegrityOptions{TagSpec: storage.TagSpec0B}
	if poolJournalSize != "" {
		size, err := units.ParseStrictBytes(poolJournalSize)
		if err != nil {
			return opts, usageError{fmt.Errorf("invalid journal size %q: %w", poolJournalSize, err)}
		}
		if size <= 0 {
			return opts, usageError{fmt.Errorf("invalid journal size %q: must be positive", poolJournalSize)}
		}
		integrity.JournalSize = uint64(size)
	}
	if poolTagSpec != "" {
		integrity.TagSpec = storage.TagSpec(strings.ToLower(poolTagSpec))
		if err := integrity.TagSpec.Validate(); err != nil {
			return opts, usageError{err}
		}
	}

	opts.Integrity = integrity
	return opts, nil
}

var poolCreateCmd = &cobra.Command{
	Use:   "create <pool-name> <blockdev>...",
	Short: "Create a pool",
	Long: `Create a pool from one or more block devices.

The devices become the pool's data tier. None of them may already belong
to another pool.

Example:
  stratctl pool create p1 /dev/sdb /dev/sdc
  stratctl pool create --integrity --journal-size 256MiB p1 /dev/sdb`,
	Args: checkArgs(cobra.MinimumNArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := createPoolOptions()
		if err != nil {
			return err
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if _, err := mgr.CreatePool(ctx, args[0], args[1:], opts); err != nil {
				return fmt.Errorf("failed to create pool: %w", err)
			}
			success(cmd.OutOrStdout(), "Pool '%s' created", args[0])
			return nil
		})
	},
}

var poolDestroyCmd = &cobra.Command{
	Use:   "destroy <pool-name>",
	Short: "Destroy a pool",
	Long:  `Destroy a pool. The pool must not have any filesystems.`,
	Args:  checkArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.DestroyPool(ctx, storage.PoolByName(args[0])); err != nil {
				return fmt.Errorf("failed to destroy pool: %w", err)
			}
			success(cmd.OutOrStdout(), "Pool '%s' destroyed", args[0])
			return nil
		})
	},
}

var poolRenameCmd = &cobra.Command{
	Use:   "rename <current-name> <new-name>",
	Short: "Rename a pool",
	Args:  checkArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.RenamePool(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to rename pool: %w", err)
			}
			success(cmd.OutOrStdout(), "Pool '%s' renamed to '%s'", args[0], args[1])
			return nil
		})
	},
}

// addDevicesCommand builds the add-data, add-cache and init-cache
// commands, which differ only in the manager method they call.
func addDevicesCommand(use, short, long, verb string, add func(*storage.Manager, context.Context, string, []string) ([]objects.Handle, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <pool-name> <blockdev>...",
		Short: short,
		Long:  long,
		Args:  checkArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(func(ctx context.Context, mgr *storage.Manager) error {
				added, err := add(mgr, ctx, args[0], args[1:])
				if err != nil {
					return fmt.Errorf("failed to %s: %w", verb, err)
				}
				success(cmd.OutOrStdout(), "Added %d device(s) to pool '%s'", len(added), args[0])
				return nil
			})
		},
	}
}

var poolAddDataCmd = addDevicesCommand("add-data", "Add data devices to a pool",
	`Add block devices to a pool's data tier.

Devices already in the pool's data tier are reported rather than added
again. Devices in any cache tier, or in another pool, are refused.`,
	"add data devices",
	(*storage.Manager).AddDataDevices)

var poolAddCacheCmd = addDevicesCommand("add-cache", "Add cache devices to a pool",
	`Add block devices to a pool's cache tier. The cache must already have
been initialized with init-cache.`,
	"add cache devices",
	(*storage.Manager).AddCacheDevices)

var poolInitCacheCmd = addDevicesCommand("init-cache", "Initialize a pool's cache",
	`Initialize the cache tier of a pool with one or more block devices.`,
	"initialize cache",
	(*storage.Manager).InitCache)

var poolStopCmd = &cobra.Command{
	Use:   "stop [pool-name] [--uuid UUID]",
	Short: "Stop a pool",
	Long: `Stop a pool, tearing down its storage stack but leaving its devices
untouched. The pool can be selected by name or by UUID.`,
	Args: checkArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := poolSelector(args)
		if err != nil {
			return err
		}
		if err := sel.Validate(); err != nil {
			return usageError{err}
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.StopPool(ctx, sel); err != nil {
				return fmt.Errorf("failed to stop pool: %w", err)
			}
			success(cmd.OutOrStdout(), "Pool %s stopped", sel)
			return nil
		})
	},
}

var poolStartCmd = &cobra.Command{
	Use:   "start [pool-name] [--uuid UUID]",
	Short: "Start a stopped pool",
	Long:  `Start a stopped pool, selected by name or by UUID.`,
	Args:  checkArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := poolSelector(args)
		if err != nil {
			return err
		}
		if err := sel.Validate(); err != nil {
			return usageError{err}
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.StartPool(ctx, sel); err != nil {
				return fmt.Errorf("failed to start pool: %w", err)
			}
			success(cmd.OutOrStdout(), "Pool %s started", sel)
			return nil
		})
	},
}

var poolExtendDataCmd = &cobra.Command{
	Use:   "extend-data <pool-name>",
	Short: "Use space from data devices that have grown",
	Long: `Make the pool use the additional space of data devices that have
increased in size. Without --device-uuid every such device is extended.`,
	Args: checkArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceUUIDs := make([]uuid.UUID, 0, len(poolDeviceUUIDs))
		for _, s := range poolDeviceUUIDs {
			u, err := naming.ParseUUID(s)
			if err != nil {
				return usageError{err}
			}
			deviceUUIDs = append(deviceUUIDs, u)
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			grown, err := mgr.ExtendData(ctx, args[0], deviceUUIDs)
			if err != nil {
				return fmt.Errorf("failed to extend data devices: %w", err)
			}
			success(cmd.OutOrStdout(), "Extended %s", strings.Join(grown, ", "))
			return nil
		})
	},
}

var poolSetFsLimitCmd = &cobra.Command{
	Use:   "set-fs-limit <pool-name> <limit>",
	Short: "Set the maximum number of filesystems in a pool",
	Args:  checkArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return usageError{fmt.Errorf("invalid filesystem limit %q: %w", args[1], err)}
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.SetFsLimit(ctx, args[0], limit); err != nil {
				return fmt.Errorf("failed to set filesystem limit: %w", err)
			}
			success(cmd.OutOrStdout(), "Filesystem limit of pool '%s' set to %d", args[0], limit)
			return nil
		})
	},
}

var poolOverprovisionCmd = &cobra.Command{
	Use:       "overprovision <pool-name> yes|no",
	Short:     "Allow or disallow overprovisioning",
	Long:      `Specify whether the filesystems of a pool may together be larger than the pool.`,
	Args:      checkArgs(cobra.ExactArgs(2)),
	ValidArgs: []string{"yes", "no"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch strings.ToLower(args[1]) {
		case "yes":
			enabled = true
		case "no":
		default:
			return usageError{fmt.Errorf("invalid overprovision mode %q (valid: yes, no)", args[1])}
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.SetOverprovisioning(ctx, args[0], enabled); err != nil {
				return fmt.Errorf("failed to set overprovisioning: %w", err)
			}
			success(cmd.OutOrStdout(), "Overprovisioning of pool '%s' set to %s", args[0], args[1])
			return nil
		})
	},
}

var poolListCmd = &cobra.Command{
	Use:   "list [pool-name] [--uuid UUID] [--stopped]",
	Short: "List pools",
	Long: `List all pools, or show a detailed view of one pool selected by name
or UUID.

The Properties column shows Ca (has a cache), Cr (encrypted) and Op
(allows overprovisioning); a ~ marks a property the pool lacks.

With --stopped, list the pools stratisd knows about but has not started,
with the UUIDs pool start accepts. A stopped pool whose name cannot be
read is shown as <UNAVAILABLE>.`,
	Args: checkArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := poolSelector(args)
		if err != nil {
			return err
		}
		f, err := formatter(poolNoHeaders)
		if err != nil {
			return err
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			out, err := listPools(ctx, mgr, f, sel, poolStopped)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

// listPools renders either every pool or the detail view of the one sel
// names. stopped switches from running pools to stopped ones.
func listPools(ctx context.Context, mgr *storage.Manager, f output.Formatter, sel storage.PoolSelector, stopped bool) (string, error) {
	all := sel.Name == "" && sel.UUID == nil
	if !all {
		if err := sel.Validate(); err != nil {
			return "", usageError{err}
		}
	}

	if stopped {
		if all {
			pools, err := mgr.ListStoppedPools(ctx)
			if err != nil {
				return "", fmt.Errorf("failed to list stopped pools: %w", err)
			}
			return f.FormatStoppedPools(pools)
		}
		pool, err := mgr.GetStoppedPool(ctx, sel)
		if err != nil {
			return "", fmt.Errorf("failed to get stopped pool: %w", err)
		}
		return f.FormatStoppedPool(pool)
	}

	if all {
		pools, err := mgr.ListPools(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list pools: %w", err)
		}
		return f.FormatPools(pools)
	}
	pool, err := mgr.GetPool(ctx, sel)
	if err != nil {
		return "", fmt.Errorf("failed to get pool: %w", err)
	}
	return f.FormatPool(pool)
}

var poolExplainCmd = &cobra.Command{
	Use:   "explain <code>",
	Short: "Explain a pool alert code",
	Long: fmt.Sprintf(`Explain one of the alert codes shown by pool list.

Known codes: %s`, strings.Join(status.Codes(), ", ")),
	Args: checkArgs(cobra.ExactArgs(1)),
	// Explaining a code needs neither config nor the daemon.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		alert, err := status.Lookup(args[0])
		if err != nil {
			return usageError{err}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n\n%s\n", alert.Code, alert.Summary, alert.Explanation)
		return nil
	},
}
