package main

import (
	"context"
	"fmt"
	"strings"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/jbweber/stratctl/internal/storage"
)

// Filesystem management commands
var filesystemCmd = &cobra.Command{
	Use:     "filesystem",
	Aliases: []string{"fs"},
	Short:   "Manage filesystems",
	Long: `Manage the filesystems of Stratis pools.

Filesystems are thinly provisioned: their logical size may exceed the
space they use in the pool.`,
}

var (
	fsSize      string
	fsSizeLimit string
	fsNoHeaders bool
)

func init() {
	filesystemCmd.AddCommand(fsCreateCmd)
	filesystemCmd.AddCommand(fsDestroyCmd)
	filesystemCmd.AddCommand(fsSnapshotCmd)
	filesystemCmd.AddCommand(fsRenameCmd)
	filesystemCmd.AddCommand(fsListCmd)

	fsCreateCmd.Flags().StringVar(&fsSize, "size", "", "logical size of each filesystem, e.g. 1TiB")
	fsCreateCmd.Flags().StringVar(&fsSizeLimit, "size-limit", "", "upper limit on the size each filesystem may grow to")
	fsListCmd.Flags().BoolVar(&fsNoHeaders, "no-headers", false, "omit the table header")
}

// parseSize parses a human size such as 512MiB. An empty value means
// the size is not set.
func parseSize(flag, value string) (*uint64, error) {
	if value == "" {
		return nil, nil
	}
	n, err := units.RAMInBytes(value)
	if err != nil {
		return nil, usageError{fmt.Errorf("invalid --%s %q: %w", flag, value, err)}
	}
	if n <= 0 {
		return nil, usageError{fmt.Errorf("invalid --%s %q: must be positive", flag, value)}
	}
	size := uint64(n)
	return &size, nil
}

func filesystemOptions() (storage.FilesystemOptions, error) {
	var (
		opts storage.FilesystemOptions
		err  error
	)
	if opts.Size, err = parseSize("size", fsSize); err != nil {
		return opts, err
	}
	if opts.SizeLimit, err = parseSize("size-limit", fsSizeLimit); err != nil {
		return opts, err
	}
	if err := opts.Validate(); err != nil {
		return opts, usageError{err}
	}
	return opts, nil
}

var fsCreateCmd = &cobra.Command{
	Use:   "create <pool-name> <fs-name>...",
	Short: "Create filesystems in a pool",
	Long: `Create one or more filesystems in a pool.

If some of the names already exist the command does nothing and says
which ones; if all of them exist it reports that there is nothing to do.

Example:
  stratctl filesystem create p1 home
  stratctl filesystem create --size 10GiB --size-limit 20GiB p1 data`,
	Args: checkArgs(cobra.MinimumNArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := filesystemOptions()
		if err != nil {
			return err
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if _, err := mgr.CreateFilesystems(ctx, args[0], args[1:], opts); err != nil {
				return fmt.Errorf("failed to create filesystems: %w", err)
			}
			success(cmd.OutOrStdout(), "Created %s in pool '%s'", strings.Join(args[1:], ", "), args[0])
			return nil
		})
	},
}

var fsDestroyCmd = &cobra.Command{
	Use:   "destroy <pool-name> <fs-name>...",
	Short: "Destroy filesystems in a pool",
	Args:  checkArgs(cobra.MinimumNArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.DestroyFilesystems(ctx, args[0], args[1:]); err != nil {
				return fmt.Errorf("failed to destroy filesystems: %w", err)
			}
			success(cmd.OutOrStdout(), "Destroyed %s in pool '%s'", strings.Join(args[1:], ", "), args[0])
			return nil
		})
	},
}

var fsSnapshotCmd = &cobra.Command{
	Use:   "snapshot <pool-name> <origin-name> <snapshot-name>",
	Short: "Snapshot a filesystem",
	Args:  checkArgs(cobra.ExactArgs(3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if _, err := mgr.SnapshotFilesystem(ctx, args[0], args[1], args[2]); err != nil {
				return fmt.Errorf("failed to snapshot filesystem: %w", err)
			}
			success(cmd.OutOrStdout(), "Snapshot '%s' of '%s' created", args[2], args[1])
			return nil
		})
	},
}

var fsRenameCmd = &cobra.Command{
	Use:   "rename <pool-name> <fs-name> <new-name>",
	Short: "Rename a filesystem",
	Args:  checkArgs(cobra.ExactArgs(3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.RenameFilesystem(ctx, args[0], args[1], args[2]); err != nil {
				return fmt.Errorf("failed to rename filesystem: %w", err)
			}
			success(cmd.OutOrStdout(), "Filesystem '%s' renamed to '%s'", args[1], args[2])
			return nil
		})
	},
}

var fsListCmd = &cobra.Command{
	Use:   "list [pool-name [fs-name]]",
	Short: "List filesystems",
	Long: `List the filesystems of every pool or of one pool. Naming a single
filesystem shows a detailed view of it.`,
	Args: checkArgs(cobra.MaximumNArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pool, name string
		if len(args) > 0 {
			pool = args[0]
		}
		if len(args) > 1 {
			name = args[1]
		}

		f, err := formatter(fsNoHeaders)
		if err != nil {
			return err
		}

		return withManager(func(ctx context.Context, mgr *storage.Manager) error {
			filesystems, err := mgr.ListFilesystems(ctx, pool, name)
			if err != nil {
				return fmt.Errorf("failed to list filesystems: %w", err)
			}

			var out string
			if name != "" && len(filesystems) == 1 {
				out, err = f.FormatFilesystem(filesystems[0])
			} else {
				out, err = f.FormatFilesystems(filesystems)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}
