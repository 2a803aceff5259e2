package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/stratctl/internal/dbus"
	"github.com/jbweber/stratctl/internal/storage"
	"github.com/jbweber/stratctl/internal/stratisd"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Query the stratisd daemon",
}

func init() {
	daemonCmd.AddCommand(daemonVersionCmd)
	daemonCmd.AddCommand(daemonPingCmd)
}

var daemonVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the stratisd version",
	Long: fmt.Sprintf(`Show the version of the running stratisd. This works even when the
version is outside the range this client supports (>= %s, < %s).`,
		stratisd.MinimumVersion, stratisd.MaximumVersion),
	Args: checkArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(false, func(ctx context.Context, _ *dbus.Client, mgr *storage.Manager) error {
			v, err := mgr.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		})
	},
}

var daemonPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that stratisd answers on the bus",
	Args:  checkArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(false, func(ctx context.Context, client *dbus.Client, _ *storage.Manager) error {
			if err := client.Ping(ctx); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "stratisd is running on the %s bus", cfg.Bus)
			return nil
		})
	},
}
