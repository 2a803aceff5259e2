package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect stratctl configuration",
}

func init() {
	configCmd.AddCommand(configViewCmd)
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective configuration",
	Long: `Print the configuration stratctl would use, after applying flags,
environment variables, and the config file on top of the defaults.`,
	Args: checkArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}
