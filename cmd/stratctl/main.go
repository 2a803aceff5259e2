package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jbweber/stratctl/internal/config"
	"github.com/jbweber/stratctl/internal/dbus"
	"github.com/jbweber/stratctl/internal/logging"
	"github.com/jbweber/stratctl/internal/output"
	"github.com/jbweber/stratctl/internal/storage"
	"github.com/jbweber/stratctl/internal/stratisd"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Set by the root command's pre-run hook.
var (
	cfg    *config.Config
	logger = logging.Discard()
)

var (
	configPath string
	verbosity  int
)

func main() {
	err := rootCmd.Execute()
	os.Exit(report(os.Stderr, err, propagate()))
}

// propagate reports whether errors should be shown raw. The flag is
// consulted directly so that it also applies when config loading fails.
func propagate() bool {
	if cfg != nil {
		return cfg.Propagate
	}
	p, _ := rootCmd.PersistentFlags().GetBool("propagate")
	return p
}

var rootCmd = &cobra.Command{
	Use:   "stratctl",
	Short: "stratctl - command line client for stratisd",
	Long: `stratctl manages Stratis pools, filesystems, and block devices by
talking to the stratisd daemon over D-Bus.

Every command reads the daemon's published objects, checks that the
request makes sense, and only then asks the daemon to act.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath+")")
	flags.String("timeout", fmt.Sprint(config.DefaultTimeoutMillis), "D-Bus call timeout in milliseconds, -1 for none")
	flags.String("bus", "system", "bus to use: system, session or a D-Bus address")
	flags.StringP("output", "o", "table", "output format: table, yaml or json")
	flags.Bool("unhyphenated-uuids", false, "print UUIDs without hyphens")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.CountVarP(&verbosity, "verbose", "v", "increase logging verbosity (repeatable)")
	flags.Bool("propagate", false, "print the raw error instead of an explanation")
	flags.Bool("skip-version-check", false, "do not check the stratisd version")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(filesystemCmd)
	rootCmd.AddCommand(blockdevCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig(cmd *cobra.Command) error {
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	loaded, err := config.FromViper(v, configPath)
	if err != nil {
		return err
	}

	l, err := logging.New(os.Stderr, logging.LevelForVerbosity(loaded.LogLevel, verbosity))
	if err != nil {
		return err
	}

	cfg = loaded
	logger = l
	return nil
}

// formatter returns the formatter selected by -o.
func formatter(noHeaders bool) (output.Formatter, error) {
	return output.NewFormatter(output.Options{
		Format:            output.Format(cfg.Output),
		NoHeaders:         noHeaders,
		UnhyphenatedUUIDs: cfg.UnhyphenatedUUIDs,
	})
}

// withManager connects to stratisd, checks its version unless told not
// to, and runs fn with a manager bound to the connection.
func withManager(fn func(ctx context.Context, mgr *storage.Manager) error) error {
	return withClient(!cfg.SkipVersionCheck, func(ctx context.Context, client *dbus.Client, mgr *storage.Manager) error {
		return fn(ctx, mgr)
	})
}

// withClient is withManager for commands that also need the raw bus
// client or must run against an unsupported daemon.
func withClient(checkVersion bool, fn func(ctx context.Context, client *dbus.Client, mgr *storage.Manager) error) error {
	ctx := context.Background()

	client, err := dbus.ConnectWithContext(ctx, dbus.Options{
		Bus:     cfg.Bus,
		Timeout: cfg.Timeout(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close bus connection", slog.Any("error", closeErr))
		}
	}()

	mgr := storage.NewManager(client, stratisd.NewErrorTable(), logger)

	if checkVersion {
		if err := mgr.CheckVersion(ctx); err != nil {
			return err
		}
	}

	return fn(ctx, client, mgr)
}

// success prints a confirmation line to w.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

// usageError marks errors caused by malformed command lines.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

// checkArgs wraps a positional-argument validator so its failures are
// reported as usage errors.
func checkArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
