// Package cli implements the waterlog command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/waterlog/internal/config"
	"github.com/dmitrijs2005/waterlog/internal/logging"
)

// RootOptions holds global flags shared by all commands. Flag values are
// layered on top of the config file, which is layered on top of defaults.
type RootOptions struct {
	ConfigPath string
	Database   string
	Device     string
	Listen     string
	Peer       string
	Secret     string
	Premium    bool
	Verbose    bool
}

// NewRootCommand creates the root command for the waterlog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "waterlog",
		Short:         "waterlog - drink tracking with device-to-device sync",
		Long:          "Track drinks locally and keep a paired device in sync without a backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to JSON config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Device, "device", "", "device name used in pairing")
	cmd.PersistentFlags().StringVar(&opts.Listen, "listen", "", "address to accept peer connections on")
	cmd.PersistentFlags().StringVar(&opts.Peer, "peer", "", "address of the paired device")
	cmd.PersistentFlags().StringVar(&opts.Secret, "secret", "", "shared pairing secret")
	cmd.PersistentFlags().BoolVar(&opts.Premium, "premium", false, "enable premium stats on this device")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewEntriesCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// loadConfig resolves the effective configuration for a command:
// defaults, then the JSON file, then any flags the user actually set.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	pf := cmd.Root().PersistentFlags()
	if pf.Changed("db") {
		cfg.DatabasePath = opts.Database
	}
	if pf.Changed("device") {
		cfg.DeviceName = opts.Device
	}
	if pf.Changed("listen") {
		cfg.ListenAddr = opts.Listen
	}
	if pf.Changed("peer") {
		cfg.PeerAddr = opts.Peer
	}
	if pf.Changed("secret") {
		cfg.PairingSecret = opts.Secret
	}
	if pf.Changed("premium") {
		cfg.Premium = opts.Premium
	}
	return cfg, nil
}

func newLogger(opts *RootOptions) logging.Logger {
	return logging.NewDefault(opts.Verbose)
}

// Execute runs the CLI and returns its exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
