package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/waterlog/internal/app"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon for this device",
		Long: `Run the sync daemon: listen for the paired device, probe its
reachability, and exchange entries until interrupted.

Example:
  waterlog run --device phone --listen 127.0.0.1:7475 --peer 127.0.0.1:7476 --secret hydrate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, rootOpts)
		},
	}
}

func runDaemon(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log := newLogger(opts)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	a := app.NewApp(cfg, store, log)
	defer a.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Syncing as %q on %s. Press Ctrl-C to stop.\n", cfg.DeviceName, cfg.ListenAddr)

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
