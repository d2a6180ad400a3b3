package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/waterlog/internal/app"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show local store and sync state",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, rootOpts)
		},
	}
}

func runStatus(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := app.OpenStore(ctx, cfg, newLogger(opts))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Drinks.Entries(ctx)
	if err != nil {
		return err
	}
	pending, err := store.Outbox.Pending(ctx)
	if err != nil {
		return err
	}

	lastAdmitted := "never"
	if last, ok, err := store.Flags.LastAdmitted(ctx); err != nil {
		return err
	} else if ok {
		lastAdmitted = last.Local().Format(time.DateTime)
	}

	peerPremium := "unknown"
	if premium, ok, err := store.Flags.PeerPremium(ctx); err != nil {
		return err
	} else if ok {
		peerPremium = fmt.Sprintf("%t", premium)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Device:            %s\n", cfg.DeviceName)
	fmt.Fprintf(out, "Database:          %s\n", cfg.DatabasePath)
	fmt.Fprintf(out, "Peer:              %s\n", cfg.PeerAddr)
	fmt.Fprintf(out, "Entries:           %d\n", len(entries))
	fmt.Fprintf(out, "Pending delivery:  %d\n", len(pending))
	fmt.Fprintf(out, "Last drink:        %s\n", lastAdmitted)
	fmt.Fprintf(out, "Premium (local):   %t\n", cfg.Premium)
	fmt.Fprintf(out, "Premium (peer):    %s\n", peerPremium)
	return nil
}
