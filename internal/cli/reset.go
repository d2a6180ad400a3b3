package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/waterlog/internal/app"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the local drink history",
		Long: `Erase the local drink history.

Only this device is wiped; entries already synced to the paired device
survive there and flow back on the next snapshot exchange.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runReset(cmd *cobra.Command, opts *ResetOptions) error {
	if !opts.Yes {
		return fmt.Errorf("refusing to erase history without --yes")
	}

	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := app.OpenStore(ctx, cfg, newLogger(opts.RootOptions))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Drinks.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History erased.")
	return nil
}
