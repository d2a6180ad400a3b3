package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/waterlog/internal/app"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show today's totals and the current streak",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, rootOpts)
		},
	}
}

func runStats(cmd *cobra.Command, opts *RootOptions) error {
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

	s, err := store.Drinks.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Today:  %d drinks, %.1f oz\n", s.TodayCount, s.TodayOunces)
	fmt.Fprintf(out, "Streak: %d day(s)\n", s.Streak)
	return nil
}
