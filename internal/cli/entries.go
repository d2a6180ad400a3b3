package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/waterlog/internal/app"
)

// NewEntriesCommand creates the entries command.
func NewEntriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "entries",
		Short:         "List logged drinks, newest first",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntries(cmd, rootOpts)
		},
	}
}

func runEntries(cmd *cobra.Command, opts *RootOptions) error {
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

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No drinks logged yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-6s %5.1f oz\n", e.LoggedAt.Local().Format(time.DateTime), e.Title(), e.Ounces())
	}
	return nil
}
