package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/waterlog/internal/app"
	"github.com/dmitrijs2005/waterlog/internal/models"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Size string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a drink",
		Long: `Log a drink of the given size.

A new entry is admitted at most once per cooldown interval; a rejected
attempt prints the wait message and exits successfully.

Example:
  waterlog log --size cup
  waterlog log --size bottle --db ~/waterlog.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Size, "size", "", "drink size: "+sizeNames())
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

func sizeNames() string {
	var names []string
	for _, s := range models.AllSizes() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func runLog(cmd *cobra.Command, opts *LogOptions) error {
	size, err := models.ParseSize(opts.Size)
	if err != nil {
		return err
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

	res, err := store.Drinks.Log(ctx, size)
	if err != nil {
		return err
	}
	if !res.Admitted {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%.1f oz).\n", res.Entry.Title(), res.Entry.Ounces())
	return nil
}
