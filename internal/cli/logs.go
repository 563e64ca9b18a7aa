package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/store"
)

// NewLogsCommand creates the logs command group.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show or clear the scan log",
	}

	var limit int
	list := &cobra.Command{
		Use:           "list",
		Short:         "Show the newest scan log entries",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogsList(rootOpts, limit, cmd)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries (0 for all)")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:           "clear",
			Short:         "Delete every scan log entry",
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLogsClear(rootOpts, cmd)
			},
		},
	)

	return cmd
}

func runLogsList(opts *RootOptions, limit int, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	logs, err := a.store.ListLogs(cmd.Context(), limit)
	if err != nil {
		return a.failStore("failed to read log", err)
	}
	if a.out.IsJSON() {
		return a.out.Success(logs)
	}
	for _, l := range logs {
		fmt.Fprintf(a.out.Writer, "%s  %s\n", l.CreatedAt, l.Message)
	}
	return nil
}

func runLogsClear(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.store.DeleteAll(cmd.Context(), store.SectionLogs)
	if err != nil {
		return a.failStore("failed to clear log", err)
	}
	if a.out.IsJSON() {
		return a.out.Success(map[string]int64{"deleted": n})
	}
	return a.out.Success(fmt.Sprintf("Deleted %d log entries", n))
}
