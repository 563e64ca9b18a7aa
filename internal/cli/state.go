package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/state"
)

// StateResult is the output of the state commands.
type StateResult struct {
	State string    `json:"state"`
	Since time.Time `json:"since"`
}

// NewStateCommand creates the state command group.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show or select the transaction mode",
		Long: `Show or select the transaction mode applied to the next product scan.

Modes: consume, consume_spoiled, purchase, open, get_stock,
add_to_shopping_list. Any mode other than consume reverts to consume once
REVERT_TIME minutes have passed.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "get",
		Short:         "Show the current mode",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStateGet(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "set <mode>",
		Short:         "Select a mode",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStateSet(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runStateGet(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	current, err := a.machine.Get(ctx)
	if err != nil {
		return a.failStore("failed to read state", err)
	}
	since, err := a.machine.Since(ctx)
	if err != nil {
		return a.failStore("failed to read state", err)
	}
	return outputState(a, StateResult{State: current.String(), Since: since})
}

func runStateSet(opts *RootOptions, name string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	next, err := state.Parse(name)
	if err != nil {
		return a.failInput(err.Error())
	}
	ctx := cmd.Context()
	if err := a.machine.Set(ctx, next); err != nil {
		return a.failStore("failed to set state", err)
	}
	since, err := a.machine.Since(ctx)
	if err != nil {
		return a.failStore("failed to read state", err)
	}
	return outputState(a, StateResult{State: next.String(), Since: since})
}

func outputState(a *app, result StateResult) error {
	if a.out.IsJSON() {
		return a.out.Success(result)
	}
	fmt.Fprintf(a.out.Writer, "%s (since %s)\n", result.State, result.Since.Format(time.RFC3339))
	return nil
}
