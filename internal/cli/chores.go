package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ChoreRow is one Grocy chore with its barcode, if linked.
type ChoreRow struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Barcode string `json:"barcode,omitempty"`
}

// NewChoresCommand creates the chores command group.
func NewChoresCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chores",
		Short: "Link barcodes to Grocy chores",
		Long: `Link barcodes to Grocy chores.

Scanning a linked barcode executes the chore, whatever the current mode.
A chore has at most one barcode and a barcode links at most one chore.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:           "list",
			Short:         "List Grocy chores and their barcodes",
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runChoresList(rootOpts, cmd)
			},
		},
		&cobra.Command{
			Use:           "link <chore-id> <barcode>",
			Short:         "Link a barcode to a chore",
			Args:          cobra.ExactArgs(2),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runChoresLink(rootOpts, args[0], args[1], cmd)
			},
		},
		&cobra.Command{
			Use:           "unlink <chore-id>",
			Short:         "Remove the barcode of a chore",
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runChoresUnlink(rootOpts, args[0], cmd)
			},
		},
	)

	return cmd
}

func runChoresList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	chores, err := a.catalog.GetChores(ctx)
	if err != nil {
		return a.failRemote("failed to list chores", err)
	}
	links, err := a.store.ListChoreBarcodes(ctx)
	if err != nil {
		return a.failStore("failed to list chore barcodes", err)
	}
	barcodes := make(map[int64]string, len(links))
	for _, l := range links {
		barcodes[l.ChoreID] = l.Barcode
	}

	rows := make([]ChoreRow, 0, len(chores))
	for _, c := range chores {
		rows = append(rows, ChoreRow{ID: c.ID, Name: c.Name, Barcode: barcodes[c.ID]})
	}

	if a.out.IsJSON() {
		return a.out.Success(rows)
	}
	for _, r := range rows {
		barcode := r.Barcode
		if barcode == "" {
			barcode = "-"
		}
		fmt.Fprintf(a.out.Writer, "  %-4d %-30s %s\n", r.ID, r.Name, barcode)
	}
	return nil
}

func runChoresLink(opts *RootOptions, rawChoreID, barcode string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	choreID, err := parseID(rawChoreID)
	if err != nil {
		return a.failInput(err.Error())
	}
	if barcode == "" {
		return a.failInput("barcode must not be empty")
	}
	chore, err := a.catalog.GetChore(ctx, choreID)
	if err != nil {
		return a.failRemote(fmt.Sprintf("failed to get chore %d", choreID), err)
	}
	if err := a.store.UpsertChoreBarcode(ctx, choreID, barcode); err != nil {
		return a.failStore("failed to link chore", err)
	}

	row := ChoreRow{ID: chore.ID, Name: chore.Name, Barcode: barcode}
	if a.out.IsJSON() {
		return a.out.Success(row)
	}
	return a.out.Success(fmt.Sprintf("Linked %s to chore %s", barcode, chore.Name))
}

func runChoresUnlink(opts *RootOptions, rawChoreID string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	choreID, err := parseID(rawChoreID)
	if err != nil {
		return a.failInput(err.Error())
	}
	if err := a.store.DeleteChoreBarcode(cmd.Context(), choreID); err != nil {
		return a.failLocal("failed to unlink chore", err)
	}
	return a.out.Success(fmt.Sprintf("Unlinked chore %d", choreID))
}
