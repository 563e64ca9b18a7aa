package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// QuantityRow is one quantity barcode as printed by quantity list.
type QuantityRow struct {
	ID         int64  `json:"id"`
	Barcode    string `json:"barcode"`
	Multiplier int64  `json:"multiplier"`
	Product    string `json:"product,omitempty"`
}

// NewQuantityCommand creates the quantity command group.
func NewQuantityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quantity",
		Short: "Manage barcodes that set the amount of the next scan",
		Long: `Manage quantity barcodes.

Scanning a quantity barcode sets the multiplier applied to the next product
scan. The product column names the product last scanned after it and is
informational only.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:           "list",
			Short:         "List quantity barcodes",
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runQuantityList(rootOpts, cmd)
			},
		},
		&cobra.Command{
			Use:           "set <barcode> <multiplier>",
			Short:         "Register or change a quantity barcode",
			Args:          cobra.ExactArgs(2),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runQuantitySet(rootOpts, args[0], args[1], cmd)
			},
		},
		&cobra.Command{
			Use:           "delete <id>",
			Short:         "Delete a quantity barcode",
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runQuantityDelete(rootOpts, args[0], cmd)
			},
		},
	)

	return cmd
}

func runQuantityList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	quantities, err := a.store.ListQuantities(cmd.Context())
	if err != nil {
		return a.failStore("failed to list quantities", err)
	}
	rows := make([]QuantityRow, 0, len(quantities))
	for _, q := range quantities {
		rows = append(rows, QuantityRow{ID: q.ID, Barcode: q.Barcode, Multiplier: q.Multiplier, Product: q.ProductName()})
	}

	if a.out.IsJSON() {
		return a.out.Success(rows)
	}
	for _, r := range rows {
		fmt.Fprintf(a.out.Writer, "  %-4d %-16s x%-4d %s\n", r.ID, r.Barcode, r.Multiplier, r.Product)
	}
	return nil
}

func runQuantitySet(opts *RootOptions, barcode, rawMultiplier string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	multiplier, err := parseID(rawMultiplier)
	if err != nil {
		return a.failInput(fmt.Sprintf("invalid multiplier %q: must be a positive integer", rawMultiplier))
	}
	if barcode == "" {
		return a.failInput("barcode must not be empty")
	}
	if err := a.store.UpsertQuantityBarcode(cmd.Context(), barcode, multiplier, ""); err != nil {
		return a.failStore("failed to set quantity", err)
	}

	if a.out.IsJSON() {
		return a.out.Success(QuantityRow{Barcode: barcode, Multiplier: multiplier})
	}
	return a.out.Success(fmt.Sprintf("%s now sets quantity %d", barcode, multiplier))
}

func runQuantityDelete(opts *RootOptions, rawID string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := parseID(rawID)
	if err != nil {
		return a.failInput(err.Error())
	}
	if err := a.store.DeleteQuantity(cmd.Context(), id); err != nil {
		return a.failLocal("failed to delete quantity", err)
	}
	return a.out.Success(fmt.Sprintf("Deleted quantity %d", id))
}
