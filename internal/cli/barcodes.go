package cli

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/store"
)

// BarcodeRow is one cached barcode as printed by barcodes list.
type BarcodeRow struct {
	ID            int64  `json:"id"`
	Barcode       string `json:"barcode"`
	Name          string `json:"name"`
	Amount        int64  `json:"amount"`
	PossibleMatch int64  `json:"possible_match,omitempty"`
}

// BarcodeList is the output of barcodes list.
type BarcodeList struct {
	Known   []BarcodeRow `json:"known"`
	Unknown []BarcodeRow `json:"unknown"`
}

// AssignResult is the output of barcodes assign.
type AssignResult struct {
	Barcode   string `json:"barcode"`
	ProductID int64  `json:"product_id"`
	Product   string `json:"product"`
	Purchased int64  `json:"purchased,omitempty"`
}

// NewBarcodesCommand creates the barcodes command group.
func NewBarcodesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "barcodes",
		Short: "Manage barcodes Grocy did not recognize",
		Long: `Manage the local cache of barcodes Grocy did not recognize.

Barcodes a lookup could name are listed as known, the rest as unknown.
Assigning a barcode adds it to a Grocy product and removes it from the cache.`,
	}

	var purchase bool
	assign := &cobra.Command{
		Use:   "assign <barcode> <product-id>",
		Short: "Add a cached barcode to a Grocy product",
		Long: `Add a cached barcode to a Grocy product and remove it from the cache.

With --purchase the amount scanned while the barcode was unknown is
purchased as well.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBarcodesAssign(rootOpts, args[0], args[1], purchase, cmd)
		},
	}
	assign.Flags().BoolVar(&purchase, "purchase", false, "purchase the accumulated amount")

	cmd.AddCommand(
		&cobra.Command{
			Use:           "list",
			Short:         "List cached barcodes",
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBarcodesList(rootOpts, cmd)
			},
		},
		&cobra.Command{
			Use:           "delete <id>",
			Short:         "Delete one cached barcode",
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBarcodesDelete(rootOpts, args[0], cmd)
			},
		},
		&cobra.Command{
			Use:           "purge <known|unknown|log>",
			Short:         "Delete every row of a section",
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBarcodesPurge(rootOpts, args[0], cmd)
			},
		},
		assign,
	)

	return cmd
}

func runBarcodesList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	known, unknown, err := a.store.ListBarcodes(cmd.Context())
	if err != nil {
		return a.failStore("failed to list barcodes", err)
	}
	result := BarcodeList{Known: toBarcodeRows(known), Unknown: toBarcodeRows(unknown)}

	if a.out.IsJSON() {
		return a.out.Success(result)
	}

	w := a.out.Writer
	fmt.Fprintf(w, "Known (%d):\n", len(result.Known))
	for _, b := range result.Known {
		fmt.Fprintf(w, "  %-4d %-16s x%-3d %s%s\n", b.ID, b.Barcode, b.Amount, b.Name, matchSuffix(b.PossibleMatch))
	}
	fmt.Fprintf(w, "Unknown (%d):\n", len(result.Unknown))
	for _, b := range result.Unknown {
		fmt.Fprintf(w, "  %-4d %-16s x%-3d%s\n", b.ID, b.Barcode, b.Amount, matchSuffix(b.PossibleMatch))
	}
	return nil
}

func matchSuffix(productID int64) string {
	if productID == 0 {
		return ""
	}
	return fmt.Sprintf(" (suggested product %d)", productID)
}

func toBarcodeRows(rows []store.CachedBarcode) []BarcodeRow {
	out := make([]BarcodeRow, 0, len(rows))
	for _, b := range rows {
		out = append(out, BarcodeRow{
			ID:            b.ID,
			Barcode:       b.Barcode,
			Name:          b.Name,
			Amount:        b.Amount,
			PossibleMatch: b.MatchID(),
		})
	}
	return out
}

func runBarcodesDelete(opts *RootOptions, rawID string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := parseID(rawID)
	if err != nil {
		return a.failInput(err.Error())
	}
	if err := a.store.DeleteBarcode(cmd.Context(), id); err != nil {
		return a.failLocal("failed to delete barcode", err)
	}
	return a.out.Success(fmt.Sprintf("Deleted barcode %d", id))
}

func runBarcodesPurge(opts *RootOptions, name string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	section, err := store.ParseSection(name)
	if err != nil {
		return a.failInput(err.Error())
	}
	n, err := a.store.DeleteAll(cmd.Context(), section)
	if err != nil {
		return a.failStore("failed to purge", err)
	}
	if a.out.IsJSON() {
		return a.out.Success(map[string]any{"section": section, "deleted": n})
	}
	return a.out.Success(fmt.Sprintf("Deleted %d row(s) from %s", n, section))
}

func runBarcodesAssign(opts *RootOptions, barcode, rawProductID string, purchase bool, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	productID, err := parseID(rawProductID)
	if err != nil {
		return a.failInput(err.Error())
	}
	cached, err := a.store.GetBarcode(ctx, barcode)
	if err != nil {
		return a.failLocal("failed to read cached barcode", err)
	}

	product, err := a.catalog.GetProduct(ctx, productID)
	if err != nil {
		return a.failRemote(fmt.Sprintf("failed to get product %d", productID), err)
	}
	if !slices.Contains(product.Barcodes, barcode) {
		// Grocy replaces the whole list, so send the existing barcodes too.
		barcodes := append(slices.Clone(product.Barcodes), barcode)
		if err := a.catalog.SetBarcodes(ctx, productID, barcodes); err != nil {
			return a.failRemote(fmt.Sprintf("failed to add barcode to %s", product.Name), err)
		}
	}

	result := AssignResult{Barcode: barcode, ProductID: productID, Product: product.Name}
	if purchase {
		if _, err := a.catalog.Purchase(ctx, productID, cached.Amount, catalog.PurchaseOptions{}); err != nil {
			return a.failRemote(fmt.Sprintf("failed to purchase %s", product.Name), err)
		}
		result.Purchased = cached.Amount
	}

	if err := a.store.DeleteBarcode(ctx, cached.ID); err != nil {
		return a.failStore("failed to remove cached barcode", err)
	}
	if err := a.store.AppendLog(ctx, fmt.Sprintf("Assigned barcode %s to %s", barcode, product.Name), false); err != nil {
		a.logger.Warn("append scan log failed", "error", err)
	}

	if a.out.IsJSON() {
		return a.out.Success(result)
	}
	msg := fmt.Sprintf("Assigned %s to %s (%d)", barcode, product.Name, productID)
	if result.Purchased > 0 {
		msg += fmt.Sprintf(", purchased %d", result.Purchased)
	}
	return a.out.Success(msg)
}

// failLocal reports a store failure, distinguishing a missing row.
func (a *app) failLocal(message string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		_ = a.out.Error(ErrCodeNotFound, message, err.Error())
		return WrapExitError(ExitFailure, message, err)
	}
	return a.failStore(message, err)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return id, nil
}
