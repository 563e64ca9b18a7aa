package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/match"
)

// TagRow is one tag as printed by tags list.
type TagRow struct {
	ID        int64  `json:"id"`
	Word      string `json:"word"`
	ProductID int64  `json:"product_id"`
	Product   string `json:"product,omitempty"`
}

// NewTagsCommand creates the tags command group.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage words that suggest products for unknown barcodes",
		Long: `Manage tags: single words that map to a Grocy product.

When a lookup names an unknown barcode, the oldest tag matching any word of
the name becomes the suggested product. Matching is case sensitive.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:           "list",
			Short:         "List tags",
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTagsList(rootOpts, cmd)
			},
		},
		&cobra.Command{
			Use:           "add <word> <product-id>",
			Short:         "Add a tag for a Grocy product",
			Args:          cobra.ExactArgs(2),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTagsAdd(rootOpts, args[0], args[1], cmd)
			},
		},
		&cobra.Command{
			Use:           "delete <id>",
			Short:         "Delete a tag",
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTagsDelete(rootOpts, args[0], cmd)
			},
		},
		&cobra.Command{
			Use:           "suggest <product-id>",
			Short:         "Suggest new tags from a product's name",
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTagsSuggest(rootOpts, args[0], cmd)
			},
		},
	)

	return cmd
}

func runTagsList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	tags, err := a.store.ListTags(ctx)
	if err != nil {
		return a.failStore("failed to list tags", err)
	}

	// Product names are decoration; an unreachable catalog still lists tags.
	names := map[int64]string{}
	products, err := a.catalog.GetProducts(ctx)
	if err != nil {
		a.logger.Warn("could not load product names", "error", err)
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}

	rows := make([]TagRow, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, TagRow{ID: t.ID, Word: t.Word, ProductID: t.ProductID, Product: names[t.ProductID]})
	}

	if a.out.IsJSON() {
		return a.out.Success(rows)
	}
	for _, r := range rows {
		product := r.Product
		if product == "" {
			product = "?"
		}
		fmt.Fprintf(a.out.Writer, "  %-4d %-20s -> %s (%d)\n", r.ID, r.Word, product, r.ProductID)
	}
	return nil
}

func runTagsAdd(opts *RootOptions, word, rawProductID string, cmd *cobra.Command) error {
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
	product, err := a.catalog.GetProduct(ctx, productID)
	if err != nil {
		return a.failRemote(fmt.Sprintf("failed to get product %d", productID), err)
	}

	id, err := a.matcher.AddTag(ctx, word, productID)
	if err != nil {
		if errors.Is(err, match.ErrInvalidTag) {
			return a.failInput(err.Error())
		}
		return a.failStore("failed to add tag", err)
	}

	row := TagRow{ID: id, Word: word, ProductID: productID, Product: product.Name}
	if a.out.IsJSON() {
		return a.out.Success(row)
	}
	return a.out.Success(fmt.Sprintf("Added tag %s for %s (%d)", word, product.Name, productID))
}

func runTagsDelete(opts *RootOptions, rawID string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := parseID(rawID)
	if err != nil {
		return a.failInput(err.Error())
	}
	if err := a.store.DeleteTag(cmd.Context(), id); err != nil {
		return a.failLocal("failed to delete tag", err)
	}
	return a.out.Success(fmt.Sprintf("Deleted tag %d", id))
}

func runTagsSuggest(opts *RootOptions, rawProductID string, cmd *cobra.Command) error {
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
	product, err := a.catalog.GetProduct(ctx, productID)
	if err != nil {
		return a.failRemote(fmt.Sprintf("failed to get product %d", productID), err)
	}
	words, err := a.matcher.SuggestTags(ctx, product.Name)
	if err != nil {
		return a.failStore("failed to suggest tags", err)
	}

	if a.out.IsJSON() {
		return a.out.Success(map[string]any{"product_id": productID, "product": product.Name, "suggestions": words})
	}
	if len(words) == 0 {
		return a.out.Success(fmt.Sprintf("No new tags for %s", product.Name))
	}
	return a.out.Success(strings.Join(words, "\n"))
}
