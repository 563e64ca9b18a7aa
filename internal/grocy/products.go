package grocy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/roach88/barcodebuddy/internal/catalog"
)

func (p productJSON) toProduct() catalog.Product {
	return catalog.Product{
		ID:                    int64(p.ID),
		Name:                  p.Name,
		Barcodes:              splitBarcodes(p.Barcode),
		DefaultBestBeforeDays: int(p.DefaultBestBeforeDays),
	}
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var p productJSON
	if err := c.do(ctx, "get product", http.MethodGet, fmt.Sprintf("objects/products/%d", id), nil, &p); err != nil {
		return catalog.Product{}, err
	}
	if p.ID == 0 {
		return catalog.Product{}, catalog.NewError(catalog.ErrCodeNotFound, "get product",
			fmt.Sprintf("product %d does not exist", id), nil)
	}
	return p.toProduct(), nil
}

// GetProducts returns every product.
func (c *Client) GetProducts(ctx context.Context) ([]catalog.Product, error) {
	var ps []productJSON
	if err := c.do(ctx, "get products", http.MethodGet, "objects/products", nil, &ps); err != nil {
		return nil, err
	}
	products := make([]catalog.Product, 0, len(ps))
	for _, p := range ps {
		products = append(products, p.toProduct())
	}
	return products, nil
}

// GetProductByBarcode resolves barcode. Grocy answers an unknown barcode with
// 400 or 404, or with a body that has no product; all read as not found.
func (c *Client) GetProductByBarcode(ctx context.Context, barcode string) (catalog.StockProduct, bool, error) {
	var s stockJSON
	path := "stock/products/by-barcode/" + url.PathEscape(barcode)
	err := c.do(ctx, "get product by barcode", http.MethodGet, path, nil, &s)
	if catalog.IsNotFound(err) || catalog.IsRejected(err) {
		return catalog.StockProduct{}, false, nil
	}
	if err != nil {
		return catalog.StockProduct{}, false, err
	}
	if s.Product == nil || s.Product.ID == 0 {
		return catalog.StockProduct{}, false, nil
	}

	sp := catalog.StockProduct{
		Product:     s.Product.toProduct(),
		StockAmount: string(s.StockAmount),
	}
	if sp.StockAmount == "" {
		sp.StockAmount = "0"
	}
	if s.Unit != nil {
		sp.Unit = s.Unit.Name
	}
	return sp, true, nil
}

// Purchase books amount units into stock. Without an explicit best before
// date the product's default shelf life is fetched and applied.
func (c *Client) Purchase(ctx context.Context, id, amount int64, opts catalog.PurchaseOptions) (catalog.PurchaseResult, error) {
	result := catalog.PurchaseResult{BestBeforeDate: opts.BestBeforeDate, BestBeforeKnown: true}
	if result.BestBeforeDate == "" {
		product, err := c.GetProduct(ctx, id)
		if err != nil {
			return catalog.PurchaseResult{}, err
		}
		result.BestBeforeDate = catalog.BestBeforeDate(c.now(), product.DefaultBestBeforeDays)
		result.BestBeforeKnown = product.DefaultBestBeforeDays != 0
	}

	body := map[string]any{
		"amount":           amount,
		"transaction_type": "purchase",
		"best_before_date": result.BestBeforeDate,
	}
	if opts.Price != nil {
		body["price"] = *opts.Price
	}
	if err := c.do(ctx, "purchase", http.MethodPost, fmt.Sprintf("stock/products/%d/add", id), body, nil); err != nil {
		return catalog.PurchaseResult{}, err
	}
	return result, nil
}

// Consume removes amount units from stock.
func (c *Client) Consume(ctx context.Context, id, amount int64, spoiled bool) error {
	body := map[string]any{
		"amount":           amount,
		"transaction_type": "consume",
		"spoiled":          spoiled,
	}
	return c.do(ctx, "consume", http.MethodPost, fmt.Sprintf("stock/products/%d/consume", id), body, nil)
}

// OpenProduct marks amount units as opened.
func (c *Client) OpenProduct(ctx context.Context, id, amount int64) error {
	body := map[string]any{"amount": amount}
	return c.do(ctx, "open product", http.MethodPost, fmt.Sprintf("stock/products/%d/open", id), body, nil)
}

// SetBarcodes replaces the product's barcode list.
func (c *Client) SetBarcodes(ctx context.Context, id int64, barcodes []string) error {
	body := map[string]any{"barcode": strings.Join(barcodes, ",")}
	return c.do(ctx, "set barcodes", http.MethodPut, fmt.Sprintf("objects/products/%d", id), body, nil)
}

// AddToShoppingList adds amount units to the default shopping list.
func (c *Client) AddToShoppingList(ctx context.Context, id, amount int64) error {
	body := map[string]any{"product_id": id, "product_amount": amount}
	return c.do(ctx, "add to shopping list", http.MethodPost, "stock/shoppinglist/add-product", body, nil)
}

// RemoveFromShoppingList removes amount units from the default shopping list.
func (c *Client) RemoveFromShoppingList(ctx context.Context, id, amount int64) error {
	body := map[string]any{"product_id": id, "product_amount": amount}
	return c.do(ctx, "remove from shopping list", http.MethodPost, "stock/shoppinglist/remove-product", body, nil)
}
