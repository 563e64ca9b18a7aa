// Package catalog defines the remote inventory catalog the scan pipeline
// resolves barcodes against and applies stock actions to.
//
// The concrete HTTP implementation lives in package grocy; tests use the
// in-memory fake in package testutil.
package catalog

import (
	"context"
)

// Product is an inventory product as the catalog reports it.
type Product struct {
	ID                    int64    `json:"id"`
	Name                  string   `json:"name"`
	Barcodes              []string `json:"barcodes,omitempty"`
	DefaultBestBeforeDays int      `json:"default_best_before_days"`
}

// StockProduct is a product resolved by barcode together with its stock level.
type StockProduct struct {
	Product
	StockAmount string `json:"stock_amount"`
	Unit        string `json:"unit"`
}

// Chore is a household task that a scan can mark as executed.
type Chore struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PurchaseOptions are the optional parts of a purchase.
type PurchaseOptions struct {
	// BestBeforeDate is YYYY-MM-DD. Empty uses the product's default shelf life.
	BestBeforeDate string

	// Price per unit. Nil sends no price.
	Price *float64
}

// PurchaseResult reports what a purchase booked.
type PurchaseResult struct {
	BestBeforeDate string `json:"best_before_date"`

	// BestBeforeKnown is false when neither the caller nor the product supplied
	// a shelf life, so the entry was booked with a zero-day best before date.
	BestBeforeKnown bool `json:"best_before_known"`
}

// Client is the remote catalog. Every method that talks to the network
// returns a *Error on failure.
type Client interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetProducts(ctx context.Context) ([]Product, error)

	// GetProductByBarcode returns ok=false when no product carries barcode.
	GetProductByBarcode(ctx context.Context, barcode string) (product StockProduct, ok bool, err error)

	Purchase(ctx context.Context, id, amount int64, opts PurchaseOptions) (PurchaseResult, error)
	Consume(ctx context.Context, id, amount int64, spoiled bool) error
	OpenProduct(ctx context.Context, id, amount int64) error

	// SetBarcodes replaces every barcode of the product. Callers that want to
	// add a barcode must read the existing ones first.
	SetBarcodes(ctx context.Context, id int64, barcodes []string) error

	AddToShoppingList(ctx context.Context, id, amount int64) error
	RemoveFromShoppingList(ctx context.Context, id, amount int64) error

	GetChore(ctx context.Context, id int64) (Chore, error)
	GetChores(ctx context.Context) ([]Chore, error)
	ExecuteChore(ctx context.Context, id int64) error

	SystemVersion(ctx context.Context) (string, error)
}
