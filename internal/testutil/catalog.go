package testutil

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/barcodebuddy/internal/catalog"
)

// Catalog operation names recorded in FakeCatalog calls and used as keys of
// FakeCatalog.Fail.
const (
	OpGetProduct             = "get_product"
	OpGetProducts            = "get_products"
	OpGetProductByBarcode    = "get_product_by_barcode"
	OpPurchase               = "purchase"
	OpConsume                = "consume"
	OpOpenProduct            = "open_product"
	OpSetBarcodes            = "set_barcodes"
	OpAddToShoppingList      = "add_to_shopping_list"
	OpRemoveFromShoppingList = "remove_from_shopping_list"
	OpGetChore               = "get_chore"
	OpGetChores              = "get_chores"
	OpExecuteChore           = "execute_chore"
	OpSystemVersion          = "system_version"
)

// CatalogCall records one mutating call made against a FakeCatalog.
type CatalogCall struct {
	Op      string `json:"op" yaml:"op"`
	ID      int64  `json:"id" yaml:"id"`
	Amount  int64  `json:"amount,omitempty" yaml:"amount,omitempty"`
	Spoiled bool   `json:"spoiled,omitempty" yaml:"spoiled,omitempty"`
}

// String renders the call for golden traces.
func (c CatalogCall) String() string {
	s := fmt.Sprintf("%s(%d", c.Op, c.ID)
	if c.Amount != 0 {
		s += fmt.Sprintf(", amount=%d", c.Amount)
	}
	if c.Spoiled {
		s += ", spoiled"
	}
	return s + ")"
}

// FakeProduct is a product held by FakeCatalog together with its stock.
type FakeProduct struct {
	catalog.Product
	Stock  int64
	Opened int64
	Unit   string
}

// FakeCatalog is an in-memory catalog.Client.
//
// Consuming more than is in stock is rejected the way the real backend
// rejects it. Any operation can be made to fail through Fail.
//
// Thread-safety: FakeCatalog is safe for concurrent use via internal mutex.
type FakeCatalog struct {
	mu           sync.Mutex
	products     map[int64]*FakeProduct
	chores       map[int64]catalog.Chore
	shoppingList map[int64]int64
	calls        []CatalogCall
	fail         map[string]error
	version      string
	now          func() time.Time
}

var _ catalog.Client = (*FakeCatalog)(nil)

// NewFakeCatalog creates an empty catalog reporting catalog.MinVersion.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		products:     make(map[int64]*FakeProduct),
		chores:       make(map[int64]catalog.Chore),
		shoppingList: make(map[int64]int64),
		fail:         make(map[string]error),
		version:      catalog.MinVersion,
		now:          func() time.Time { return Epoch },
	}
}

// AddProduct registers a product.
func (f *FakeCatalog) AddProduct(p FakeProduct) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	cp.Barcodes = slices.Clone(p.Barcodes)
	f.products[p.ID] = &cp
}

// AddChore registers a chore.
func (f *FakeCatalog) AddChore(c catalog.Chore) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chores[c.ID] = c
}

// SetVersion sets the version SystemVersion reports.
func (f *FakeCatalog) SetVersion(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
}

// SetClock sets the time source for default best before dates.
func (f *FakeCatalog) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Fail makes op return err until cleared with a nil err.
func (f *FakeCatalog) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Calls returns the mutating calls in order.
func (f *FakeCatalog) Calls() []CatalogCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Product returns a copy of a stored product.
func (f *FakeCatalog) Product(id int64) (FakeProduct, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return FakeProduct{}, false
	}
	return *p, true
}

// ShoppingList returns the amount of id on the shopping list.
func (f *FakeCatalog) ShoppingList(id int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shoppingList[id]
}

func (f *FakeCatalog) failure(op string) error {
	return f.fail[op]
}

func (f *FakeCatalog) record(c CatalogCall) {
	f.calls = append(f.calls, c)
}

func (f *FakeCatalog) productLocked(op string, id int64) (*FakeProduct, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.NewError(catalog.ErrCodeNotFound, op, fmt.Sprintf("product %d does not exist", id), nil)
	}
	return p, nil
}

// GetProduct implements catalog.Client.
func (f *FakeCatalog) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpGetProduct); err != nil {
		return catalog.Product{}, err
	}
	p, err := f.productLocked(OpGetProduct, id)
	if err != nil {
		return catalog.Product{}, err
	}
	return p.Product, nil
}

// GetProducts implements catalog.Client. Products are ordered by id.
func (f *FakeCatalog) GetProducts(context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpGetProducts); err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p.Product)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetProductByBarcode implements catalog.Client.
func (f *FakeCatalog) GetProductByBarcode(_ context.Context, barcode string) (catalog.StockProduct, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpGetProductByBarcode); err != nil {
		return catalog.StockProduct{}, false, err
	}
	for _, p := range f.products {
		if slices.Contains(p.Barcodes, barcode) {
			return catalog.StockProduct{
				Product:     p.Product,
				StockAmount: strconv.FormatInt(p.Stock, 10),
				Unit:        p.Unit,
			}, true, nil
		}
	}
	return catalog.StockProduct{}, false, nil
}

// Purchase implements catalog.Client.
func (f *FakeCatalog) Purchase(_ context.Context, id, amount int64, opts catalog.PurchaseOptions) (catalog.PurchaseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpPurchase); err != nil {
		return catalog.PurchaseResult{}, err
	}
	p, err := f.productLocked(OpPurchase, id)
	if err != nil {
		return catalog.PurchaseResult{}, err
	}

	result := catalog.PurchaseResult{BestBeforeDate: opts.BestBeforeDate, BestBeforeKnown: true}
	if result.BestBeforeDate == "" {
		result.BestBeforeDate = catalog.BestBeforeDate(f.now(), p.DefaultBestBeforeDays)
		result.BestBeforeKnown = p.DefaultBestBeforeDays != 0
	}
	p.Stock += amount
	f.record(CatalogCall{Op: OpPurchase, ID: id, Amount: amount})
	return result, nil
}

// Consume implements catalog.Client.
func (f *FakeCatalog) Consume(_ context.Context, id, amount int64, spoiled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpConsume); err != nil {
		return err
	}
	p, err := f.productLocked(OpConsume, id)
	if err != nil {
		return err
	}
	if amount > p.Stock {
		return catalog.NewError(catalog.ErrCodeRejected, OpConsume,
			"Amount to be consumed cannot be > current stock amount", nil)
	}
	p.Stock -= amount
	f.record(CatalogCall{Op: OpConsume, ID: id, Amount: amount, Spoiled: spoiled})
	return nil
}

// OpenProduct implements catalog.Client.
func (f *FakeCatalog) OpenProduct(_ context.Context, id, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpOpenProduct); err != nil {
		return err
	}
	p, err := f.productLocked(OpOpenProduct, id)
	if err != nil {
		return err
	}
	if p.Opened+amount > p.Stock {
		return catalog.NewError(catalog.ErrCodeRejected, OpOpenProduct,
			"Amount to be opened cannot be > current unopened stock amount", nil)
	}
	p.Opened += amount
	f.record(CatalogCall{Op: OpOpenProduct, ID: id, Amount: amount})
	return nil
}

// SetBarcodes implements catalog.Client.
func (f *FakeCatalog) SetBarcodes(_ context.Context, id int64, barcodes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpSetBarcodes); err != nil {
		return err
	}
	p, err := f.productLocked(OpSetBarcodes, id)
	if err != nil {
		return err
	}
	p.Barcodes = slices.Clone(barcodes)
	f.record(CatalogCall{Op: OpSetBarcodes, ID: id})
	return nil
}

// AddToShoppingList implements catalog.Client.
func (f *FakeCatalog) AddToShoppingList(_ context.Context, id, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpAddToShoppingList); err != nil {
		return err
	}
	if _, err := f.productLocked(OpAddToShoppingList, id); err != nil {
		return err
	}
	f.shoppingList[id] += amount
	f.record(CatalogCall{Op: OpAddToShoppingList, ID: id, Amount: amount})
	return nil
}

// RemoveFromShoppingList implements catalog.Client. Removing more than is
// listed empties the entry.
func (f *FakeCatalog) RemoveFromShoppingList(_ context.Context, id, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpRemoveFromShoppingList); err != nil {
		return err
	}
	f.shoppingList[id] = max(0, f.shoppingList[id]-amount)
	f.record(CatalogCall{Op: OpRemoveFromShoppingList, ID: id, Amount: amount})
	return nil
}

// GetChore implements catalog.Client.
func (f *FakeCatalog) GetChore(_ context.Context, id int64) (catalog.Chore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpGetChore); err != nil {
		return catalog.Chore{}, err
	}
	c, ok := f.chores[id]
	if !ok {
		return catalog.Chore{}, catalog.NewError(catalog.ErrCodeNotFound, OpGetChore, fmt.Sprintf("chore %d does not exist", id), nil)
	}
	return c, nil
}

// GetChores implements catalog.Client. Chores are ordered by id.
func (f *FakeCatalog) GetChores(context.Context) ([]catalog.Chore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpGetChores); err != nil {
		return nil, err
	}
	out := make([]catalog.Chore, 0, len(f.chores))
	for _, c := range f.chores {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ExecuteChore implements catalog.Client.
func (f *FakeCatalog) ExecuteChore(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpExecuteChore); err != nil {
		return err
	}
	if _, ok := f.chores[id]; !ok {
		return catalog.NewError(catalog.ErrCodeNotFound, OpExecuteChore, fmt.Sprintf("chore %d does not exist", id), nil)
	}
	f.record(CatalogCall{Op: OpExecuteChore, ID: id})
	return nil
}

// SystemVersion implements catalog.Client.
func (f *FakeCatalog) SystemVersion(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(OpSystemVersion); err != nil {
		return "", err
	}
	return f.version, nil
}
