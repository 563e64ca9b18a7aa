package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/barcodebuddy/internal/config"
	"github.com/roach88/barcodebuddy/internal/state"
	"github.com/roach88/barcodebuddy/internal/store"
	"github.com/roach88/barcodebuddy/internal/testutil"
)

// AssertionContext is what assertions read the final state from.
type AssertionContext struct {
	Store   *store.Store
	Config  *config.Store
	Catalog *testutil.FakeCatalog
	Ctx     context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertState:
		return assertState(a, actx)
	case AssertCachedBarcode:
		return assertCachedBarcode(a, actx)
	case AssertCatalogCalls:
		return assertCatalogCalls(a, actx)
	case AssertStock:
		return assertStock(a, actx)
	case AssertShoppingList:
		return assertShoppingList(a, actx)
	case AssertPendingQuantity:
		return assertPendingQuantity(a, actx)
	case AssertLastScanned:
		return assertLastScanned(a, actx)
	case AssertLogContains:
		return assertLogContains(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertState compares the persisted state. It does not apply the revert
// timeout, so it sees exactly what the last scan left behind.
func assertState(a Assertion, actx *AssertionContext) error {
	want, err := state.Parse(a.State)
	if err != nil {
		return err
	}
	got := state.Consume
	row, ok, err := actx.Store.ReadTransactionState(actx.Ctx)
	if err != nil {
		return err
	}
	if ok {
		got = state.State(row.State)
	}
	if got != want {
		return &AssertionError{Type: a.Type, Expected: want.String(), Actual: got.String()}
	}
	return nil
}

func assertCachedBarcode(a Assertion, actx *AssertionContext) error {
	b, err := actx.Store.GetBarcode(actx.Ctx, a.Barcode)
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("barcode %s cached", a.Barcode), Actual: "not cached"}
	}
	if err != nil {
		return err
	}
	if a.Name != "" && b.Name != a.Name {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("name %q", a.Name), Actual: fmt.Sprintf("%q", b.Name)}
	}
	if a.Amount != nil && b.Amount != *a.Amount {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("amount %d", *a.Amount), Actual: fmt.Sprint(b.Amount)}
	}
	if a.PossibleMatch != nil && b.MatchID() != *a.PossibleMatch {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("possible match %d", *a.PossibleMatch), Actual: fmt.Sprint(b.MatchID())}
	}
	return nil
}

// assertCatalogCalls requires the exact sequence of mutating calls.
func assertCatalogCalls(a Assertion, actx *AssertionContext) error {
	got := []string{}
	for _, c := range actx.Catalog.Calls() {
		got = append(got, c.String())
	}
	want := a.Calls
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: "[" + strings.Join(want, ", ") + "]",
			Actual:   "[" + strings.Join(got, ", ") + "]",
		}
	}
	return nil
}

func assertStock(a Assertion, actx *AssertionContext) error {
	p, ok := actx.Catalog.Product(a.ProductID)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("product %d", a.ProductID), Actual: "no such product"}
	}
	if p.Stock != *a.Amount {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("stock %d", *a.Amount), Actual: fmt.Sprint(p.Stock)}
	}
	return nil
}

func assertShoppingList(a Assertion, actx *AssertionContext) error {
	got := actx.Catalog.ShoppingList(a.ProductID)
	if got != *a.Amount {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("amount %d", *a.Amount), Actual: fmt.Sprint(got)}
	}
	return nil
}

func assertPendingQuantity(a Assertion, actx *AssertionContext) error {
	got, barcode, err := actx.Store.PendingQuantity(actx.Ctx)
	if err != nil {
		return err
	}
	if got != a.Multiplier {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("multiplier %d", a.Multiplier), Actual: fmt.Sprint(got)}
	}
	if a.Barcode != "" && barcode != a.Barcode {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("set by %s", a.Barcode), Actual: barcode}
	}
	return nil
}

func assertLastScanned(a Assertion, actx *AssertionContext) error {
	barcode, err := actx.Config.Get(actx.Ctx, config.KeyLastBarcode)
	if err != nil {
		return err
	}
	if barcode != a.Barcode {
		return &AssertionError{Type: a.Type, Expected: a.Barcode, Actual: barcode}
	}
	if a.Product != "" {
		product, err := actx.Config.Get(actx.Ctx, config.KeyLastProduct)
		if err != nil {
			return err
		}
		if product != a.Product {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("product %q", a.Product), Actual: fmt.Sprintf("%q", product)}
		}
	}
	return nil
}

func assertLogContains(a Assertion, actx *AssertionContext) error {
	logs, err := actx.Store.ListLogs(actx.Ctx, 0)
	if err != nil {
		return err
	}
	for _, l := range logs {
		if strings.Contains(l.Message, a.Contains) {
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("a log line containing %q", a.Contains), Actual: fmt.Sprintf("%d lines without it", len(logs))}
}
