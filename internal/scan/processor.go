// Package scan turns one barcode scan into one decided action.
//
// The order of checks is fixed: chore barcodes, mode barcodes, quantity
// barcodes, then the current transaction state applied to the product the
// catalog resolves the barcode to. Cache updates for an unknown barcode
// always happen before any remote stock action, so a failing backend never
// loses the record of what was scanned.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/config"
	"github.com/roach88/barcodebuddy/internal/notify"
	"github.com/roach88/barcodebuddy/internal/state"
	"github.com/roach88/barcodebuddy/internal/store"
)

// Error codes for failures that do not come from the catalog.
const (
	ErrCodeValidation = "VALIDATION"
	ErrCodeStorage    = "STORAGE"
)

// ErrEmptyBarcode is returned for a scan with no barcode text.
var ErrEmptyBarcode = errors.New("empty barcode")

// Store is the local reconciliation store. Implemented by *store.Store.
type Store interface {
	LookupChoreBarcode(ctx context.Context, barcode string) (choreID int64, ok bool, err error)
	IsQuantityBarcode(ctx context.Context, barcode string) (bool, error)
	LookupQuantityBarcode(ctx context.Context, barcode string) (int64, error)
	RefreshQuantityProductName(ctx context.Context, barcode, productName string) error
	PendingQuantity(ctx context.Context) (multiplier int64, barcode string, err error)
	SetPendingQuantity(ctx context.Context, multiplier int64, barcode string) error
	ClearPendingQuantity(ctx context.Context) error
	HasBarcode(ctx context.Context, barcode string) (bool, error)
	UpsertUnknownBarcode(ctx context.Context, barcode string, amount int64, name string, match int64) error
	IncrementUnknownAmount(ctx context.Context, barcode string, delta int64) error
	UpdatePossibleMatch(ctx context.Context, barcode string, productID int64) error
	AppendLog(ctx context.Context, message string, verboseOnly bool) error
}

// Settings supplies a fresh configuration snapshot per scan.
// Implemented by *config.Store.
type Settings interface {
	Load(ctx context.Context) (config.Settings, error)
	SaveLastScanned(ctx context.Context, barcode, productName string) error
}

// StateMachine is the transaction state. Implemented by *state.Machine.
type StateMachine interface {
	Get(ctx context.Context) (state.State, error)
	Set(ctx context.Context, s state.State) error
}

// Matcher suggests a product for a free-text name.
// Implemented by *match.Matcher.
type Matcher interface {
	MatchProductByName(ctx context.Context, name string) (int64, bool, error)
}

// DescriptiveLookup names barcodes the catalog does not know.
// Implemented by *lookup.Client.
type DescriptiveLookup interface {
	LookupDescriptiveName(ctx context.Context, barcode string) (string, bool, error)
}

// Publisher pushes scan outcomes to displays. Implemented by *notify.Hub.
type Publisher interface {
	Publish(msg notify.Message) error
}

// Deps are the collaborators of a Processor. Lookup and Publisher may be nil.
type Deps struct {
	Store     Store
	Settings  Settings
	State     StateMachine
	Catalog   catalog.Client
	Matcher   Matcher
	Lookup    DescriptiveLookup
	Publisher Publisher
	Logger    *slog.Logger

	// NewID generates outcome ids. Nil uses UUIDv7.
	NewID func() string
}

// Processor runs the scan pipeline.
type Processor struct {
	store     Store
	settings  Settings
	state     StateMachine
	catalog   catalog.Client
	matcher   Matcher
	lookup    DescriptiveLookup
	publisher Publisher
	logger    *slog.Logger
	newID     func() string

	// mu serializes scans so the pending multiplier is read and cleared by
	// one scan at a time.
	mu sync.Mutex
}

// New creates a Processor.
func New(d Deps) *Processor {
	p := &Processor{
		store:     d.Store,
		settings:  d.Settings,
		state:     d.State,
		catalog:   d.Catalog,
		matcher:   d.Matcher,
		lookup:    d.Lookup,
		publisher: d.Publisher,
		logger:    d.Logger,
		newID:     d.NewID,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if p.newID == nil {
		p.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	return p
}

// ProcessScan handles one scan. The returned Outcome is always populated;
// when err is non-nil the Outcome has KindFailed and err carries the typed
// cause (a *catalog.Error for remote failures).
func (p *Processor) ProcessScan(ctx context.Context, barcode string) (Outcome, error) {
	barcode = strings.TrimSpace(barcode)
	out := Outcome{ID: p.newID(), Barcode: barcode}

	p.mu.Lock()
	out, err := p.process(ctx, out)
	p.mu.Unlock()
	if err != nil {
		p.logger.Warn("scan failed", "id", out.ID, "barcode", barcode, "kind", out.Kind, "error", err)
	} else {
		p.logger.Info("scan processed", "id", out.ID, "barcode", barcode, "kind", out.Kind)
	}

	if p.publisher != nil {
		if perr := p.publisher.Publish(notify.Message{Event: notify.EventScan, Data: out}); perr != nil {
			p.logger.Warn("scan broadcast failed", "id", out.ID, "error", perr)
		}
	}
	return out, err
}

func (p *Processor) process(ctx context.Context, out Outcome) (Outcome, error) {
	if out.Barcode == "" {
		out.Message = "Empty barcode ignored"
		out.fail(ErrCodeValidation, ErrEmptyBarcode)
		return out, ErrEmptyBarcode
	}

	cfg, err := p.settings.Load(ctx)
	if err != nil {
		return p.storageFailure(ctx, out, fmt.Errorf("load settings: %w", err))
	}

	if done, err := p.checkChore(ctx, &out); done || err != nil {
		return out, err
	}
	if done, err := p.checkMode(ctx, cfg, &out); done || err != nil {
		return out, err
	}
	if done, err := p.checkQuantity(ctx, cfg, &out); done || err != nil {
		return out, err
	}

	action, err := p.state.Get(ctx)
	if err != nil {
		return p.storageFailure(ctx, out, err)
	}
	out.Action = action.String()

	product, found, err := p.catalog.GetProductByBarcode(ctx, out.Barcode)
	if err != nil {
		out.Message = fmt.Sprintf("Error looking up barcode %s: %v", out.Barcode, err)
		out.fail(string(catalog.CodeOf(err)), err)
		p.finish(ctx, &out, "", false)
		return out, fmt.Errorf("resolve barcode: %w", err)
	}
	if !found {
		return p.unresolved(ctx, out)
	}
	return p.apply(ctx, cfg, action, product, out)
}

// checkChore executes the chore bound to the barcode, if any. Chore barcodes
// win over every other interpretation.
func (p *Processor) checkChore(ctx context.Context, out *Outcome) (bool, error) {
	choreID, ok, err := p.store.LookupChoreBarcode(ctx, out.Barcode)
	if err != nil {
		*out, err = p.storageFailure(ctx, *out, err)
		return true, err
	}
	if !ok {
		return false, nil
	}

	out.ChoreID = choreID
	if err := p.catalog.ExecuteChore(ctx, choreID); err != nil {
		out.Message = fmt.Sprintf("Failed to execute chore %d: %v", choreID, err)
		out.fail(string(catalog.CodeOf(err)), err)
		p.finish(ctx, out, "", false)
		return true, fmt.Errorf("execute chore %d: %w", choreID, err)
	}

	out.Kind = KindChoreExecuted
	out.Message = fmt.Sprintf("Executed chore %d", choreID)
	p.finish(ctx, out, "", false)
	return true, nil
}

// checkMode switches the transaction state when the barcode is one of the
// configured mode barcodes. Comparison ignores case.
func (p *Processor) checkMode(ctx context.Context, cfg config.Settings, out *Outcome) (bool, error) {
	modes := []struct {
		barcode string
		state   state.State
	}{
		{cfg.BarcodeConsume, state.Consume},
		{cfg.BarcodeConsumeSpoiled, state.ConsumeSpoiled},
		{cfg.BarcodePurchase, state.Purchase},
		{cfg.BarcodeOpen, state.Open},
		{cfg.BarcodeGetStock, state.GetStock},
		{cfg.BarcodeShoppingList, state.AddToShoppingList},
	}

	for _, m := range modes {
		if m.barcode == "" || !strings.EqualFold(m.barcode, out.Barcode) {
			continue
		}
		if err := p.state.Set(ctx, m.state); err != nil {
			*out, err = p.storageFailure(ctx, *out, err)
			return true, err
		}
		out.Kind = KindStateChanged
		out.State = m.state.String()
		out.Message = fmt.Sprintf("Set state to %s", m.state)
		p.log(ctx, out.Message, true)
		return true, nil
	}
	return false, nil
}

// checkQuantity stores the multiplier for the next stock action when the
// barcode carries the quantity prefix or is a registered quantity barcode.
func (p *Processor) checkQuantity(ctx context.Context, cfg config.Settings, out *Outcome) (bool, error) {
	var multiplier int64
	prefix := cfg.QuantityPrefix

	switch {
	case prefix != "" && len(out.Barcode) >= len(prefix) && strings.EqualFold(out.Barcode[:len(prefix)], prefix):
		suffix := out.Barcode[len(prefix):]
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil || n < 1 {
			verr := &config.ValidationError{Key: config.KeyBarcodeQuantityPrefix, Value: out.Barcode, Reason: "quantity must be a positive integer"}
			out.Message = fmt.Sprintf("Invalid quantity barcode %s", out.Barcode)
			out.fail(ErrCodeValidation, verr)
			p.log(ctx, out.Message, false)
			return true, verr
		}
		multiplier = n

	default:
		registered, err := p.store.IsQuantityBarcode(ctx, out.Barcode)
		if err != nil {
			*out, err = p.storageFailure(ctx, *out, err)
			return true, err
		}
		if !registered {
			return false, nil
		}
		multiplier, err = p.store.LookupQuantityBarcode(ctx, out.Barcode)
		if err != nil {
			*out, err = p.storageFailure(ctx, *out, err)
			return true, err
		}
	}

	if err := p.store.SetPendingQuantity(ctx, multiplier, out.Barcode); err != nil {
		*out, err = p.storageFailure(ctx, *out, err)
		return true, err
	}
	out.Kind = KindQuantitySet
	out.Multiplier = multiplier
	out.Message = fmt.Sprintf("Set quantity to %d for next scan", multiplier)
	p.log(ctx, out.Message, true)
	return true, nil
}

// unresolved records a barcode the catalog does not know.
func (p *Processor) unresolved(ctx context.Context, out Outcome) (Outcome, error) {
	name := p.describe(ctx, out.Barcode)

	cacheName := name
	if cacheName == "" {
		cacheName = store.UnresolvedName
	}
	if err := p.recordUnknown(ctx, out.Barcode, cacheName); err != nil {
		return p.storageFailure(ctx, out, err)
	}

	matchInput := name
	if matchInput == "" {
		matchInput = out.Barcode
	}
	suggestion, ok, err := p.matcher.MatchProductByName(ctx, matchInput)
	if err != nil {
		return p.storageFailure(ctx, out, err)
	}
	if !ok {
		suggestion = 0
	}
	if err := p.store.UpdatePossibleMatch(ctx, out.Barcode, suggestion); err != nil {
		return p.storageFailure(ctx, out, err)
	}

	out.Kind = KindUnresolved
	out.DescriptiveName = name
	out.SuggestedProductID = suggestion
	if name != "" {
		out.Message = fmt.Sprintf("Unknown barcode %s looked up, found name: %s", out.Barcode, name)
	} else {
		out.Message = fmt.Sprintf("Unknown barcode %s could not be looked up", out.Barcode)
	}
	p.finish(ctx, &out, name, false)
	return out, nil
}

// describe asks the descriptive lookup for a label. Failures are logged and
// read as no label.
func (p *Processor) describe(ctx context.Context, barcode string) string {
	if p.lookup == nil {
		return ""
	}
	name, ok, err := p.lookup.LookupDescriptiveName(ctx, barcode)
	if err != nil {
		p.logger.Warn("descriptive lookup failed", "barcode", barcode, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return name
}

func (p *Processor) recordUnknown(ctx context.Context, barcode, name string) error {
	cached, err := p.store.HasBarcode(ctx, barcode)
	if err != nil {
		return err
	}
	if cached {
		return p.store.IncrementUnknownAmount(ctx, barcode, 1)
	}

	err = p.store.UpsertUnknownBarcode(ctx, barcode, 1, name, 0)
	if errors.Is(err, store.ErrDuplicateKey) {
		// A concurrent scan inserted it first.
		return p.store.IncrementUnknownAmount(ctx, barcode, 1)
	}
	return err
}

// apply performs the current action on a resolved product.
func (p *Processor) apply(ctx context.Context, cfg config.Settings, action state.State, product catalog.StockProduct, out Outcome) (Outcome, error) {
	multiplier, source, err := p.store.PendingQuantity(ctx)
	if err != nil {
		return p.storageFailure(ctx, out, err)
	}
	if multiplier < 1 {
		multiplier = 1
	}

	out.ProductID = product.ID
	out.ProductName = product.Name
	out.Unit = product.Unit
	out.StockAmount = product.StockAmount
	out.Multiplier = multiplier
	amount := multiplier

	var actionErr error
	switch action {
	case state.Consume, state.ConsumeSpoiled:
		spoiled := action == state.ConsumeSpoiled
		actionErr = p.catalog.Consume(ctx, product.ID, amount, spoiled)
		verb := "Consuming"
		if spoiled {
			verb = "Consuming spoiled"
		}
		out.Message = fmt.Sprintf("Product found. %s %d %s of %s. In stock: %s %s",
			verb, amount, product.Unit, product.Name, product.StockAmount, product.Unit)

	case state.Purchase:
		var res catalog.PurchaseResult
		res, actionErr = p.catalog.Purchase(ctx, product.ID, amount, catalog.PurchaseOptions{})
		out.BestBeforeDate = res.BestBeforeDate
		out.Message = fmt.Sprintf("Product found. Adding %d %s of %s. In stock: %s %s",
			amount, product.Unit, product.Name, product.StockAmount, product.Unit)
		if actionErr == nil && !res.BestBeforeKnown {
			out.Message += ". No default best before date set"
		}

	case state.Open:
		actionErr = p.catalog.OpenProduct(ctx, product.ID, amount)
		out.Message = fmt.Sprintf("Product found. Opening %d %s of %s. In stock: %s %s",
			amount, product.Unit, product.Name, product.StockAmount, product.Unit)

	case state.GetStock:
		out.Message = fmt.Sprintf("Product found. %s in stock: %s %s",
			product.Name, product.StockAmount, product.Unit)

	case state.AddToShoppingList:
		actionErr = p.catalog.AddToShoppingList(ctx, product.ID, amount)
		out.Message = fmt.Sprintf("Product found. Adding %d %s of %s to the shopping list",
			amount, product.Unit, product.Name)

	default:
		actionErr = fmt.Errorf("unknown action %d", int(action))
	}

	if actionErr != nil {
		out.Message = fmt.Sprintf("Failed to %s %s: %v", action, product.Name, actionErr)
		out.fail(string(catalog.CodeOf(actionErr)), actionErr)
		p.finish(ctx, &out, product.Name, false)
		return out, fmt.Errorf("%s product %d: %w", action, product.ID, actionErr)
	}

	if action == state.Purchase && cfg.ShoppingListRemove {
		if err := p.catalog.RemoveFromShoppingList(ctx, product.ID, amount); err != nil {
			out.Warning = fmt.Sprintf("remove from shopping list: %v", err)
			p.logger.Warn("shopping list removal failed", "product_id", product.ID, "error", err)
		}
	}

	if action != state.GetStock {
		out.Amount = amount
	}
	if err := p.consumeMultiplier(ctx, source, product.Name); err != nil {
		return p.storageFailure(ctx, out, err)
	}

	out.Kind = KindActionApplied
	// Consume is already the resting state.
	p.finish(ctx, &out, product.Name, cfg.RevertSingle && action != state.Consume)
	return out, nil
}

// consumeMultiplier resets the pending multiplier after any successful
// stock action, stock queries included.
func (p *Processor) consumeMultiplier(ctx context.Context, source, productName string) error {
	if err := p.store.ClearPendingQuantity(ctx); err != nil {
		return err
	}
	if source == "" {
		return nil
	}
	return p.store.RefreshQuantityProductName(ctx, source, productName)
}

// finish runs the trailing steps every stock or chore outcome shares: the
// revert after a single scan, the last-scanned display fields, and the log.
func (p *Processor) finish(ctx context.Context, out *Outcome, productName string, revert bool) {
	if revert {
		if err := p.state.Set(ctx, state.Consume); err != nil {
			p.logger.Warn("revert after single scan failed", "error", err)
		} else {
			out.Reverted = true
		}
	}
	if err := p.settings.SaveLastScanned(ctx, out.Barcode, productName); err != nil {
		p.logger.Warn("save last scanned failed", "barcode", out.Barcode, "error", err)
	}
	p.log(ctx, out.Message, false)
}

func (p *Processor) log(ctx context.Context, message string, verboseOnly bool) {
	if err := p.store.AppendLog(ctx, message, verboseOnly); err != nil {
		p.logger.Warn("append scan log failed", "error", err)
	}
}

// storageFailure fails the scan on a local store error. The last-scanned
// fields and the log are still written on a best-effort basis.
func (p *Processor) storageFailure(ctx context.Context, out Outcome, err error) (Outcome, error) {
	out.Message = fmt.Sprintf("Storage error processing %s: %v", out.Barcode, err)
	out.fail(ErrCodeStorage, err)
	p.finish(ctx, &out, out.ProductName, false)
	return out, fmt.Errorf("process scan: %w", err)
}
