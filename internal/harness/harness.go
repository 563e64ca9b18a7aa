package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/config"
	"github.com/roach88/barcodebuddy/internal/match"
	"github.com/roach88/barcodebuddy/internal/scan"
	"github.com/roach88/barcodebuddy/internal/state"
	"github.com/roach88/barcodebuddy/internal/store"
	"github.com/roach88/barcodebuddy/internal/testutil"
)

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store     *store.Store
	config    *config.Store
	machine   *state.Machine
	catalog   *testutil.FakeCatalog
	clock     *testutil.FakeClock
	processor *scan.Processor
}

// mapLookup answers descriptive lookups from the scenario setup.
type mapLookup map[string]string

func (m mapLookup) LookupDescriptiveName(_ context.Context, barcode string) (string, bool, error) {
	name, ok := m[barcode]
	return name, ok, nil
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Scan failures are part of the trace, not errors; Run only fails when the
// scenario itself cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	h, err := newHarness(ctx, st, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to set up scenario: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store:   st,
		Config:  h.config,
		Catalog: h.catalog,
		Ctx:     ctx,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	clock := testutil.NewFakeClock()
	st.SetClock(clock.Now)

	cfg := config.New(st)
	if err := cfg.Init(ctx); err != nil {
		return nil, err
	}
	if len(scenario.Settings) > 0 {
		if err := cfg.UpdateMany(ctx, scenario.Settings); err != nil {
			return nil, err
		}
	}

	machine := state.New(st, cfg, nil, clock, nil)
	if err := machine.Init(ctx); err != nil {
		return nil, err
	}

	cat := testutil.NewFakeCatalog()
	cat.SetClock(clock.Now)
	for _, p := range scenario.Catalog.Products {
		cat.AddProduct(testutil.FakeProduct{
			Product: catalog.Product{
				ID:                    p.ID,
				Name:                  p.Name,
				Barcodes:              p.Barcodes,
				DefaultBestBeforeDays: p.DefaultBestBeforeDays,
			},
			Stock: p.Stock,
			Unit:  p.Unit,
		})
	}
	for _, c := range scenario.Catalog.Chores {
		cat.AddChore(c)
	}

	matcher := match.New(st)
	for _, tag := range scenario.Setup.Tags {
		if _, err := matcher.AddTag(ctx, tag.Word, tag.ProductID); err != nil {
			return nil, err
		}
	}
	for _, cb := range scenario.Setup.ChoreBarcodes {
		if err := st.UpsertChoreBarcode(ctx, cb.ChoreID, cb.Barcode); err != nil {
			return nil, err
		}
	}
	for _, q := range scenario.Setup.Quantities {
		if err := st.UpsertQuantityBarcode(ctx, q.Barcode, q.Multiplier, ""); err != nil {
			return nil, err
		}
	}

	proc := scan.New(scan.Deps{
		Store:    st,
		Settings: cfg,
		State:    machine,
		Catalog:  cat,
		Matcher:  matcher,
		Lookup:   mapLookup(scenario.Setup.Lookup),
		NewID:    testutil.NewSequentialIDs("scan").Generate,
	})

	return &Harness{
		store:     st,
		config:    cfg,
		machine:   machine,
		catalog:   cat,
		clock:     clock,
		processor: proc,
	}, nil
}

func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("flow[%d]: %w", i, err)
			}
			h.clock.Advance(d)
		}
		if step.Fail != nil {
			h.catalog.Fail(step.Fail.Op, catalog.NewError(catalog.ErrorCode(step.Fail.Code), step.Fail.Op, step.Fail.Message, nil))
		}

		before := len(h.catalog.Calls())
		outcome, _ := h.processor.ProcessScan(ctx, step.Scan)

		if step.Fail != nil {
			h.catalog.Fail(step.Fail.Op, nil)
		}

		calls := h.catalog.Calls()[before:]
		event := TraceEvent{
			Seq:     i + 1,
			Barcode: step.Scan,
			Advance: step.Advance,
			Outcome: outcome,
			State:   h.persistedState(ctx),
		}
		for _, c := range calls {
			event.Calls = append(event.Calls, c.String())
		}
		result.Trace = append(result.Trace, event)

		if step.Expect != nil {
			for _, msg := range checkExpect(i, step.Expect, outcome) {
				result.AddError(msg)
			}
		}
	}
	return nil
}

// persistedState reads the stored state without triggering a revert.
func (h *Harness) persistedState(ctx context.Context) string {
	row, ok, err := h.store.ReadTransactionState(ctx)
	if err != nil || !ok {
		return state.Consume.String()
	}
	return state.State(row.State).String()
}

func checkExpect(index int, want *ExpectClause, got scan.Outcome) []string {
	var errs []string
	mismatch := func(field string, w, g any) {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected %s %v, got %v", index, field, w, g))
	}

	if want.Kind != string(got.Kind) {
		mismatch("kind", want.Kind, got.Kind)
	}
	if want.Action != "" && want.Action != got.Action {
		mismatch("action", want.Action, got.Action)
	}
	if want.State != "" && want.State != got.State {
		mismatch("state", want.State, got.State)
	}
	if want.ChoreID != 0 && want.ChoreID != got.ChoreID {
		mismatch("chore_id", want.ChoreID, got.ChoreID)
	}
	if want.ProductID != 0 && want.ProductID != got.ProductID {
		mismatch("product_id", want.ProductID, got.ProductID)
	}
	if want.Amount != 0 && want.Amount != got.Amount {
		mismatch("amount", want.Amount, got.Amount)
	}
	if want.Multiplier != 0 && want.Multiplier != got.Multiplier {
		mismatch("multiplier", want.Multiplier, got.Multiplier)
	}
	if want.SuggestedProductID != 0 && want.SuggestedProductID != got.SuggestedProductID {
		mismatch("suggested_product_id", want.SuggestedProductID, got.SuggestedProductID)
	}
	if want.ErrorCode != "" && want.ErrorCode != got.ErrorCode {
		mismatch("error_code", want.ErrorCode, got.ErrorCode)
	}
	if want.Reverted != nil && *want.Reverted != got.Reverted {
		mismatch("reverted", *want.Reverted, got.Reverted)
	}
	return errs
}
