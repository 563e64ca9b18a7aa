// Package harness runs scan scenarios against the real scan pipeline.
//
// A scenario seeds an in-memory catalog and a fresh in-memory store, then
// feeds a sequence of scans through scan.Processor and checks each outcome
// and the final state.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	settings:
//	  REVERT_SINGLE: "0"
//	catalog:
//	  products:
//	    - { id: 1, name: Milk, barcodes: ["4001"], stock: 5, unit: Pack }
//	  chores:
//	    - { id: 9, name: Water plants }
//	setup:
//	  tags: [{ word: milk, product_id: 1 }]
//	  chore_barcodes: [{ chore_id: 9, barcode: CHORE-9 }]
//	  quantities: [{ barcode: SIXPACK, multiplier: 6 }]
//	  lookup: { "5005": "organic milk" }
//	flow:
//	  - scan: "4001"
//	    advance: 11m
//	    fail: { op: consume, code: REJECTED, message: "out of stock" }
//	    expect: { kind: action_applied, action: consume, amount: 1 }
//	assertions:
//	  - { type: state, state: consume }
//	  - { type: cached_barcode, barcode: "5005", amount: 1 }
//
// # Assertion Types
//
//   - state: the persisted transaction state
//   - cached_barcode: a row of the unknown-barcode cache
//   - catalog_calls: every mutating catalog call, in order
//   - stock: the stock level of a catalog product
//   - shopping_list: the shopping list amount of a product
//   - pending_quantity: the multiplier waiting for the next scan
//   - last_scanned: the last-scanned display fields
//   - log_contains: some scan log entry contains a substring
//
// # Deterministic Testing
//
// Every scenario runs with testutil.FakeClock starting at testutil.Epoch and
// sequential outcome ids (scan-1, scan-2, ...), so traces are identical across
// runs and can be compared against golden files.
package harness
