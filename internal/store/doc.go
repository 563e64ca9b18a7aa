// Package store provides SQLite-backed durable storage for the scan
// reconciliation cache.
//
// The store owns:
//   - Barcodes: barcodes the remote catalog did not recognize, with an
//     accumulated scan amount and an optional product suggestion
//   - Tags: words associated with products, used by the match package
//   - Chore barcodes: barcode to chore bindings
//   - Quantities: barcode to multiplier bindings, plus the single pending
//     multiplier row
//   - Settings: the raw key/value rows behind the config package
//   - Barcode logs: the append-only, user-facing scan log
//   - Transaction state: one persisted row, interpreted by the state package
//
// # Critical Patterns
//
// Known vs unknown:
//   - A cached barcode is unknown iff its name is exactly UnresolvedName
//   - ListBarcodes partitions on this alone, in insertion order
//
// Parameterized queries:
//   - Every statement binds external input as arguments
//   - Tag matching compares with = and COLLATE BINARY, never LIKE
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - MaxOpenConns=1: every mutation is serialized through one connection
package store
