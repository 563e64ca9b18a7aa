// Package state implements the transaction state machine: the remembered
// meaning of the next product scan.
//
// Non-default states revert to Consume after a configured timeout. The check
// is lazy: there is no timer, and the revert happens inside Get, so state is
// only ever as stale as the interval between two reads. Callers that need the
// current action must always go through Get.
package state

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/roach88/barcodebuddy/internal/store"
)

// Store persists the single transaction state row.
// Implemented by *store.Store.
type Store interface {
	ReadTransactionState(ctx context.Context) (store.TransactionRow, bool, error)
	WriteTransactionState(ctx context.Context, row store.TransactionRow) error
	InitTransactionState(ctx context.Context, row store.TransactionRow) error
}

// TimeoutSource supplies the revert timeout, read fresh on every Get.
// Implemented by *config.Store.
type TimeoutSource interface {
	RevertTimeout(ctx context.Context) (time.Duration, error)
}

// Broadcaster announces state changes to connected displays.
// Delivery is best effort; errors are logged and never fail a transition.
type Broadcaster interface {
	BroadcastStateChange(s State) error
}

// Machine holds the current transaction state.
//
// Thread-safety: every read-check-revert and every write happens under one
// mutex, so two concurrent scans cannot both revert and report stale state.
type Machine struct {
	mu          sync.Mutex
	store       Store
	timeouts    TimeoutSource
	broadcaster Broadcaster
	clock       Clock
	logger      *slog.Logger
}

// New creates a Machine. A nil clock uses SystemClock; a nil logger discards.
func New(st Store, timeouts TimeoutSource, broadcaster Broadcaster, clock Clock, logger *slog.Logger) *Machine {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Machine{
		store:       st,
		timeouts:    timeouts,
		broadcaster: broadcaster,
		clock:       clock,
		logger:      logger,
	}
}

// Init persists Consume as the first-boot state. Existing state is kept.
func (m *Machine) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := store.TransactionRow{State: int(Consume), Since: m.clock.Now()}
	if err := m.store.InitTransactionState(ctx, row); err != nil {
		return fmt.Errorf("init state: %w", err)
	}
	return nil
}

// Set makes s the current state as of now and broadcasts it.
// Every state is reachable from every other state.
func (m *Machine) Set(ctx context.Context, s State) error {
	if !s.Valid() {
		return fmt.Errorf("set state: invalid state %d", int(s))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(ctx, s)
}

// Get returns the current state, reverting to Consume first if a non-default
// state has been current for longer than the revert timeout.
func (m *Machine) Get(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok, err := m.store.ReadTransactionState(ctx)
	if err != nil {
		return Consume, fmt.Errorf("get state: %w", err)
	}
	current := State(row.State)
	if !ok || current == Consume {
		return Consume, nil
	}

	timeout, err := m.timeouts.RevertTimeout(ctx)
	if err != nil {
		return current, fmt.Errorf("get state: %w", err)
	}

	elapsed := m.clock.Now().Sub(row.Since)
	elapsedMinutes := math.Round(math.Abs(elapsed.Minutes()))
	if elapsedMinutes > timeout.Minutes() {
		m.logger.Debug("reverting transaction state",
			"from", current, "elapsed_minutes", elapsedMinutes, "timeout", timeout)
		if err := m.setLocked(ctx, Consume); err != nil {
			return current, fmt.Errorf("get state: revert: %w", err)
		}
		return Consume, nil
	}
	return current, nil
}

// Since returns when the persisted state last changed.
func (m *Machine) Since(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, _, err := m.store.ReadTransactionState(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("state since: %w", err)
	}
	return row.Since, nil
}

func (m *Machine) setLocked(ctx context.Context, s State) error {
	row := store.TransactionRow{State: int(s), Since: m.clock.Now()}
	if err := m.store.WriteTransactionState(ctx, row); err != nil {
		return fmt.Errorf("set state: %w", err)
	}

	if m.broadcaster != nil {
		if err := m.broadcaster.BroadcastStateChange(s); err != nil {
			m.logger.Warn("state broadcast failed", "state", s, "error", err)
		}
	}
	return nil
}
