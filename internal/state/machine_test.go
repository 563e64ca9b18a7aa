package state

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barcodebuddy/internal/store"
	"github.com/roach88/barcodebuddy/internal/testutil"
)

type fixedTimeout time.Duration

func (f fixedTimeout) RevertTimeout(context.Context) (time.Duration, error) {
	return time.Duration(f), nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	states []State
	err    error
}

func (r *recordingBroadcaster) BroadcastStateChange(s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
	return r.err
}

func (r *recordingBroadcaster) sent() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newTestMachine(t *testing.T) (*Machine, *testutil.FakeClock, *recordingBroadcaster) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewFakeClock()
	b := &recordingBroadcaster{}
	m := New(st, fixedTimeout(10*time.Minute), b, clock, nil)
	require.NoError(t, m.Init(context.Background()))
	return m, clock, b
}

func TestMachine_DefaultsToConsume(t *testing.T) {
	m, _, _ := newTestMachine(t)

	s, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Consume, s)
}

func TestMachine_RevertAfterTimeout(t *testing.T) {
	m, clock, _ := newTestMachine(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, Purchase))
	t0 := clock.Now()

	clock.Advance(5 * time.Minute)
	s, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Purchase, s)

	clock.Advance(6 * time.Minute)
	s, err = m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Consume, s)

	since, err := m.Since(ctx)
	require.NoError(t, err)
	assert.True(t, since.Equal(t0.Add(11*time.Minute)), "revert resets since")
}

func TestMachine_ExactTimeoutDoesNotRevert(t *testing.T) {
	m, clock, _ := newTestMachine(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, Open))
	clock.Advance(10 * time.Minute)

	s, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Open, s, "revert requires elapsed > timeout")
}

func TestMachine_ConsumeIsFixedPoint(t *testing.T) {
	m, clock, b := newTestMachine(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, Consume))
	clock.Advance(24 * time.Hour)

	s, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Consume, s)
	assert.Equal(t, []State{Consume}, b.sent(), "no implicit revert broadcast for Consume")
}

func TestMachine_AllStatesMutuallyReachable(t *testing.T) {
	m, _, _ := newTestMachine(t)
	ctx := context.Background()

	for _, from := range All() {
		for _, to := range All() {
			require.NoError(t, m.Set(ctx, from))
			require.NoError(t, m.Set(ctx, to))
			s, err := m.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, to, s, "%s -> %s", from, to)
		}
	}
}

func TestMachine_BroadcastsTransitions(t *testing.T) {
	m, clock, b := newTestMachine(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, GetStock))
	clock.Advance(30 * time.Minute)
	_, err := m.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, []State{GetStock, Consume}, b.sent())
}

func TestMachine_BroadcastFailureDoesNotFailSet(t *testing.T) {
	m, _, b := newTestMachine(t)
	b.err = errors.New("display offline")

	require.NoError(t, m.Set(context.Background(), Purchase))
	s, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Purchase, s)
}

func TestMachine_SetRejectsInvalidState(t *testing.T) {
	m, _, _ := newTestMachine(t)
	assert.Error(t, m.Set(context.Background(), State(42)))
}

func TestMachine_ConcurrentGetRevertsOnce(t *testing.T) {
	m, clock, b := newTestMachine(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, Purchase))
	clock.Advance(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Get(ctx)
			assert.NoError(t, err)
			assert.Equal(t, Consume, s)
		}()
	}
	wg.Wait()

	assert.Equal(t, []State{Purchase, Consume}, b.sent(), "exactly one revert")
}

func TestMachine_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewFakeClock()
	ctx := context.Background()

	st1, err := store.Open(path)
	require.NoError(t, err)
	m1 := New(st1, fixedTimeout(10*time.Minute), nil, clock, nil)
	require.NoError(t, m1.Init(ctx))
	require.NoError(t, m1.Set(ctx, AddToShoppingList))
	st1.Close()

	st2, err := store.Open(path)
	require.NoError(t, err)
	defer st2.Close()
	m2 := New(st2, fixedTimeout(10*time.Minute), nil, clock, nil)
	require.NoError(t, m2.Init(ctx))

	s, err := m2.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, AddToShoppingList, s)
}
