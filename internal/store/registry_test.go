package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags_AddListDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.AddTag(ctx, "milk", 1)
	require.NoError(t, err)
	_, err = s.AddTag(ctx, "organic", 2)
	require.NoError(t, err)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "milk", tags[0].Word)

	require.NoError(t, s.DeleteTag(ctx, id))
	assert.ErrorIs(t, s.DeleteTag(ctx, id), ErrNotFound)

	exists, err := s.TagExists(ctx, "milk")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMatchAnyTag_CaseSensitiveOldestWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.AddTag(ctx, "Milk", 1)
	require.NoError(t, err)
	_, err = s.AddTag(ctx, "milk", 2)
	require.NoError(t, err)
	_, err = s.AddTag(ctx, "milk", 3)
	require.NoError(t, err)

	id, ok, err := s.MatchAnyTag(ctx, []string{"milk"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	_, ok, err = s.MatchAnyTag(ctx, []string{"MILK"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchAnyTag_NoWildcards(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.AddTag(ctx, "milk", 1)
	require.NoError(t, err)

	_, ok, err := s.MatchAnyTag(ctx, []string{"m%"})
	require.NoError(t, err)
	assert.False(t, ok, "input must never be interpreted as a pattern")
}

func TestMatchAnyTag_TagOrderDecides(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.AddTag(ctx, "milk", 1)
	require.NoError(t, err)
	_, err = s.AddTag(ctx, "organic", 2)
	require.NoError(t, err)

	id, ok, err := s.MatchAnyTag(ctx, []string{"organic", "milk"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	_, ok, err = s.MatchAnyTag(ctx, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChoreBarcode_UpsertReplacesPrior(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertChoreBarcode(ctx, 5, "CHORE-OLD"))
	require.NoError(t, s.UpsertChoreBarcode(ctx, 5, "CHORE-NEW"))

	_, ok, err := s.LookupChoreBarcode(ctx, "CHORE-OLD")
	require.NoError(t, err)
	assert.False(t, ok)

	id, ok, err := s.LookupChoreBarcode(ctx, "CHORE-NEW")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)

	chores, err := s.ListChoreBarcodes(ctx)
	require.NoError(t, err)
	assert.Len(t, chores, 1)
}

func TestChoreBarcode_BarcodeMovesToNewChore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertChoreBarcode(ctx, 1, "SHARED"))
	require.NoError(t, s.UpsertChoreBarcode(ctx, 2, "SHARED"))

	id, ok, err := s.LookupChoreBarcode(ctx, "SHARED")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), id)

	require.NoError(t, s.DeleteChoreBarcode(ctx, 2))
	assert.ErrorIs(t, s.DeleteChoreBarcode(ctx, 1), ErrNotFound)
}

func TestQuantityBarcode_FullReplace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertQuantityBarcode(ctx, "6PACK", 5, "Cola"))
	require.NoError(t, s.UpsertQuantityBarcode(ctx, "6PACK", 2, ""))

	m, err := s.LookupQuantityBarcode(ctx, "6PACK")
	require.NoError(t, err)
	assert.Equal(t, int64(2), m, "multiplier is replaced, never accumulated")

	quantities, err := s.ListQuantities(ctx)
	require.NoError(t, err)
	require.Len(t, quantities, 1)
	assert.Equal(t, "", quantities[0].ProductName(), "product name replaced too")
}

func TestQuantityBarcode_DefaultOne(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m, err := s.LookupQuantityBarcode(ctx, "nothing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m)

	ok, err := s.IsQuantityBarcode(ctx, "nothing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuantityBarcode_RefreshNameAndDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertQuantityBarcode(ctx, "CASE", 12, ""))
	require.NoError(t, s.RefreshQuantityProductName(ctx, "CASE", "Sparkling Water"))
	require.NoError(t, s.RefreshQuantityProductName(ctx, "unregistered", "ignored"))

	quantities, err := s.ListQuantities(ctx)
	require.NoError(t, err)
	require.Len(t, quantities, 1)
	assert.Equal(t, "Sparkling Water", quantities[0].ProductName())

	require.NoError(t, s.DeleteQuantity(ctx, quantities[0].ID))
	assert.ErrorIs(t, s.DeleteQuantity(ctx, quantities[0].ID), ErrNotFound)
}

func TestPendingQuantity_Lifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m, code, err := s.PendingQuantity(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m)
	assert.Equal(t, "", code)

	require.NoError(t, s.SetPendingQuantity(ctx, 4, "BBUDDY-Q-4"))
	require.NoError(t, s.SetPendingQuantity(ctx, 6, "BBUDDY-Q-6"))
	m, code, err = s.PendingQuantity(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), m)
	assert.Equal(t, "BBUDDY-Q-6", code)

	require.NoError(t, s.ClearPendingQuantity(ctx))
	m, _, err = s.PendingQuantity(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m)
}

func TestAppendLog_VerboseFiltering(t *testing.T) {
	s := createTestStore(t)
	s.SetClock(fixedNow())
	ctx := context.Background()

	require.NoError(t, s.PutSetting(ctx, VerboseKey, "0"))
	require.NoError(t, s.AppendLog(ctx, "always", false))
	require.NoError(t, s.AppendLog(ctx, "dropped", true))

	require.NoError(t, s.PutSetting(ctx, VerboseKey, "1"))
	require.NoError(t, s.AppendLog(ctx, "kept", true))

	logs, err := s.ListLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "kept", logs[0].Message, "newest first")
	assert.Equal(t, "always", logs[1].Message)
	assert.Equal(t, "2024-03-01T12:00:00Z", logs[1].CreatedAt)

	limited, err := s.ListLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSettings_SeedDoesNotOverwrite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSetting(ctx, "REVERT_TIME", "3"))
	require.NoError(t, s.SeedSettings(ctx, map[string]string{"REVERT_TIME": "10", "REVERT_SINGLE": "1"}))

	v, ok, err := s.Setting(ctx, "REVERT_TIME")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	all, err := s.AllSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"REVERT_TIME": "3", "REVERT_SINGLE": "1"}, all)

	_, ok, err = s.Setting(ctx, "MISSING")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionState_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, ok, err := s.ReadTransactionState(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.InitTransactionState(ctx, TransactionRow{State: 0, Since: at}))
	require.NoError(t, s.InitTransactionState(ctx, TransactionRow{State: 3, Since: at.Add(time.Hour)}))

	row, ok, err := s.ReadTransactionState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, row.State, "init never overwrites")
	assert.True(t, at.Equal(row.Since))

	require.NoError(t, s.WriteTransactionState(ctx, TransactionRow{State: 2, Since: at.Add(time.Minute)}))
	row, _, err = s.ReadTransactionState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, row.State)
	assert.True(t, at.Add(time.Minute).Equal(row.Since))
}
