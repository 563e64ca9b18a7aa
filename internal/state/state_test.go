package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range All() {
		parsed, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestParse_Lenient(t *testing.T) {
	s, err := Parse(" Consume-Spoiled ")
	require.NoError(t, err)
	assert.Equal(t, ConsumeSpoiled, s)

	_, err = Parse("teleport")
	assert.Error(t, err)
}

func TestState_PersistedValues(t *testing.T) {
	// Values are stored in the database.
	assert.Equal(t, 0, int(Consume))
	assert.Equal(t, 1, int(ConsumeSpoiled))
	assert.Equal(t, 2, int(Purchase))
	assert.Equal(t, 3, int(Open))
	assert.Equal(t, 4, int(GetStock))
	assert.Equal(t, 5, int(AddToShoppingList))
}

func TestState_MarshalText(t *testing.T) {
	b, err := GetStock.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "get_stock", string(b))

	_, err = State(9).MarshalText()
	assert.Error(t, err)
}
