package invoices

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.local.json")
	store := NewLocalStore(path)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	inv := Invoice{
		ID:           LocalIDPrefix + "abc",
		Number:       "INV-2026-0042",
		CustomerName: "Baltic Paints OU",
		Items: []Item{
			{Description: "Toluene 200L", Quantity: decimal.NewFromInt(3), Rate: decimal.RequireFromString("412.50"), Amount: decimal.RequireFromString("1237.50")},
		},
		TotalAmount: decimal.RequireFromString("1237.50"),
	}
	require.NoError(t, store.Add(inv))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "INV-2026-0042", loaded[0].Number)
	assert.True(t, loaded[0].Local)
	assert.True(t, loaded[0].TotalAmount.Equal(decimal.RequireFromString("1237.50")))

	require.NoError(t, store.Remove(inv.ID))
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLocalStoreToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.local.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewLocalStore(path)
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestParseItemsToleratesGarbage(t *testing.T) {
	assert.Empty(t, parseItems(nil))
	assert.Empty(t, parseItems([]byte(`"oops"`)))

	items := parseItems([]byte(`[{"description":"Acetone","quantity":"2","rate":"18.40","amount":"36.80"}]`))
	require.Len(t, items, 1)
	assert.Equal(t, "Acetone", items[0].Description)
	assert.True(t, items[0].Amount.Equal(decimal.RequireFromString("36.80")))

	// Unparseable numerics fall back to zero rather than failing the row.
	items = parseItems([]byte(`[{"description":"Acetone","quantity":"two","rate":"","amount":"x"}]`))
	require.Len(t, items, 1)
	assert.True(t, items[0].Quantity.IsZero())
	assert.True(t, items[0].Amount.IsZero())
}
