package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolIndexClientsForOrdersByClientID(t *testing.T) {
	idx := newSymbolIndex()
	idx.subscribe("NVDA", 5)
	idx.subscribe("NVDA", 2)
	idx.subscribe("NVDA", 9)
	idx.subscribe("AAPL", 1)

	require.Equal(t, []int64{2, 5, 9}, idx.clientsFor("NVDA"))
	require.Equal(t, []int64{1}, idx.clientsFor("AAPL"))
	require.Empty(t, idx.clientsFor("MSFT"))
}

func TestSymbolIndexUnsubscribeRemovesOnlyThatEntry(t *testing.T) {
	idx := newSymbolIndex()
	idx.subscribe("NVDA", 1)
	idx.subscribe("NVDA", 2)

	idx.unsubscribe("NVDA", 1)
	require.Equal(t, []int64{2}, idx.clientsFor("NVDA"))

	idx.unsubscribe("NVDA", 1) // already gone; must be a no-op
	require.Equal(t, []int64{2}, idx.clientsFor("NVDA"))
}

func TestSymbolIndexRemoveClientDropsAllItsSymbols(t *testing.T) {
	idx := newSymbolIndex()
	idx.subscribe("NVDA", 7)
	idx.subscribe("AAPL", 7)
	idx.subscribe("AAPL", 8)

	idx.removeClient(7, []string{"NVDA", "AAPL"})

	require.Empty(t, idx.clientsFor("NVDA"))
	require.Equal(t, []int64{8}, idx.clientsFor("AAPL"))
}

func TestSymbolIndexSubscribeIsIdempotent(t *testing.T) {
	idx := newSymbolIndex()
	idx.subscribe("NVDA", 1)
	idx.subscribe("NVDA", 1)
	require.Equal(t, []int64{1}, idx.clientsFor("NVDA"))
}
