package gateway

import (
	"testing"

	"github.com/ibsim/gateway/internal/ibproto"
	"github.com/stretchr/testify/require"
)

func TestReserveRejectsOverMaxClients(t *testing.T) {
	reg := NewRegistry(2, nil)

	id1, ok := reg.Reserve()
	require.True(t, ok)
	id2, ok := reg.Reserve()
	require.True(t, ok)
	require.NotEqual(t, id1, id2)

	_, ok = reg.Reserve()
	require.False(t, ok, "third reservation must be rejected at max_clients=2")
}

func TestBroadcastOnlyReachesSubscribedSessions(t *testing.T) {
	reg := NewRegistry(10, nil)

	var delivered []string
	id, ok := reg.Reserve()
	require.True(t, ok)
	reg.Register(&Session{
		ClientID:       id,
		IsSubscribedTo: func(symbol string) bool { return symbol == "NVDA" },
		Deliver:        func(symbol string, _ BroadcastTicks) { delivered = append(delivered, symbol) },
	})
	reg.SubscribeSymbol("NVDA", id)

	otherID, ok := reg.Reserve()
	require.True(t, ok)
	reg.Register(&Session{
		ClientID:       otherID,
		IsSubscribedTo: func(symbol string) bool { return false },
		Deliver:        func(symbol string, _ BroadcastTicks) { t.Fatalf("unsubscribed session must not be delivered to") },
	})

	reg.Broadcast("NVDA", BroadcastTicks{Last: ibproto.F64(100)})
	reg.Broadcast("AAPL", BroadcastTicks{Last: ibproto.F64(50)})

	require.Equal(t, []string{"NVDA"}, delivered)
}

func TestUnsubscribeSymbolRemovesFromIndex(t *testing.T) {
	reg := NewRegistry(10, nil)
	var count int

	id, ok := reg.Reserve()
	require.True(t, ok)
	reg.Register(&Session{
		ClientID:       id,
		IsSubscribedTo: func(string) bool { return true },
		Deliver:        func(string, BroadcastTicks) { count++ },
	})
	reg.SubscribeSymbol("NVDA", id)
	reg.Broadcast("NVDA", BroadcastTicks{Last: ibproto.F64(1)})
	require.Equal(t, 1, count)

	reg.UnsubscribeSymbol("NVDA", id)
	reg.Broadcast("NVDA", BroadcastTicks{Last: ibproto.F64(2)})
	require.Equal(t, 1, count, "broadcast after unsubscribe must not be delivered")
}

func TestNextOrderIDMonotonic(t *testing.T) {
	reg := NewRegistry(10, nil)
	a := reg.NextOrderID()
	b := reg.NextOrderID()
	require.Greater(t, b, a)
}

func TestRemoveAfterReserveWithoutRegisterFreesSlot(t *testing.T) {
	// Mirrors a failed handshake: Reserve() is called, but Register()
	// never runs because the connection never gets past the handshake.
	// Remove must still free the slot.
	reg := NewRegistry(1, nil)
	id, ok := reg.Reserve()
	require.True(t, ok)

	reg.Remove(id)
	require.Equal(t, 0, reg.ActiveClients())

	_, ok = reg.Reserve()
	require.True(t, ok, "a reserved-but-never-registered slot must still be freed by Remove")
}

func TestRemoveEvictsFromRegistry(t *testing.T) {
	reg := NewRegistry(1, nil)
	id, ok := reg.Reserve()
	require.True(t, ok)
	reg.Register(&Session{ClientID: id, IsSubscribedTo: func(string) bool { return false }})

	reg.Remove(id)
	require.Equal(t, 0, reg.ActiveClients())

	_, ok = reg.Reserve()
	require.True(t, ok, "removed session must free its max_clients slot")
}
