package memstore

import (
	"testing"

	"github.com/ibsim/gateway/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New([]store.AccountSeed{
		{AccountID: "DU000001", Username: "demo", Password: "demo123", AccountType: "PAPER", BaseCurrency: "USD", InitialBalance: 1_000_000},
	}, []string{"NVDA", "AAPL"})
	require.NoError(t, err)
	return s
}

func TestGetAccountSummarySeeded(t *testing.T) {
	s := newTestStore(t)
	summary, ok, err := s.GetAccountSummary("DU000001")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1_000_000.0, summary.NetLiquidation)
	require.Equal(t, "USD", summary.BaseCurrency)
}

func TestGetAccountSummaryUnknownAccount(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetAccountSummary("NOPE")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetContractBySymbolSeeded(t *testing.T) {
	s := newTestStore(t)
	c, ok, err := s.GetContractBySymbol("NVDA", "STK")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "NVDA", c.Symbol)
	require.Equal(t, "SMART", c.Exchange)
}

func TestUpdatePositionUpsert(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpdatePosition("DU000001", store.Position{ConID: 1000, Symbol: "NVDA", Position: 10}))
	require.NoError(t, s.UpdatePosition("DU000001", store.Position{ConID: 1000, Symbol: "NVDA", Position: 20}))

	positions, err := s.GetPositions("DU000001")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, 20.0, positions[0].Position)
}

func TestCreateAndUpdateOrderStatus(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateOrder(store.Order{OrderID: 1, AccountID: "DU000001", Status: "PendingSubmit"}))

	orders, err := s.GetOpenOrders("DU000001")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.NoError(t, s.UpdateOrderStatus(1, "Filled", 10, 0, 100))
	orders, err = s.GetOpenOrders("DU000001")
	require.NoError(t, err)
	require.Empty(t, orders, "filled orders must not appear as open")
}

func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	id, ok := s.Authenticate("demo", "demo123")
	require.True(t, ok)
	require.Equal(t, "DU000001", id)

	_, ok = s.Authenticate("demo", "wrong")
	require.False(t, ok)
}
