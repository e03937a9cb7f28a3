package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/ibsim/gateway/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ibsim.db")
	s, err := Open(path, []store.AccountSeed{
		{AccountID: "DU000001", Username: "demo", Password: "demo123", AccountType: "PAPER", BaseCurrency: "USD", InitialBalance: 500_000},
	}, []string{"NVDA"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltAccountSeeded(t *testing.T) {
	s := newTestStore(t)
	summary, ok, err := s.GetAccountSummary("DU000001")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 500_000.0, summary.NetLiquidation)
}

func TestBoltContractSeeded(t *testing.T) {
	s := newTestStore(t)
	c, ok, err := s.GetContractBySymbol("NVDA", "STK")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1000), c.ConID)
}

func TestBoltOrderLifecycle(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateOrder(store.Order{OrderID: 42, AccountID: "DU000001", Status: "PendingSubmit"}))

	orders, err := s.GetOpenOrders("DU000001")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.NoError(t, s.UpdateOrderStatus(42, "Cancelled", 0, 0, 0))
	orders, err = s.GetOpenOrders("DU000001")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestBoltReopenPersistsAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ibsim.db")
	seeds := []store.AccountSeed{{AccountID: "DU000002", Username: "a", Password: "b", BaseCurrency: "USD", InitialBalance: 1}}

	s1, err := Open(path, seeds, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, seeds, nil)
	require.NoError(t, err)
	defer s2.Close()

	summary, ok, err := s2.GetAccountSummary("DU000002")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1.0, summary.NetLiquidation)
}

func TestBoltAuthenticate(t *testing.T) {
	s := newTestStore(t)
	id, ok := s.Authenticate("demo", "demo123")
	require.True(t, ok)
	require.Equal(t, "DU000001", id)
}
