package ibproto

import (
	"testing"

	"github.com/ibsim/gateway/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestTickPriceFieldOrder(t *testing.T) {
	frame := TickPrice(100, TickBidPrice, 99.99, true, false)
	kind, fields, _, ok := wire.Unframe(frame)
	require.True(t, ok)
	require.Equal(t, OutTickPrice, kind)
	require.Equal(t, []string{"100", "1", "99.99", "1", "0"}, fields)
}

func TestOrderStatusFieldOrder(t *testing.T) {
	frame := OrderStatus(42, "PendingSubmit", 0, 0, 0, 1042, 0, 0, 7, "", 0)
	_, fields, _, ok := wire.Unframe(frame)
	require.True(t, ok)
	require.Equal(t, []string{"42", "PendingSubmit", "0", "0", "0", "1042", "0", "0", "7", "", "0"}, fields)
}

func TestManagedAccountsSingleField(t *testing.T) {
	frame := ManagedAccounts("DU000001")
	kind, fields, _, ok := wire.Unframe(frame)
	require.True(t, ok)
	require.Equal(t, OutManagedAccts, kind)
	require.Equal(t, []string{"DU000001"}, fields)
}

func TestErrMsgUnknownID(t *testing.T) {
	frame := ErrMsg(-1, ErrUnknownID, "Unknown message ID: 9999")
	_, fields, _, ok := wire.Unframe(frame)
	require.True(t, ok)
	require.Equal(t, []string{"-1", "504", "Unknown message ID: 9999"}, fields)
}

func TestHistoricalDataEmpty(t *testing.T) {
	frame := HistoricalData(5, "", "", nil)
	_, fields, _, ok := wire.Unframe(frame)
	require.True(t, ok)
	require.Equal(t, []string{"5", "", "", "0"}, fields)
}
