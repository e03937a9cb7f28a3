package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ibsim/gateway/internal/gateway"
	"github.com/ibsim/gateway/internal/ibproto"
	"github.com/ibsim/gateway/internal/store"
	"github.com/ibsim/gateway/internal/store/memstore"
	"github.com/ibsim/gateway/internal/wire"
	"github.com/stretchr/testify/require"
)

// harness wires one real loopback TCP connection through a Session,
// mirroring the client side of spec.md §9's scenarios. A real socket
// (rather than net.Pipe) is used deliberately: its kernel send buffer
// lets the test write several request frames back-to-back without
// the synchronous rendezvous net.Pipe would require between every
// write and a matching read on the session's single ingress/egress
// goroutine.
type harness struct {
	client net.Conn
	cancel context.CancelFunc
	buf    []byte // leftover bytes straddling frame boundaries, across recvFrame calls
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	st, err := memstore.New([]store.AccountSeed{
		{AccountID: "DU000001", Username: "demo", Password: "demo", AccountType: "PAPER", BaseCurrency: "USD", InitialBalance: 1_000_000},
	}, []string{"NVDA"})
	require.NoError(t, err)

	reg := gateway.NewRegistry(10, nil)
	cfg.DefaultAccount = "DU000001"
	srv := NewServer(st, nil, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		srv.Handle(ctx, conn, 1, reg)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	h := &harness{client: client, cancel: cancel}
	t.Cleanup(func() {
		cancel()
		client.Close()
		ln.Close()
	})
	return h
}

func (h *harness) doHandshake(t *testing.T) (serverVersion int, connTime string) {
	t.Helper()
	_, err := h.client.Write([]byte("API\x00v176\x00"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	n, err := h.client.Read(buf)
	require.NoError(t, err)

	kind, fields, consumed, ok := wire.Unframe(buf[:n])
	require.True(t, ok)
	require.Equal(t, consumed, n)
	// the handshake reply carries no kind identifier: field 0 lands in
	// what Unframe treats as "kind" and field 1 in fields[0].
	return kind, fields[0]
}

func (h *harness) send(t *testing.T, frame []byte) {
	t.Helper()
	_, err := h.client.Write(frame)
	require.NoError(t, err)
}

// recvFrame accumulates bytes until one complete frame is available,
// tolerating TCP's lack of message boundaries the same way the
// session's own ingress loop does.
func (h *harness) recvFrame(t *testing.T) (kind int, fields []string) {
	t.Helper()
	h.client.SetReadDeadline(time.Now().Add(2 * time.Second))
	tmp := make([]byte, 4096)
	for {
		kind, fields, consumed, ok := wire.Unframe(h.buf)
		if ok {
			h.buf = h.buf[consumed:]
			return kind, fields
		}
		n, err := h.client.Read(tmp)
		require.NoError(t, err)
		h.buf = append(h.buf, tmp[:n]...)
	}
}

func TestHandshakeAndStartApi(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	serverVersion, connTime := h.doHandshake(t)
	require.Equal(t, 176, serverVersion)
	require.NotEmpty(t, connTime)

	h.send(t, wire.Frame(int(ibproto.KindStartApi), []wire.Field{wire.IntV(7), wire.Str("")}))

	kind, fields := h.recvFrame(t)
	require.Equal(t, ibproto.OutNextValidId, kind)
	require.NotEmpty(t, fields)

	kind, fields = h.recvFrame(t)
	require.Equal(t, ibproto.OutManagedAccts, kind)
	require.Equal(t, []string{"DU000001"}, fields)
}

func TestUnknownKindYieldsUnknownIDError(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.doHandshake(t)

	h.send(t, wire.Frame(9999, nil))

	kind, fields := h.recvFrame(t)
	require.Equal(t, ibproto.OutErrMsg, kind)
	require.Equal(t, "504", fields[1])
}

func TestReqCurrentTime(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.doHandshake(t)

	h.send(t, wire.Frame(int(ibproto.KindReqCurrentTime), nil))

	kind, fields := h.recvFrame(t)
	require.Equal(t, ibproto.OutCurrentTime, kind)
	require.Len(t, fields, 1)
}

func TestReqMktDataInitialBurst(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.doHandshake(t)

	h.send(t, wire.Frame(int(ibproto.KindReqMktData), []wire.Field{
		wire.IntV(100), wire.IntV(0), wire.Str("NVDA"), wire.Str("STK"),
		wire.Str(""), wire.Str(""), wire.Str(""), wire.Str(""),
		wire.Str("SMART"), wire.Str(""), wire.Str("USD"), wire.Str(""), wire.Str(""),
		wire.Str(""), wire.Bool(false), wire.Bool(false), wire.Str(""),
	}))

	kind, fields := h.recvFrame(t)
	require.Equal(t, ibproto.OutTickPrice, kind)
	require.Equal(t, "100", fields[0])
	require.Equal(t, "1", fields[1]) // TickBidPrice
}

func historicalDataRequestFields(reqID int64) []wire.Field {
	return []wire.Field{
		wire.Int(reqID), // req_id
		wire.IntV(0), wire.Str("NVDA"), wire.Str("STK"), wire.Str(""), // conID, symbol, secType, expiry
		wire.Float(0), wire.Str(""), wire.IntV(0), // strike, right, multiplier
		wire.Str("SMART"), wire.Str(""), wire.Str("USD"), wire.Str(""), wire.Str(""), // exchange, primaryExchange, currency, localSymbol, tradingClass
		wire.Bool(false),    // include_expired
		wire.Str(""),        // end_date_time
		wire.Str("1 day"),   // bar_size_setting
		wire.Str("5 D"),     // duration_str
		wire.Bool(true),     // use_rth
		wire.Str("TRADES"),  // what_to_show
		wire.IntV(1),        // format_date
	}
}

func TestReqHistoricalDataDefaultsToZeroBars(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.doHandshake(t)

	h.send(t, wire.Frame(int(ibproto.KindReqHistoricalData), historicalDataRequestFields(55)))

	kind, fields := h.recvFrame(t)
	require.Equal(t, ibproto.OutHistoricalData, kind)
	require.Equal(t, "55", fields[0])
	require.Equal(t, "0", fields[3], "base contract: zero bars unless synthetic_historical_data is enabled")
}

func TestReqHistoricalDataSyntheticWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SyntheticHistoricalData = true
	h := newHarness(t, cfg)
	h.doHandshake(t)

	h.send(t, wire.Frame(int(ibproto.KindReqHistoricalData), historicalDataRequestFields(56)))

	kind, fields := h.recvFrame(t)
	require.Equal(t, ibproto.OutHistoricalData, kind)
	require.Equal(t, "56", fields[0])
	require.Equal(t, "5", fields[3], "5 D duration should synthesize 5 bars")
}

func TestFailedHandshakeFreesRegistrySlot(t *testing.T) {
	// Regression test for spec.md §7's handshake-failure path: Reserve()
	// must not permanently hold a max_clients slot when the handshake
	// never completes.
	st, err := memstore.New([]store.AccountSeed{
		{AccountID: "DU000001", Username: "demo", Password: "demo", BaseCurrency: "USD", InitialBalance: 1},
	}, nil)
	require.NoError(t, err)

	reg := gateway.NewRegistry(1, nil)
	srv := NewServer(st, nil, DefaultConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		require.NoError(t, err)
		id, ok := reg.Reserve()
		require.True(t, ok)
		srv.Handle(ctx, conn, id, reg)
		close(done)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	client.Write([]byte("not a handshake"))
	client.Close() // EOF before a complete "API\0<version>\0" preamble arrives

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session.run never returned after a failed handshake")
	}

	require.Equal(t, 0, reg.ActiveClients(), "failed handshake must free its reserved slot")
}

func TestRateLimiterDropsBurstBeyondConfiguredRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MessageRateLimit = 2
	h := newHarness(t, cfg)
	h.doHandshake(t)

	for i := 0; i < 3; i++ {
		h.send(t, wire.Frame(int(ibproto.KindReqCurrentTime), nil))
	}

	kind, _ := h.recvFrame(t)
	require.Equal(t, ibproto.OutCurrentTime, kind)
	kind, _ = h.recvFrame(t)
	require.Equal(t, ibproto.OutCurrentTime, kind)

	kind, fields := h.recvFrame(t)
	require.Equal(t, ibproto.OutErrMsg, kind)
	require.Equal(t, "100", fields[1]) // MAX_RATE_EXCEEDED
}
