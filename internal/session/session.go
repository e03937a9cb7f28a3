// Package session implements the per-connection engine of spec.md
// §4.4: handshake, ingress loop, dispatch, rate limiting, subscription
// bookkeeping, and egress serialization. It is grounded on the
// teacher's per-broker connection state machine in pkg/kgo/broker.go,
// generalized from a client's outbound request/response multiplexing
// to a server's inbound dispatch/outbound broadcast multiplexing.
package session

import (
	"bufio"
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ibsim/gateway/internal/gateway"
	"github.com/ibsim/gateway/internal/ibproto"
	"github.com/ibsim/gateway/internal/logging"
	"github.com/ibsim/gateway/internal/store"
)

// state is the [Accepted]→[Connected]→[Closed] machine of spec.md §4.4.
type state int32

const (
	stateAccepted state = iota
	stateConnected
	stateClosed
)

// Config is the subset of internal/config.Config the session engine
// needs, copied in by cmd/ibsimd so this package does not import
// internal/config directly.
type Config struct {
	ServerVersion    int
	MessageRateLimit int
	BufferSize       int
	DefaultAccount   string
	OrderStatusDelay time.Duration

	// SyntheticHistoricalData gates the declared supplement over
	// spec.md §4.4's base REQ_HISTORICAL_DATA contract (an empty
	// HISTORICAL_DATA with zero bars). Default false keeps the base
	// contract; true generates and serves synthetic OHLCV bars from a
	// compressed cache (see historical.go).
	SyntheticHistoricalData bool
}

// DefaultConfig mirrors internal/config.Default()'s session-relevant fields.
func DefaultConfig() Config {
	return Config{
		ServerVersion:    176,
		MessageRateLimit: 50,
		BufferSize:       4096,
		OrderStatusDelay: 100 * time.Millisecond,
	}
}

// Server binds together the dependencies every Session needs and
// exposes the gateway.SessionFactory shape the listener calls on
// every accepted connection.
type Server struct {
	store store.Store
	log   logging.Logger
	cfg   Config
	bars  *barCache
}

func NewServer(st store.Store, log logging.Logger, cfg Config) *Server {
	if log == nil {
		log = logging.Nop{}
	}
	return &Server{store: st, log: log, cfg: cfg, bars: newBarCache(cfg.SyntheticHistoricalData)}
}

// Handle implements gateway.SessionFactory: drive one accepted
// connection from handshake through to close.
func (srv *Server) Handle(ctx context.Context, conn net.Conn, clientID int64, reg *gateway.Registry) {
	s := newSession(conn, clientID, reg, srv.store, srv.log, srv.cfg)
	s.bars = srv.bars
	s.run(ctx)
}

type marketDataSub struct {
	reqID    int64
	contract ibproto.Contract
}

// Session drives one TCP connection. All mutable state is guarded by
// the mutexes below; no field is safe to read without one, matching
// spec.md §5's "each session's write side is a shared resource between
// its own handler and the broadcaster."
type Session struct {
	conn     net.Conn
	r        *bufio.Reader
	clientID int64
	reg      *gateway.Registry
	store    store.Store
	log      logging.Logger
	cfg      Config

	state atomic.Int32

	writeMu sync.Mutex // serializes egress: handler bursts vs. broadcast deliveries

	subMu          sync.Mutex
	marketDataSubs map[int64]marketDataSub // req_id -> subscription
	accountSubs    map[string]bool

	rateMu      sync.Mutex
	windowStart time.Time
	windowCount int

	clientVersion atomic.Int64
	negotiatedClientID atomic.Int64 // adopted from START_API, falls back to clientID

	bars *barCache
}

func newSession(conn net.Conn, clientID int64, reg *gateway.Registry, st store.Store, log logging.Logger, cfg Config) *Session {
	s := &Session{
		conn:           conn,
		r:              bufio.NewReaderSize(conn, max(cfg.BufferSize, 4096)),
		clientID:       clientID,
		reg:            reg,
		store:          st,
		log:            log,
		cfg:            cfg,
		marketDataSubs: make(map[int64]marketDataSub),
		accountSubs:    make(map[string]bool),
	}
	s.negotiatedClientID.Store(clientID)
	return s
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// run owns the full connection lifecycle: handshake, registration,
// ingress loop, and teardown. It never returns until the connection is
// done, matching spec.md §5's "per-connection logical task."
func (s *Session) run(ctx context.Context) {
	defer s.conn.Close()
	// teardown is deferred before the handshake runs, not after: spec.md
	// §7's handshake-failure path ("close the socket, remove from
	// registry") must release the Reserve()'d registry slot even when
	// the handshake never completes, or a client that fails the
	// handshake leaks a permanent max_clients slot.
	defer s.teardown()

	if !s.handshake() {
		s.log.Log(logging.LevelWarn, "handshake failed", "client_id", s.clientID)
		return
	}
	s.state.Store(int32(stateConnected))

	gwSess := &gateway.Session{
		ClientID:       s.clientID,
		IsSubscribedTo: s.isSubscribedTo,
		Deliver:        s.deliverTicks,
	}
	s.reg.Register(gwSess)

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close() // unblocks the in-flight Read
		case <-stopWatch:
		}
	}()

	s.log.Log(logging.LevelInfo, "session connected", "client_id", s.clientID)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		kind, fields, err := s.readFrame()
		if err != nil {
			s.log.Log(logging.LevelDebug, "ingress closed", "client_id", s.clientID, "err", err)
			return
		}

		if s.rateLimited() {
			s.writeFrame(ibproto.ErrMsg(-1, ibproto.ErrMaxRateExceeded, "Max message rate exceeded"))
			continue
		}

		s.dispatch(ibproto.Kind(kind), fields)
	}
}

func (s *Session) teardown() {
	s.state.Store(int32(stateClosed))

	s.subMu.Lock()
	symbols := make([]string, 0, len(s.marketDataSubs))
	for _, sub := range s.marketDataSubs {
		symbols = append(symbols, sub.contract.Symbol)
	}
	s.subMu.Unlock()

	for _, symbol := range symbols {
		s.reg.UnsubscribeSymbol(symbol, s.clientID)
	}
	s.reg.Remove(s.clientID)
	s.log.Log(logging.LevelInfo, "session closed", "client_id", s.clientID)
}
