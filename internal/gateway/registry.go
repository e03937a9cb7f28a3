// Package gateway is the listener/registry component of spec.md §4.5:
// it owns the TCP accept loop, the client_id → session registry, the
// client/order id counters, and the broadcast fan-out entry point.
// It is grounded on the teacher's connection-bookkeeping style in
// pkg/kgo/broker.go (atomic counters guarded by a mutex-protected map,
// never holding that mutex across a blocking per-connection call).
package gateway

import (
	"sync"
	"sync/atomic"

	"github.com/ibsim/gateway/internal/logging"
)

// Session is the subset of the session engine the registry needs:
// enough to broadcast to it and to know when it should be evicted.
// internal/session.Session builds and registers one of these.
type Session struct {
	ClientID int64

	// IsSubscribedTo reports whether this session currently holds a
	// market-data subscription for symbol (spec.md §4.5's
	// `s.is_subscribed_to(symbol)`).
	IsSubscribedTo func(symbol string) bool

	// Deliver pushes a tick update onto this session's egress stream,
	// serialized against the session's own emissions (spec.md §5's
	// ordering guarantee). Supplied by internal/session.
	Deliver func(symbol string, ticks BroadcastTicks)
}

// BroadcastTicks is the tick payload shape the listener fans out. It
// mirrors internal/ibproto.Ticks (Vol standing for Volume) but is
// defined here so this package does not need to import ibproto;
// producers such as internal/marketfeed build it directly.
type BroadcastTicks struct {
	Bid, Ask, Last                  *float64
	BidSize, AskSize, LastSize, Vol *int64
}

// Registry is the client_id → session map the listener maintains.
// Guarded by a single mutex, per spec.md §5: "must be guarded by a
// mutex (or equivalent) because iteration runs concurrently with
// insertion/removal."
type Registry struct {
	log logging.Logger

	mu       sync.RWMutex
	sessions map[int64]*Session

	maxClients int
	nextClient atomic.Int64
	nextOrder  atomic.Int64

	symbols *symbolIndex
}

// NewRegistry builds a Registry capped at maxClients concurrent
// sessions. Client IDs start at 1 (spec.md §4.5); order IDs start at
// 1000 so they are visually distinguishable from client IDs in logs.
func NewRegistry(maxClients int, log logging.Logger) *Registry {
	if log == nil {
		log = logging.Nop{}
	}
	r := &Registry{
		log:        log,
		sessions:   make(map[int64]*Session),
		maxClients: maxClients,
		symbols:    newSymbolIndex(),
	}
	r.nextOrder.Store(999)
	return r
}

// SubscribeSymbol and UnsubscribeSymbol maintain the derived
// (symbol, client_id) index Broadcast range-scans. internal/session
// calls these from its REQ_MKT_DATA / CANCEL_MKT_DATA handlers; the
// session's own market_data_subs map (keyed by req_id) remains the
// authority IsSubscribedTo consults.
func (r *Registry) SubscribeSymbol(symbol string, clientID int64) {
	r.symbols.subscribe(symbol, clientID)
}

func (r *Registry) UnsubscribeSymbol(symbol string, clientID int64) {
	r.symbols.unsubscribe(symbol, clientID)
}

// Reserve allocates the next client_id, rejecting the caller (who must
// then close the connection without writing anything) if that would
// exceed max_clients, per spec.md §4.5/§8 property 8. The id is
// reserved but not yet visible to Broadcast until Register is called.
func (r *Registry) Reserve() (clientID int64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.maxClients {
		r.log.Log(logging.LevelWarn, "rejecting accept: at max_clients", "max_clients", r.maxClients)
		return 0, false
	}
	id := r.nextClient.Add(1)
	r.sessions[id] = nil // reserved, not yet registered
	return id, true
}

// Register makes a reserved client_id visible to Broadcast.
func (r *Registry) Register(sess *Session) {
	r.mu.Lock()
	r.sessions[sess.ClientID] = sess
	count := len(r.sessions)
	r.mu.Unlock()
	r.log.Log(logging.LevelInfo, "client registered", "client_id", sess.ClientID, "active_clients", count)
}

// Remove evicts a session from the registry on termination.
func (r *Registry) Remove(clientID int64) {
	r.mu.Lock()
	delete(r.sessions, clientID)
	remaining := len(r.sessions)
	r.mu.Unlock()
	r.log.Log(logging.LevelInfo, "client removed", "client_id", clientID, "active_clients", remaining)
}

// NextOrderID returns a process-wide monotonically increasing order
// id. Exact ordering across concurrent callers is not guaranteed,
// only monotonicity per spec.md §4.5.
func (r *Registry) NextOrderID() int64 { return r.nextOrder.Add(1) }

// Broadcast fans a tick update out to every registered session
// subscribed to symbol. The registry lock is released before any
// session write is attempted, so a slow or stuck session never blocks
// accept. Deliver is then called for each target in turn on the
// caller's goroutine, and Broadcast returns only after every Deliver
// has returned: a slow session delays delivery to the targets after
// it and holds up the caller's next Broadcast.
func (r *Registry) Broadcast(symbol string, ticks BroadcastTicks) {
	candidates := r.symbols.clientsFor(symbol)

	r.mu.RLock()
	targets := make([]*Session, 0, len(candidates))
	for _, clientID := range candidates {
		s := r.sessions[clientID]
		// the symbol index is derived and can race slightly ahead of
		// session teardown; IsSubscribedTo on the live session is the
		// authoritative check.
		if s != nil && s.IsSubscribedTo != nil && s.IsSubscribedTo(symbol) {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		if s.Deliver != nil {
			s.Deliver(symbol, ticks)
		}
	}
}

// ActiveClients reports the current registry size, used only for logging/metrics.
func (r *Registry) ActiveClients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
