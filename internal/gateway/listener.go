package gateway

import (
	"context"
	"net"

	"github.com/ibsim/gateway/internal/logging"
)

// SessionFactory builds and drives one accepted connection to
// completion. It must call Registry.Register once it has a *Session
// hook set to feed Broadcast, and must call Registry.Remove on exit.
// internal/session's Server.Handle satisfies this shape.
type SessionFactory func(ctx context.Context, conn net.Conn, clientID int64, reg *Registry)

// Listener binds the configured TCP address and hands every accepted
// connection to a SessionFactory, rejecting over-capacity accepts
// per spec.md §4.5. Grounded on the teacher's dialer/listener
// lifecycle in pkg/kgo/broker.go, adapted from "dial out" to "accept
// in" since this gateway plays the server role the spec describes.
type Listener struct {
	log logging.Logger
	reg *Registry
	ln  net.Listener
}

// Listen binds addr ("host:port") and returns a Listener ready to
// Serve. Go's net package sets SO_REUSEADDR on TCP listeners itself,
// satisfying spec.md §4.5's "address-reuse enabled" requirement
// without a platform-specific Control callback.
func Listen(addr string, reg *Registry, log logging.Logger) (*Listener, error) {
	if log == nil {
		log = logging.Nop{}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{log: log, reg: reg, ln: ln}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting; in-flight sessions are unaffected (the
// caller is responsible for cancelling ctx to tear those down too,
// per spec.md §5's stop procedure).
func (l *Listener) Close() error { return l.ln.Close() }

// Serve accepts connections until ctx is cancelled or the listener is
// closed, dispatching each to factory on its own goroutine — the
// per-connection "logical task" spec.md §5 describes.
func (l *Listener) Serve(ctx context.Context, factory SessionFactory) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				l.log.Log(logging.LevelError, "accept failed", "err", err)
				return err
			}
		}

		clientID, ok := l.reg.Reserve()
		if !ok {
			conn.Close()
			continue
		}
		go factory(ctx, conn, clientID, l.reg)
	}
}
