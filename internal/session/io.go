package session

import (
	"encoding/binary"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/ibsim/gateway/internal/wire"
)

// handshake implements spec.md §4.4 steps 1-3: read the `API\0` ∥
// version preamble and reply with `[server_version, connection_time]`
// carrying no kind identifier. It reports success; run marks the
// session Connected when it returns true.
func (s *Session) handshake() bool {
	buf := make([]byte, 0, 64)
	tmp := make([]byte, 64)
	for {
		n, err := s.conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			return false
		}
		if version, _, ok := wire.ParseHandshake(buf); ok {
			s.clientVersion.Store(int64(version))
			break
		}
		if len(buf) > 4096 {
			return false // never going to find a terminator; bail
		}
	}

	reply := wire.HandshakeReply(s.cfg.ServerVersion, time.Now().Format("20060102 15:04:05"))
	if err := s.rawWrite(reply); err != nil {
		return false
	}
	return true
}

// readFrame blocks for exactly one complete frame: a 4-byte big-endian
// length prefix followed by that many body bytes, per spec.md §4.1.
func (s *Session) readFrame() (kind int, fields []string, err error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(s.r, body); err != nil {
			return 0, nil, err
		}
	}

	all := wire.DecodeBody(body)
	if len(all) == 0 {
		return 0, nil, nil
	}
	k, convErr := strconv.Atoi(all[0])
	if convErr != nil {
		k = 0
	}
	return k, all[1:], nil
}

// writeFrame serializes one already-framed message onto the
// connection, guarded by writeMu so a handler's multi-frame burst and
// a concurrent broadcast delivery never interleave (spec.md §5).
func (s *Session) writeFrame(frame []byte) error {
	return s.rawWrite(frame)
}

// writeFrames writes a logical burst as a single critical section so
// no other emitter can splice a frame into the middle of it.
func (s *Session) writeFrames(frames ...[]byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, f := range frames {
		if _, err := s.conn.Write(f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) rawWrite(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(b)
	return err
}

var errClosed = errors.New("session: closed")
