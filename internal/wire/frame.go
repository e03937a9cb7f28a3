package wire

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
)

// Message is a single framed, kind-tagged body: byte(s) = len:4be ∥ body,
// body = kind field ∥ positional fields, each null-terminated.
type Message struct {
	Kind   int
	Fields []Field
}

// Frame encodes kind and fields into a length-prefixed frame.
func Frame(kind int, fields []Field) []byte {
	all := make([]Field, 0, len(fields)+1)
	all = append(all, IntV(kind))
	all = append(all, fields...)
	return encodeFields(all)
}

// HandshakeReply encodes the server's handshake response. Per spec.md
// §4.4 this is the one frame in the protocol that carries no kind
// identifier, so it is built with encodeFields directly rather than
// going through Frame.
func HandshakeReply(serverVersion int, connectionTime string) []byte {
	return encodeFields([]Field{IntV(serverVersion), Str(connectionTime)})
}

// handshakePrefix is the literal tag every handshake begins with,
// before any version token (spec.md §4.4 step 2).
var handshakePrefix = []byte("API\x00")

// ParseHandshake recognizes the client's opening `API\0` ∥ version ∥
// `\0` preamble and extracts the negotiated client version. It never
// fails outright: an unparseable version token defaults to 100, per
// spec.md §4.4 step 2 ("On parse failure, default the client version
// to 100"). ok is false only when buf does not even start with the
// required prefix or no terminating null has arrived yet.
func ParseHandshake(buf []byte) (clientVersion int, consumed int, ok bool) {
	if len(buf) < len(handshakePrefix) {
		return 0, 0, false
	}
	if !bytes.HasPrefix(buf, handshakePrefix) {
		return 0, 0, false
	}
	rest := buf[len(handshakePrefix):]
	nul := bytes.IndexByte(rest, 0)
	if nul < 0 {
		return 0, 0, false
	}
	token := string(rest[:nul])
	consumed = len(handshakePrefix) + nul + 1
	return parseVersionToken(token), consumed, true
}

func parseVersionToken(token string) int {
	token = strings.TrimPrefix(token, "v")
	if lo, hi, found := strings.Cut(token, ".."); found {
		_ = lo
		if v, err := strconv.Atoi(hi); err == nil {
			return v
		}
		return 100
	}
	if v, err := strconv.Atoi(token); err == nil {
		return v
	}
	return 100
}

func encodeFields(fields []Field) []byte {
	body := make([]byte, 0, 32)
	for _, f := range fields {
		body = append(body, encodeLatin1(f.render())...)
		body = append(body, 0)
	}
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out, uint32(len(body)))
	copy(out[4:], body)
	return out
}

// Unframe attempts to pull one complete frame off the front of buf. It
// reports ok=false (without consuming anything) if buf holds fewer
// than 4 bytes or fewer than 4+len bytes, per spec.md §4.1's
// "incomplete" rule. On success it returns the message kind, the
// fields following it, and the number of bytes consumed from buf.
func Unframe(buf []byte) (kind int, fields []string, consumed int, ok bool) {
	if len(buf) < 4 {
		return 0, nil, 0, false
	}
	n := int(binary.BigEndian.Uint32(buf[:4]))
	if len(buf) < 4+n {
		return 0, nil, 0, false
	}
	body := buf[4 : 4+n]
	all := decodeFields(body)
	if len(all) == 0 {
		return 0, nil, 4 + n, true
	}
	k, err := strconv.Atoi(all[0])
	if err != nil {
		k = 0
	}
	return k, all[1:], 4 + n, true
}

// DecodeBody splits one already-length-delimited frame body into its
// fields, for callers (the session ingress loop) that read the length
// prefix and body themselves via io.ReadFull rather than buffering an
// arbitrary byte stream through Unframe.
func DecodeBody(body []byte) []string { return decodeFields(body) }

// decodeFields splits a message body on null terminators. A body
// containing only a null yields one empty field (spec.md §4.1 edge
// case (a)); a trailing terminator does not produce a spurious empty
// trailing element.
func decodeFields(body []byte) []string {
	if len(body) == 0 {
		return nil
	}
	var fields []string
	start := 0
	for i, b := range body {
		if b == 0 {
			fields = append(fields, decodeLatin1(body[start:i]))
			start = i + 1
		}
	}
	if start < len(body) {
		fields = append(fields, decodeLatin1(body[start:]))
	}
	return fields
}

// encodeLatin1 and decodeLatin1 transcode byte-for-byte between a Go
// string and the latin-1 (ISO-8859-1) wire encoding, so every byte
// value 0-255 round-trips exactly (spec.md §4.1 edge case (c)).
func encodeLatin1(s string) []byte {
	out := make([]byte, len([]rune(s)))
	for i, r := range []rune(s) {
		out[i] = byte(r)
	}
	return out
}

func decodeLatin1(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
