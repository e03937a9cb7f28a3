package wire

import "testing"

func TestParseHandshakePlainInteger(t *testing.T) {
	v, consumed, ok := ParseHandshake([]byte("API\x00176\x00trailing"))
	if !ok {
		t.Fatal("expected ok")
	}
	if v != 176 {
		t.Fatalf("got version %d, want 176", v)
	}
	if consumed != len("API\x00176\x00") {
		t.Fatalf("consumed %d, want %d", consumed, len("API\x00176\x00"))
	}
}

func TestParseHandshakeVPrefixed(t *testing.T) {
	v, _, ok := ParseHandshake([]byte("API\x00v176\x00"))
	if !ok || v != 176 {
		t.Fatalf("got (%d, %v), want (176, true)", v, ok)
	}
}

func TestParseHandshakeRange(t *testing.T) {
	v, _, ok := ParseHandshake([]byte("API\x00v100..178\x00"))
	if !ok || v != 178 {
		t.Fatalf("got (%d, %v), want (178, true)", v, ok)
	}
}

func TestParseHandshakeUnparseableDefaultsTo100(t *testing.T) {
	v, _, ok := ParseHandshake([]byte("API\x00garbage\x00"))
	if !ok || v != 100 {
		t.Fatalf("got (%d, %v), want (100, true)", v, ok)
	}
}

func TestParseHandshakeMissingPrefixRejected(t *testing.T) {
	_, _, ok := ParseHandshake([]byte("NOPE\x00176\x00"))
	if ok {
		t.Fatal("expected rejection without API\\0 prefix")
	}
}

func TestParseHandshakeIncompleteWaitsForMoreBytes(t *testing.T) {
	_, _, ok := ParseHandshake([]byte("API\x00176"))
	if ok {
		t.Fatal("expected incomplete handshake to report not-ok")
	}
}
