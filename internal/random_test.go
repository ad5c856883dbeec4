package internal

import "testing"

func TestSessionIDRoundTrip(t *testing.T) {
	sid, err := NewSessionID()
	if err != nil {
		t.Fatalf("new session id: %v", err)
	}
	parsed, err := ParseSessionID(sid.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != sid {
		t.Fatalf("round trip mismatch: %x != %x", parsed, sid)
	}
	if len(sid.String()) != 22 {
		t.Fatalf("expected 22 char id, got %q", sid.String())
	}
}

func TestHashBindingValueEmptyIsZero(t *testing.T) {
	if HashBindingValue("") != [32]byte{} {
		t.Fatal("empty value must hash to the zero fingerprint")
	}
	if HashBindingValue("10.0.0.1") == HashBindingValue("10.0.0.2") {
		t.Fatal("distinct values must not collide")
	}
}

// FuzzParseSessionID exercises session id parsing with arbitrary strings.
// Goal: no panics; accepted inputs decode to an id that round-trips.
func FuzzParseSessionID(f *testing.F) {
	if sid, err := NewSessionID(); err == nil {
		f.Add(sid.String())
	}
	f.Add("")
	f.Add("abc")
	f.Add("!!!not-base64!!!")
	f.Add("AAAAAAAAAAAAAAAAAAAAAA")

	f.Fuzz(func(t *testing.T, input string) {
		sid, err := ParseSessionID(input)
		if err != nil {
			return
		}
		again, err := ParseSessionID(sid.String())
		if err != nil || again != sid {
			t.Fatalf("accepted %q but canonical form does not round-trip: %v", input, err)
		}
	})
}
