package snapwire

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	at := time.Unix(1_700_000_000, 123_456_789)
	payload := []byte(`{"id":"1"}`)

	b := Encode(at, payload)
	gotAt, gotPayload, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !gotAt.Equal(at) {
		t.Fatalf("fetchedAt = %v, want %v", gotAt, at)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestRoundTripEmptyPayload(t *testing.T) {
	b := Encode(time.Unix(0, 0), nil)
	_, payload, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(payload) != 0 {
		t.Fatalf("payload = %q, want empty", payload)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	good := Encode(time.Now(), []byte("x"))

	tests := []struct {
		name string
		b    []byte
	}{
		{"empty", nil},
		{"short", good[:8]},
		{"bad magic", append([]byte("XXXX"), good[4:]...)},
		{"bad version", func() []byte {
			b := append([]byte(nil), good...)
			b[4] = 99
			return b
		}()},
		{"truncated payload", good[:len(good)-1]},
		{"oversized length", func() []byte {
			b := append([]byte(nil), good...)
			b[13], b[14], b[15], b[16] = 0xff, 0xff, 0xff, 0xff
			return b
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(tc.b); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Decode(%q) err = %v, want ErrCorrupt", tc.b, err)
			}
		})
	}
}
