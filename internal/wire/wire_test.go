package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func mustDecode(t *testing.T, b []byte) (uint64, []byte) {
	t.Helper()
	gen, p, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return gen, p
}

func TestRoundTripEmptyAndNonEmpty(t *testing.T) {
	cases := []struct {
		gen     uint64
		payload []byte
	}{
		{0, nil},
		{42, []byte("hello")},
		{math.MaxUint64, []byte{0, 1, 2, 3, 4}},
		{7, bytes.Repeat([]byte("x"), 4096)},
	}
	for _, tc := range cases {
		gen, p := mustDecode(t, Encode(tc.gen, tc.payload))
		if gen != tc.gen {
			t.Fatalf("gen mismatch: got %d want %d", gen, tc.gen)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestRejectsTrailingBytes(t *testing.T) {
	enc := Encode(7, []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, _, err := Decode(enc); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestCorruptHeadersAndLengths(t *testing.T) {
	enc := Encode(1, []byte("abc"))

	mutate := func(f func(b []byte) []byte) []byte {
		return f(append([]byte(nil), enc...))
	}

	cases := map[string][]byte{
		"bad_magic":   mutate(func(b []byte) []byte { b[0] = 'X'; return b }),
		"bad_version": mutate(func(b []byte) []byte { b[4] = version + 1; return b }),
		"bad_kind":    mutate(func(b []byte) []byte { b[5] = kindSingle + 1; return b }),
		"truncated":   enc[:len(enc)-1],
		"short":       enc[:headerLen-1],
		"huge_vlen": mutate(func(b []byte) []byte {
			binary.BigEndian.PutUint32(b[14:18], math.MaxUint32)
			return b
		}),
		"plain_text": []byte("not-wire-format"),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Decode(b); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
