package codec

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var payloads = map[string]string{
	"empty": "",
	"small": "hello",
	"large": strings.Repeat("tierkv-payload-", 100), // 1500 bytes
}

func TestIdentityRoundTrip(t *testing.T) {
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			enc, err := Bytes{}.Encode([]byte(p))
			require.NoError(t, err)
			dec, err := Bytes{}.Decode(enc)
			require.NoError(t, err)
			assert.True(t, bytes.Equal([]byte(p), dec))
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			enc, err := String{}.Encode(p)
			require.NoError(t, err)
			assert.Equal(t, []byte(p), enc)
			dec, err := String{}.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, p, dec)
		})
	}
}

func TestGzipRoundTrip(t *testing.T) {
	gz := NewGzip[string](String{})
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			enc, err := gz.Encode(p)
			require.NoError(t, err)
			dec, err := gz.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, p, dec)
		})
	}
}

func TestGzipOverIdentity(t *testing.T) {
	gz := Gzip[[]byte]{Inner: Bytes{}, Level: 9}
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			enc, err := gz.Encode([]byte(p))
			require.NoError(t, err)
			dec, err := gz.Decode(enc)
			require.NoError(t, err)
			assert.True(t, bytes.Equal([]byte(p), dec))
		})
	}
}

func TestGzipShrinksRepetitivePayload(t *testing.T) {
	data := strings.Repeat("0", 500)
	gz := NewGzip[string](String{})

	enc, err := gz.Encode(data)
	require.NoError(t, err)
	assert.Less(t, len(enc), len(data))

	dec, err := gz.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, data, dec)
}

func TestGzipDecodeRejectsGarbage(t *testing.T) {
	_, err := NewGzip[string](String{}).Decode([]byte("not gzip"))
	require.Error(t, err)
}

func TestZstdRoundTrip(t *testing.T) {
	zc, err := NewZstd[string](String{}, zstd.SpeedBestCompression)
	require.NoError(t, err)
	t.Cleanup(func() { _ = zc.Close() })

	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			enc, err := zc.Encode(p)
			require.NoError(t, err)
			dec, err := zc.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, p, dec)
		})
	}

	data := strings.Repeat("0", 500)
	enc, err := zc.Encode(data)
	require.NoError(t, err)
	assert.Less(t, len(enc), len(data))
}

func TestLimitRejectsOversized(t *testing.T) {
	lc := Limit[string]{Inner: String{}, MaxDecode: 4}

	_, err := lc.Decode([]byte("12345"))
	require.ErrorIs(t, err, ErrTooLarge)

	v, err := lc.Decode([]byte("1234"))
	require.NoError(t, err)
	assert.Equal(t, "1234", v)

	off := Limit[string]{Inner: String{}}
	v, err = off.Decode([]byte("no limit at all"))
	require.NoError(t, err)
	assert.Equal(t, "no limit at all", v)
}

func TestGzipCapsDecompressedSize(t *testing.T) {
	gz := Gzip[string]{Inner: String{}, MaxDecoded: 10}
	big, err := gz.Encode(strings.Repeat("a", 100))
	require.NoError(t, err)
	require.Less(t, len(big), 100)

	_, err = gz.Decode(big)
	require.ErrorIs(t, err, ErrTooLarge)

	small, err := gz.Encode("0123456789")
	require.NoError(t, err)
	v, err := gz.Decode(small)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", v)
}

func TestZstdCapsDecompressedSize(t *testing.T) {
	zc, err := NewZstdLimited[string](String{}, 0, 64)
	require.NoError(t, err)
	t.Cleanup(func() { _ = zc.Close() })

	for _, n := range []int{65, 500, 4096} {
		big, err := zc.Encode(strings.Repeat("a", n))
		require.NoError(t, err)
		_, err = zc.Decode(big)
		require.ErrorIs(t, err, ErrTooLarge, "size %d", n)
	}

	v, err := zc.Decode(mustEncode(t, zc, "fits"))
	require.NoError(t, err)
	assert.Equal(t, "fits", v)
}

func mustEncode[V any](t *testing.T, c Codec[V], v V) []byte {
	t.Helper()
	b, err := c.Encode(v)
	require.NoError(t, err)
	return b
}

func TestTextRoundTrip(t *testing.T) {
	ints := Text[int]{Parse: strconv.Atoi}
	enc, err := ints.Encode(42)
	require.NoError(t, err)
	assert.Equal(t, []byte("42"), enc)
	n, err := ints.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = ints.Decode([]byte("forty-two"))
	require.Error(t, err)

	s, err := Text[string]{}.Decode(mustEncode[string](t, Text[string]{}, "plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	f, err := Text[float64]{}.Encode(1.5)
	require.NoError(t, err)
	assert.Equal(t, []byte("1.5"), f)
}

func TestTextWithoutParserFailsForNonStrings(t *testing.T) {
	_, err := Text[int]{}.Decode([]byte("42"))
	require.ErrorIs(t, err, ErrNoParse)
	assert.Contains(t, err.Error(), "int")
}

type profile struct {
	ID    string            `json:"id" msgpack:"id" cbor:"id"`
	Tags  []string          `json:"tags" msgpack:"tags" cbor:"tags"`
	Attrs map[string]string `json:"attrs" msgpack:"attrs" cbor:"attrs"`
}

func TestStructCodecsRoundTrip(t *testing.T) {
	in := profile{ID: "u1", Tags: []string{"a", "b"}, Attrs: map[string]string{"k": "v"}}
	codecs := map[string]Codec[profile]{
		"json":      JSON[profile]{},
		"msgpack":   Msgpack[profile]{},
		"cbor":      MustCBOR[profile](false),
		"cbor-det":  MustCBOR[profile](true),
		"gzip-json": NewGzip[profile](JSON[profile]{}),
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			enc, err := c.Encode(in)
			require.NoError(t, err)
			out, err := c.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestCBORDeterministicIsStable(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, err := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	b, err := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCBORTimeRoundTrip(t *testing.T) {
	c := MustCBOR[time.Time](false)
	now := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	enc, err := c.Encode(now)
	require.NoError(t, err)
	got, err := c.Decode(enc)
	require.NoError(t, err)
	assert.True(t, now.Equal(got))
}

func TestProtobufRoundTrip(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	enc, err := c.Encode(wrapperspb.String("hi"))
	require.NoError(t, err)
	got, err := c.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.GetValue())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "gzip(string)", NameOf(NewGzip[string](String{})))
	assert.Equal(t, "limit(gzip(bytes))", NameOf(Limit[[]byte]{Inner: NewGzip[[]byte](Bytes{})}))
	assert.Equal(t, "text", NameOf(Text[int]{}))
	assert.Equal(t, "custom", NameOf(struct{}{}))
}
