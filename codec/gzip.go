package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gzip compresses what Inner encodes:
//
//	Encode = gzip(Inner.Encode(v))
//	Decode = Inner.Decode(gunzip(b))
//
// Level 0 means gzip.DefaultCompression. MaxDecoded > 0 caps the
// decompressed size; larger payloads fail with ErrTooLarge.
type Gzip[V any] struct {
	Inner      Codec[V]
	Level      int
	MaxDecoded int
}

func NewGzip[V any](inner Codec[V]) Gzip[V] {
	return Gzip[V]{Inner: inner}
}

func (c Gzip[V]) Name() string { return "gzip(" + NameOf(c.Inner) + ")" }

func (c Gzip[V]) Encode(v V) ([]byte, error) {
	raw, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	level := c.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	// Close flushes the footer; the output is incomplete without it.
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func (c Gzip[V]) Decode(b []byte) (V, error) {
	var zero V
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return zero, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()

	var r io.Reader = zr
	if c.MaxDecoded > 0 {
		r = io.LimitReader(zr, int64(c.MaxDecoded)+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return zero, fmt.Errorf("gzip read: %w", err)
	}
	if c.MaxDecoded > 0 && len(raw) > c.MaxDecoded {
		return zero, fmt.Errorf("%w: gzip payload over %d bytes", ErrTooLarge, c.MaxDecoded)
	}
	return c.Inner.Decode(raw)
}
