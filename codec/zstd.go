package codec

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses what Inner encodes with a shared zstd encoder/decoder
// pair. Safe for concurrent use. Call Close to release the decoder.
type Zstd[V any] struct {
	Inner Codec[V]
	enc   *zstd.Encoder
	dec   *zstd.Decoder
	max   int
}

func NewZstd[V any](inner Codec[V], level zstd.EncoderLevel) (*Zstd[V], error) {
	return NewZstdLimited(inner, level, 0)
}

// NewZstdLimited is NewZstd with a cap on the decompressed size. Frames that
// would decode past maxDecoded bytes fail with ErrTooLarge; 0 disables it.
func NewZstdLimited[V any](inner Codec[V], level zstd.EncoderLevel, maxDecoded int) (*Zstd[V], error) {
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	var opts []zstd.DOption
	if maxDecoded > 0 {
		// frames always reserve at least MinWindowSize; smaller caps are
		// checked on the decoded length instead.
		opts = append(opts, zstd.WithDecoderMaxMemory(uint64(max(maxDecoded, zstd.MinWindowSize))))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd[V]{Inner: inner, enc: enc, dec: dec, max: maxDecoded}, nil
}

func (c *Zstd[V]) Name() string { return "zstd(" + NameOf(c.Inner) + ")" }

func (c *Zstd[V]) Encode(v V) ([]byte, error) {
	raw, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, nil), nil
}

func (c *Zstd[V]) Decode(b []byte) (V, error) {
	var zero V
	raw, err := c.dec.DecodeAll(b, nil)
	if c.max > 0 {
		exceeded := errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded)
		if exceeded || err == nil && len(raw) > c.max {
			return zero, fmt.Errorf("%w: zstd payload over %d bytes", ErrTooLarge, c.max)
		}
	}
	if err != nil {
		return zero, fmt.Errorf("zstd decode: %w", err)
	}
	return c.Inner.Decode(raw)
}

func (c *Zstd[V]) Close() error {
	c.dec.Close()
	return c.enc.Close()
}
