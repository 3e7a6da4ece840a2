package codec

import (
	"errors"
	"fmt"
)

// Bytes is the identity codec: Encode and Decode return their input.
// Use it when values are already raw byte slices.
type Bytes struct{}

var _ Codec[[]byte] = Bytes{}

func (Bytes) Name() string                    { return "bytes" }
func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores the string form of a value. Decode hands the stored text
// back unchanged. No UTF-8 validation.
type String struct{}

var _ Codec[string] = String{}

func (String) Name() string                    { return "string" }
func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

var ErrNoParse = errors.New("codec: no parser for text value")

// Text stores any value as fmt.Sprint(v). Parse turns stored text back into
// V; without it Decode only succeeds when V is string.
type Text[V any] struct {
	Parse func(string) (V, error)
}

func (Text[V]) Name() string { return "text" }

func (Text[V]) Encode(v V) ([]byte, error) { return []byte(fmt.Sprint(v)), nil }

func (c Text[V]) Decode(b []byte) (V, error) {
	if c.Parse != nil {
		return c.Parse(string(b))
	}
	if v, ok := any(string(b)).(V); ok {
		return v, nil
	}
	var zero V
	return zero, fmt.Errorf("%w: %T", ErrNoParse, zero)
}
