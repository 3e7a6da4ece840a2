// Package codec holds the encode/decode pairs a Store applies at its storage
// boundary. Every codec obeys Decode(Encode(v)) == v for the values it
// supports. Wrappers (Gzip, Zstd, Limit) compose over an inner codec.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Namer is implemented by codecs that identify themselves in diagnostics.
type Namer interface {
	Name() string
}

// NameOf returns c's name, or "custom" for codecs without one.
func NameOf(c any) string {
	if n, ok := c.(Namer); ok {
		return n.Name()
	}
	return "custom"
}
