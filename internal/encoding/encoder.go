package encoding

import (
	"bytes"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sync"
)

// CanonicalEncoder serializes reports and snapshots into a stable byte
// form: struct fields in declaration order, map keys sorted, no HTML
// escaping, no trailing newline. Identical inputs always produce identical
// bytes, which is what snapshot hashing and report idempotence rely on.
type CanonicalEncoder struct {
	buffers sync.Pool
}

// NewCanonicalEncoder creates an encoder with a pooled buffer set
func NewCanonicalEncoder() *CanonicalEncoder {
	return &CanonicalEncoder{
		buffers: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
}

// Marshal encodes v into its canonical byte form
func (e *CanonicalEncoder) Marshal(v any) ([]byte, error) {
	buf := e.buffers.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		e.buffers.Put(buf)
	}()

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical encode failed: %w", err)
	}

	data := buf.Bytes()
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Hash returns a short stable fingerprint of v's canonical form, used as
// the snapshot identity for caching and supersession checks
func (e *CanonicalEncoder) Hash(v any) (string, error) {
	data, err := e.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return fmt.Sprintf("%x", sum), nil
}
