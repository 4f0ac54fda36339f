// Package codec encodes stored objects to bytes and back.
//
// Dates are always written as ISO-8601 (RFC 3339) strings. Output is compact in
// release builds and indented when the binary is built with the "debug" tag; the
// difference is formatting only, never schema.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEncode = errors.New("encode failed")
	ErrDecode = errors.New("decode failed")
)

// Codec is the collaborator the object store serializes through.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	// Extension is the file extension (without dot) used for records.
	Extension() string
}

// ForFormat returns the codec registered under name ("json" or "cbor").
// strictFields makes decoding fail on fields the target type does not declare.
func ForFormat(name string, pretty, strictFields bool) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON{Pretty: pretty, StrictFields: strictFields}, nil
	case "cbor":
		c, err := NewCBOR(strictFields)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported codec format: %s", name)
	}
}

// Default is the strict-fields JSON codec with pretty printing following the
// build mode.
func Default() Codec {
	return JSON{Pretty: Debug, StrictFields: true}
}

// Decode decodes data into a fresh T.
func Decode[T any](c Codec, data []byte) (T, error) {
	var v T
	if err := c.Decode(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
