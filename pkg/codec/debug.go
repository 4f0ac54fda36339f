//go:build debug

package codec

// Debug is true when built with -tags debug.
const Debug = true
