// Package textutil provides text processing utilities for message
// normalization and filesystem-safe token handling.
//
// The primary use cases are:
//   - Canonicalizing spoken-message text before it is hashed into a cache key
//   - Sanitizing voice names and other path segments for safe filesystem use
//
// Normalization applies Unicode NFC and collapses runs of whitespace so that
// visually identical messages map to the same canonical form.
package textutil
