// Package chain implements prioritized fallback across interchangeable
// backends.
//
// A chain holds backends in rank order. Resolve attempts the first eligible
// backend under its own deadline; on failure, timeout, or an empty result it
// advances to the next eligible backend. A backend is attempted at most once
// per pass. When every backend has been exhausted the caller-supplied
// fallback produces the value, flagged so callers can tell a degraded result
// from a resolved one. Resolve never returns an error: degraded output beats
// no output.
package chain
