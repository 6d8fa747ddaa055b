// Package services defines shared utilities consumed by the speech, summary,
// and playback backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp signal kinds, backend names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (unavailable vs exhausted vs timeout) consistent across
//     every backend chain.
//
// Use these helpers when wiring new backend logic so operational behaviour
// (error handling, observability, fallback decisions) stays uniform.
package services
