// Package ttscache stores synthesized speech audio keyed by message content.
//
// Entries live at <cache_dir>/<voice>/<key>.mp3 where key is the SHA-256 of
// the normalized message text and the voice identifier. Each entry carries a
// JSON sidecar recording the original text and an audio content digest.
// Entries are immutable: a hit never re-synthesizes, a key collision with
// differing text is reported as an integrity fault rather than overwritten,
// and nothing is ever evicted.
package ttscache
