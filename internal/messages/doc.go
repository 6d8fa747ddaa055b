// Package messages holds the spoken phrase pools and the selection policy
// that picks from them.
//
// Notifications use one fixed phrase, occasionally personalized with the
// engineer's name. Completions draw uniformly from a static pool; a small
// fraction of completions are routed to the LLM summarizer for a novel
// phrase instead. Randomness is injectable so tests can force either branch.
package messages
