// Package logs tails the chimed daemon's per-run log files for the
// `chime logs` command.
//
// Tail reads either a trailing window (negative offset) or everything past a
// resume offset, and in follow mode polls for new lines under the caller's
// context. Truncated or rotated files restart from the top instead of
// erroring.
package logs
