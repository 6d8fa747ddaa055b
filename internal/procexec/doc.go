// Package procexec runs external processes for chime.
//
// Two modes are provided. Detach launches a process and immediately releases
// it, used by ephemeral hooks that must return before the work finishes. Run
// supervises a process with a deadline: the child is placed in its own
// process group so that timeout termination reaches grandchildren too.
//
// Supervised processes receive an explicit environment assembled from an
// allowlist, never the full parent environment.
package procexec
