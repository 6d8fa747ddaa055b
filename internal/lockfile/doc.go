// Package lockfile provides flock-based exclusivity and PID file records.
//
// Two locks exist in chime: the daemon instance lock, which refuses a second
// daemon, and the playback lock, which serializes audio output by dropping
// announcements while another holder plays. Both rely on the kernel releasing
// flocks when the holding process exits, so a crashed holder can never wedge
// a lock.
package lockfile
