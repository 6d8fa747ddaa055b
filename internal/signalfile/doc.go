// Package signalfile implements marker-file signaling between ephemeral hook
// processes and the daemon.
//
// A producer raises a signal by touching a well-known file in the signal
// directory; the daemon drains the directory on each poll tick, consuming
// every marker it recognizes. Repeated raises of the same kind before a
// drain coalesce into one event. Only the consumer deletes markers.
package signalfile
