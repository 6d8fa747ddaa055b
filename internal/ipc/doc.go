// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket: status, graceful stop, test announcements, and history listing.
package ipc
