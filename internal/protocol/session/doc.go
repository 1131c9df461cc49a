// Package session owns the window-to-window control session helpers.
//
// Ownership boundary:
// - control message shapes and their frame codecs
// - the dispatcher payload blob a parent hands to a child process
// - per-endpoint FIFO outbox
// - socket addressing under the runtime directory
package session
