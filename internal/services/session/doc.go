// Package session decides how a session starts.
//
// It reads the invite link the process was started with and resolves the
// initial recipient, if any. It never opens a link itself; the coordinator
// dials the resolved recipient or waits for an inbound link.
package session
