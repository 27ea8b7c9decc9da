// Package coordinator runs the connection state machine of a chat session.
//
// A Coordinator owns one local endpoint addressed by the local public key
// and at most one link to a peer. Transport events, user commands and the
// results of background crypto work all enter a single mailbox and are
// handled on one goroutine, so the connection state has a single writer.
// Readers observe it through State snapshots and the history log.
package coordinator
