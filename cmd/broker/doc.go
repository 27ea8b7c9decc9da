// Package main runs the agechat rendezvous broker.
//
// HTTP API
//
//	GET /v1/connect?address=<age1…>
//	    Upgrade to a websocket and register the address. Link frames are
//	    forwarded between registered endpoints; see internal/broker.
//
//	GET /healthz
//	    Liveness probe.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - The broker never sees plaintext or private keys; it forwards
//     age-encrypted envelopes between two websockets.
//   - An address is not authenticated: whoever registers it first holds it
//     until disconnecting.
//   - The default listen address is :8787.
package main
