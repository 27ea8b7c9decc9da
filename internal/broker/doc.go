// Package broker implements the rendezvous broker that lets two chat
// endpoints find each other by public key.
//
// Each endpoint holds one websocket to the broker, registered under its
// address. Link frames (dial, accept, data, close) are forwarded between
// the two endpoints of a link. The broker only ever sees envelopes that
// are already age-encrypted; it never holds keys.
//
// Wire protocol (JSON text frames)
//
//	GET /v1/connect?address=<age1…>
//	    Upgrade to a websocket and register the address. A second client
//	    for an address already in use is closed with status 4409.
//
//	server → client  {"type":"open"}
//	client → server  {"type":"dial","link":id,"to":addr}
//	server → target  {"type":"dial","link":id,"from":addr}
//	target → server  {"type":"accept","link":id}
//	either → server  {"type":"data","link":id,"payload":b64}
//	either → server  {"type":"close","link":id}
//	server → client  {"type":"close","link":id,"error":"peer unavailable"}
//
// When a client disconnects, every link it was part of is closed towards
// the other side.
package broker
