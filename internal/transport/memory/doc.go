// Package memory is an in-process transport. A Network is a rendezvous
// point for endpoints in the same process; links deliver payloads by handing
// events straight to the other side's sink.
//
// It backs the coordinator tests and the demo command.
package memory
