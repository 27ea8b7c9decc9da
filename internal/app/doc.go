// Package app wires application dependencies for the CLI.
//
// It builds the identity store, crypto provider, envelope codec and peer
// transport from Config, exposing them via the Wire struct. NewSession then
// assembles one chat session in a fixed order: identity, history log,
// coordinator.
package app
