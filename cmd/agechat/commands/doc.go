// Package commands defines the agechat CLI and wires dependencies for subcommands.
//
// Commands
//
//   - chat [invite]      Open a session, optionally dialing the inviter
//   - identity show      Print the stored identity and its invite link
//   - identity save      Create the identity if needed and store it
//   - identity clear     Remove the stored identity
//   - invite             Print an invite link for the stored identity
//   - fingerprint a [b]  Print the safety words shared by two public keys
//   - demo               Run two sessions in-process and show both histories
//   - version            Print the build version
//
// # Implementation
//
// The root command resolves the home directory and builds the app.Wire
// (identity store, crypto, codec, broker transport) before any subcommand
// runs. chat runs the coordinator, the history printer and the input reader
// under one errgroup; all three stop when the coordinator does.
package commands
