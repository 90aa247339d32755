// Package rpc implements the presence client: a connection to the local
// Discord client over its IPC socket.
//
// Frames are a little-endian opcode and length followed by a JSON payload.
// After the handshake the external process dispatches READY; from then on
// SetActivity submits the presence and waits for the reply carrying the same
// nonce, while dispatched events are delivered to handlers registered with
// OnEvent.
//
// The connection lives on its own goroutine. It reconnects with exponential
// backoff until the context passed to Start is done or Close is called.
// Handlers run on that goroutine.
package rpc
