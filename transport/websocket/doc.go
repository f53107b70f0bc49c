// Package websocket provides the WebSocket transport for GridPointer.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// connections. Each client connection is handled by dedicated read and write
// goroutines.
//
// Message Protocol:
//
// Messages are JSON-encoded.
//   - Incoming: {"action": "move", "direction": "up", "dash": false} or
//     {"action": "click"}
//   - Outgoing: {"type": "position", "status": {...}} pushed for every
//     position the driving loop emits, plus one initial status frame on
//     connect.
//
// Flow Control:
//
// The hub implements loop.Observer; position frames are handed over with a
// non-blocking send so the driving loop is never delayed by the transport.
// A client whose send buffer stays full is disconnected rather than allowed
// to back-pressure the broadcast.
package websocket
