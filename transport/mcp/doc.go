// Package mcp exposes GridPointer to AI agents over the Model Context
// Protocol.
//
// The package implements a thin MCP client that proxies every tool call to
// the daemon's REST API rather than holding its own handle on the driving
// loop. This keeps a single authority for command submission (the HTTP
// surface) regardless of how many MCP frontends are attached.
//
// Tools:
//   - pointer_move:   step or dash the cursor in a direction
//   - pointer_click:  left-click at the current position
//   - pointer_status: current grid cell, screen coordinate and motion state
//   - get_config:     active grid/movement configuration
//   - update_config:  change grid dimensions, dash distance or tween time
//
// The server can be mounted on an HTTP endpoint or served over stdio; see
// the daemon's "mcp" mode.
package mcp
