// Package api implements GridPointer's HTTP surface.
//
// The api package provides:
//   - REST endpoints for movement, clicks, status and configuration
//   - Health and metrics endpoints for monitoring
//   - The WebSocket upgrade path (delegated to transport/websocket)
//
// Endpoints:
//
//	POST /api/move    {"direction": "up|down|left|right", "dash": bool}
//	POST /api/click
//	GET  /api/status
//	GET  /api/config
//	PUT  /api/config  full configuration document (validated, persisted)
//	GET  /healthz
//	GET  /metrics     JSON runtime counters
//	GET  /ws          WebSocket upgrade
//
// Configuration updates take effect on the next issued command; an in-flight
// animation keeps the parameters it was started with.
package api
