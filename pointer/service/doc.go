// Package service exposes the daemon's operations behind a single facade.
//
// PointerService is the contract consumed by every transport (REST,
// WebSocket, MCP): submit movement commands and clicks, inspect cursor
// status, and read or update the active configuration. The implementation
// forwards commands to the driving loop without blocking and never touches
// the motion controller directly, preserving the loop's single-timeline
// ownership.
package service
