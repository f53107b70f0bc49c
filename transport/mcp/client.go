package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deadman360/gridpointer/pointer/config"
	"github.com/deadman360/gridpointer/pointer/loop"
	"github.com/deadman360/gridpointer/pointer/service"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates an MCP client targeting the REST API at baseURL.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// GetMCPServer returns the underlying MCP server for mounting or stdio use.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"GridPointer",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`GridPointer - MCP Interface

This is a thin client that proxies all requests to the daemon's REST API.

GridPointer overlays a logical grid on the display and moves the cursor
between grid cells with smooth eased animation. Moves are asynchronous: a
tool call submits the command and returns immediately while the daemon
animates over the configured tween duration.

AVAILABLE TOOLS:
- pointer_move: step one cell or dash several cells (up/down/left/right)
- pointer_click: left-click at the current cursor position
- pointer_status: current grid cell, normalized screen position, motion state
- get_config: current grid size, dash distance, tween duration
- update_config: change grid size, dash distance or tween duration

NOTES:
- Moving against a grid edge clamps to the edge; it is never an error.
- Configuration changes apply to the next move, not to one in flight.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pointer_move",
		Description: "Move the cursor one cell (or dash several cells) in a direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Movement direction: up, down, left or right",
					"enum":        []string{"up", "down", "left", "right"},
				},
				"dash": map[string]interface{}{
					"type":        "boolean",
					"description": "Move the configured dash distance instead of one cell",
				},
			},
			Required: []string{"direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pointer_click",
		Description: "Perform a left click at the current cursor position",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleClick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pointer_status",
		Description: "Get the current grid cell, screen position and motion state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_config",
		Description: "Get the active grid and movement configuration",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGetConfig)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "update_config",
		Description: "Update grid dimensions, dash distance or tween duration; omitted fields keep their current values",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cols": map[string]interface{}{
					"type":        "number",
					"description": "Grid columns",
				},
				"rows": map[string]interface{}{
					"type":        "number",
					"description": "Grid rows",
				},
				"dash_cells": map[string]interface{}{
					"type":        "number",
					"description": "Cells covered by a dash",
				},
				"tween_ms": map[string]interface{}{
					"type":        "number",
					"description": "Animation duration per move in milliseconds",
				},
			},
		},
	}, c.handleUpdateConfig)
}

// Tool handlers

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	direction, _ := args["direction"].(string)
	dash, _ := args["dash"].(bool)

	body := map[string]interface{}{
		"direction": direction,
		"dash":      dash,
	}

	var result service.MoveResult
	if err := c.apiCall("POST", "/api/move", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response map[string]string
	if err := c.apiCall("POST", "/api/click", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Click performed."), nil
}

func (c *Client) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status loop.Status
	if err := c.apiCall("GET", "/api/status", nil, &status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStatus(&status)), nil
}

func (c *Client) handleGetConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var cfg config.Config
	if err := c.apiCall("GET", "/api/config", nil, &cfg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatConfig(&cfg)), nil
}

func (c *Client) handleUpdateConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	// Read-modify-write: omitted fields keep their current values.
	var cfg config.Config
	if err := c.apiCall("GET", "/api/config", nil, &cfg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if cols, ok := args["cols"].(float64); ok {
		cfg.Grid.Cols = int(cols)
	}
	if rows, ok := args["rows"].(float64); ok {
		cfg.Grid.Rows = int(rows)
	}
	if dash, ok := args["dash_cells"].(float64); ok {
		cfg.Movement.DashCells = int(dash)
	}
	if tween, ok := args["tween_ms"].(float64); ok {
		cfg.Movement.TweenMs = int(tween)
	}

	var updated config.Config
	if err := c.apiCall("PUT", "/api/config", cfg, &updated); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Configuration updated.\n\n" + formatConfig(&updated)), nil
}

// apiCall performs an HTTP request against the REST API and decodes the JSON
// response into out.
func (c *Client) apiCall(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("API error: %s", apiErr.Error)
		}
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Formatting helpers

func formatMoveResult(result *service.MoveResult) string {
	kind := "Step"
	if result.Dash {
		kind = "Dash"
	}
	if !result.Accepted {
		return fmt.Sprintf("%s %s was discarded (command buffer full). Try again.", kind, result.Direction)
	}
	return fmt.Sprintf("%s %s submitted.\n\n%s", kind, result.Direction, formatStatus(&result.Status))
}

func formatStatus(status *loop.Status) string {
	state := "idle"
	if status.Moving {
		state = "moving"
	}
	return fmt.Sprintf("Cursor: grid cell (%d, %d), screen (%.3f, %.3f), %s",
		status.Grid.Col, status.Grid.Row, status.Screen.X, status.Screen.Y, state)
}

func formatConfig(cfg *config.Config) string {
	return fmt.Sprintf("Grid: %dx%d\nDash distance: %d cells\nTween duration: %d ms\nDisplay: %dx%d",
		cfg.Grid.Cols, cfg.Grid.Rows,
		cfg.Movement.DashCells, cfg.Movement.TweenMs,
		cfg.Display.Width, cfg.Display.Height)
}
