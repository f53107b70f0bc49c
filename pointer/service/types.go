package service

import (
	"context"

	"github.com/deadman360/gridpointer/pointer/config"
	"github.com/deadman360/gridpointer/pointer/loop"
)

// PointerService defines all pointer-daemon operations available to
// transports.
type PointerService interface {
	// Move submits a step or dash command. Accepted=false means the
	// command buffer was full and the command was discarded.
	Move(ctx context.Context, direction string, dash bool) (*MoveResult, error)

	// Click requests a left button press at the current position.
	Click(ctx context.Context) error

	// Status returns the latest cursor snapshot.
	Status(ctx context.Context) (loop.Status, error)

	// Metrics returns the loop's runtime counters.
	Metrics(ctx context.Context) (map[string]any, error)

	// GetConfig returns the active configuration.
	GetConfig(ctx context.Context) (config.Config, error)

	// UpdateConfig validates, applies and persists a new configuration.
	// It takes effect on the next issued command.
	UpdateConfig(ctx context.Context, cfg config.Config) error
}

// MoveResult reports the outcome of a submitted movement command.
type MoveResult struct {
	Accepted  bool        `json:"accepted"`
	Direction string      `json:"direction"`
	Dash      bool        `json:"dash"`
	Status    loop.Status `json:"status"`
}
