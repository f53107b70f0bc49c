package config

import (
	"fmt"
)

// Validation bounds for configuration fields.
const (
	MinGridDim  = 1
	MaxGridDim  = 512
	MaxDashSize = 512
	MaxTweenMs  = 10000
)

// Config is the full daemon configuration, loaded from TOML.
type Config struct {
	Grid     GridConfig     `toml:"grid" json:"grid"`
	Movement MovementConfig `toml:"movement" json:"movement"`
	Input    InputConfig    `toml:"input" json:"input"`
	Display  DisplayConfig  `toml:"display" json:"display"`
}

// GridConfig describes the logical grid overlaid on the display.
type GridConfig struct {
	Cols int `toml:"cols" json:"cols"`
	Rows int `toml:"rows" json:"rows"`
}

// MovementConfig describes movement distances and tween timing.
type MovementConfig struct {
	DashCells int `toml:"dash_cells" json:"dash_cells"`
	TweenMs   int `toml:"tween_ms" json:"tween_ms"`
}

// InputConfig optionally pins input devices to explicit evdev paths.
// Empty values mean auto-discovery.
type InputConfig struct {
	KeyboardDevice string `toml:"keyboard_device" json:"keyboard_device"`
	GamepadDevice  string `toml:"gamepad_device" json:"gamepad_device"`
}

// DisplayConfig describes the physical output the normalized coordinates are
// scaled to.
type DisplayConfig struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
}

// Default returns the configuration written on first run.
func Default() Config {
	return Config{
		Grid:     GridConfig{Cols: 20, Rows: 12},
		Movement: MovementConfig{DashCells: 5, TweenMs: 150},
		Input:    InputConfig{},
		Display:  DisplayConfig{Width: 1920, Height: 1080},
	}
}

// Validate checks a configuration for correctness.
func Validate(cfg *Config) error {
	if cfg.Grid.Cols < MinGridDim || cfg.Grid.Cols > MaxGridDim {
		return fmt.Errorf("config validation: grid.cols must be between %d and %d, got %d",
			MinGridDim, MaxGridDim, cfg.Grid.Cols)
	}
	if cfg.Grid.Rows < MinGridDim || cfg.Grid.Rows > MaxGridDim {
		return fmt.Errorf("config validation: grid.rows must be between %d and %d, got %d",
			MinGridDim, MaxGridDim, cfg.Grid.Rows)
	}
	if cfg.Movement.DashCells < 0 || cfg.Movement.DashCells > MaxDashSize {
		return fmt.Errorf("config validation: movement.dash_cells must be between 0 and %d, got %d",
			MaxDashSize, cfg.Movement.DashCells)
	}
	if cfg.Movement.TweenMs < 0 || cfg.Movement.TweenMs > MaxTweenMs {
		return fmt.Errorf("config validation: movement.tween_ms must be between 0 and %d, got %d",
			MaxTweenMs, cfg.Movement.TweenMs)
	}
	if cfg.Display.Width <= 0 || cfg.Display.Height <= 0 {
		return fmt.Errorf("config validation: display.width and display.height must be positive, got %dx%d",
			cfg.Display.Width, cfg.Display.Height)
	}
	return nil
}
