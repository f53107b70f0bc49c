package motion

import "fmt"

// Direction represents one of the four grid movement directions.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String returns the lowercase wire name of the direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection converts a wire name ("up", "down", "left", "right") into a
// Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (want up, down, left or right)", s)
	}
}

// Command is a discrete movement request. Dash moves the configured
// dash_cells distance instead of a single cell.
type Command struct {
	Direction Direction `json:"direction"`
	Dash      bool      `json:"dash,omitempty"`
}

// GridPos is a 0-indexed cell coordinate, bounded by the configured grid.
type GridPos struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// ScreenPos is a normalized display coordinate in [0,1] x [0,1].
type ScreenPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
