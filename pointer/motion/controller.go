package motion

import (
	"time"

	"github.com/deadman360/gridpointer/pointer/config"
)

// ConfigSource supplies a configuration snapshot without blocking.
// TrySnapshot reports ok=false when the configuration is momentarily held by
// a writer; the controller then drops the command rather than waiting.
type ConfigSource interface {
	TrySnapshot() (config.Config, bool)
}

// segment is an in-flight linear interpolation between two screen positions.
// Its parameters are frozen at command time; a later configuration change
// never alters an animation already in progress.
type segment struct {
	from     ScreenPos
	to       ScreenPos
	start    time.Time
	duration time.Duration
}

// positionAt computes the eased position on the segment at the given instant.
// This is the single interpolation formula for the whole controller: Tick
// emits it and HandleCommand reuses it for redirect continuity, so the two
// can never disagree.
func (s segment) positionAt(now time.Time) ScreenPos {
	if s.duration <= 0 {
		return s.to
	}
	p := float64(now.Sub(s.start)) / float64(s.duration)
	e := EaseOutCubic(p)
	return ScreenPos{
		X: s.from.X + (s.to.X-s.from.X)*e,
		Y: s.from.Y + (s.to.Y-s.from.Y)*e,
	}
}

// done reports whether the segment has reached its full duration.
func (s segment) done(now time.Time) bool {
	return now.Sub(s.start) >= s.duration
}

// Controller is the motion state machine. It holds the discrete grid
// position, the continuous screen position, and at most one in-flight
// animation segment. It is not safe for concurrent use; all calls must be
// serialized by a single owner.
type Controller struct {
	cfg ConfigSource

	gridPos   GridPos
	screenPos ScreenPos
	moving    bool
	seg       segment
}

// NewController returns an idle controller at grid origin with the screen
// position parked at the display center.
func NewController(cfg ConfigSource) *Controller {
	return NewControllerAt(cfg, GridPos{}, ScreenPos{X: 0.5, Y: 0.5})
}

// NewControllerAt returns an idle controller with caller-supplied initial
// grid and screen positions.
func NewControllerAt(cfg ConfigSource, grid GridPos, screen ScreenPos) *Controller {
	return &Controller{
		cfg:       cfg,
		gridPos:   grid,
		screenPos: screen,
	}
}

// GridPosition returns the current discrete cell coordinate.
func (c *Controller) GridPosition() GridPos {
	return c.gridPos
}

// ScreenPosition returns the last computed continuous screen position.
func (c *Controller) ScreenPosition() ScreenPos {
	return c.screenPos
}

// Moving reports whether an animation segment is in flight.
func (c *Controller) Moving() bool {
	return c.moving
}

// HandleCommand consumes a discrete movement request at the given instant.
//
// Configuration is read once, non-blockingly, and frozen into the resulting
// segment. When the snapshot is unavailable the command is silently dropped;
// it is not retried and the caller sees false, the same as a no-op move.
// Moving against a boundary clamps to the boundary cell; a command
// that does not change the cell installs no segment. A command arriving
// mid-flight replaces the active segment, starting from the interpolated
// position at now so the cursor redirects without a visual snap.
func (c *Controller) HandleCommand(cmd Command, now time.Time) bool {
	snap, ok := c.cfg.TrySnapshot()
	if !ok {
		return false
	}

	distance := 1
	if cmd.Dash {
		distance = snap.Movement.DashCells
	}

	next := applyDirection(c.gridPos, cmd.Direction, distance, snap.Grid)
	if next == c.gridPos {
		return false
	}

	if c.moving {
		c.screenPos = c.seg.positionAt(now)
	}

	c.seg = segment{
		from:     c.screenPos,
		to:       gridToScreen(next, snap.Grid),
		start:    now,
		duration: time.Duration(snap.Movement.TweenMs) * time.Millisecond,
	}
	c.moving = true
	c.gridPos = next
	return true
}

// Tick advances the animation to the given instant.
//
// It returns (position, true) while a segment is in flight: the eased
// interpolation before the deadline, and exactly the segment target once the
// deadline passes (snapping away any floating-point drift). After that
// terminal emission the controller is idle and Tick returns ok=false until a
// new command arrives.
func (c *Controller) Tick(now time.Time) (ScreenPos, bool) {
	if !c.moving {
		return ScreenPos{}, false
	}

	if c.seg.done(now) {
		c.screenPos = c.seg.to
		c.moving = false
		return c.seg.to, true
	}

	pos := c.seg.positionAt(now)
	c.screenPos = pos
	return pos, true
}

// applyDirection moves pos by distance cells in the given direction with
// saturating arithmetic: boundary overruns clamp to the edge, never wrap and
// never error.
func applyDirection(pos GridPos, dir Direction, distance int, grid config.GridConfig) GridPos {
	switch dir {
	case Up:
		pos.Row = max(pos.Row-distance, 0)
	case Down:
		pos.Row = min(pos.Row+distance, grid.Rows-1)
	case Left:
		pos.Col = max(pos.Col-distance, 0)
	case Right:
		pos.Col = min(pos.Col+distance, grid.Cols-1)
	}
	return pos
}

// gridToScreen maps a cell to its normalized screen coordinate. Degenerate
// single-column or single-row grids map to 0 on that axis.
func gridToScreen(pos GridPos, grid config.GridConfig) ScreenPos {
	var sp ScreenPos
	if grid.Cols > 1 {
		sp.X = float64(pos.Col) / float64(grid.Cols-1)
	}
	if grid.Rows > 1 {
		sp.Y = float64(pos.Row) / float64(grid.Rows-1)
	}
	return sp
}
