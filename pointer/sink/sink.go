package sink

import (
	"github.com/deadman360/gridpointer/pointer/motion"
)

// Sink places the cursor on a display surface.
type Sink interface {
	// MoveTo places the cursor at a normalized screen coordinate.
	MoveTo(pos motion.ScreenPos) error
	// Click performs a left button press and release at the current
	// position.
	Click() error
	// Close releases the underlying device.
	Close() error
}

// Null is a Sink that discards everything. Used for dry runs.
type Null struct{}

// NewNull returns a discarding sink.
func NewNull() *Null { return &Null{} }

func (*Null) MoveTo(motion.ScreenPos) error { return nil }
func (*Null) Click() error                  { return nil }
func (*Null) Close() error                  { return nil }
