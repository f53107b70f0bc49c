package sink

import (
	"fmt"

	"github.com/bendahl/uinput"

	"github.com/deadman360/gridpointer/pointer/motion"
)

const uinputPath = "/dev/uinput"

// Uinput drives a virtual absolute-positioning pointer through the Linux
// uinput subsystem. Normalized coordinates are scaled to the configured
// display dimensions.
type Uinput struct {
	pad    uinput.TouchPad
	width  int
	height int
}

// NewUinput creates the virtual pointer device. width and height are the
// physical display dimensions in pixels.
func NewUinput(deviceName string, width, height int) (*Uinput, error) {
	pad, err := uinput.CreateTouchPad(uinputPath, []byte(deviceName), 0, int32(width-1), 0, int32(height-1))
	if err != nil {
		return nil, fmt.Errorf("failed to create uinput pointer: %w", err)
	}
	return &Uinput{pad: pad, width: width, height: height}, nil
}

// MoveTo scales pos to absolute pixels and places the cursor there.
func (u *Uinput) MoveTo(pos motion.ScreenPos) error {
	x := int32(pos.X * float64(u.width-1))
	y := int32(pos.Y * float64(u.height-1))
	if err := u.pad.MoveTo(x, y); err != nil {
		return fmt.Errorf("cursor move to (%d,%d) failed: %w", x, y, err)
	}
	return nil
}

// Click presses and releases the left button.
func (u *Uinput) Click() error {
	if err := u.pad.LeftClick(); err != nil {
		return fmt.Errorf("left click failed: %w", err)
	}
	return nil
}

// Close destroys the virtual device.
func (u *Uinput) Close() error {
	return u.pad.Close()
}
