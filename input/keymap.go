package input

import (
	"github.com/holoplot/go-evdev"

	"github.com/deadman360/gridpointer/pointer/motion"
)

// EventKind tells what an input event asks the daemon to do.
type EventKind int

const (
	KindMove EventKind = iota
	KindClick
	KindQuit
)

// Event is a translated input event.
type Event struct {
	Kind    EventKind
	Command motion.Command
}

const (
	keyPressed  = 1
	keyReleased = 0
)

// keyboardTranslator turns raw keyboard key events into Events. It tracks
// shift state so arrow presses can be promoted to dashes.
type keyboardTranslator struct {
	leftShift  bool
	rightShift bool
}

// Translate maps one key event. The second return is false when the event
// produces no action (releases, repeats, unbound keys).
func (k *keyboardTranslator) Translate(code evdev.EvCode, value int32) (Event, bool) {
	switch code {
	case evdev.KEY_LEFTSHIFT:
		k.leftShift = value != keyReleased
		return Event{}, false
	case evdev.KEY_RIGHTSHIFT:
		k.rightShift = value != keyReleased
		return Event{}, false
	}

	if value != keyPressed {
		return Event{}, false
	}

	dash := k.leftShift || k.rightShift

	switch code {
	case evdev.KEY_UP:
		return Event{Kind: KindMove, Command: motion.Command{Direction: motion.Up, Dash: dash}}, true
	case evdev.KEY_DOWN:
		return Event{Kind: KindMove, Command: motion.Command{Direction: motion.Down, Dash: dash}}, true
	case evdev.KEY_LEFT:
		return Event{Kind: KindMove, Command: motion.Command{Direction: motion.Left, Dash: dash}}, true
	case evdev.KEY_RIGHT:
		return Event{Kind: KindMove, Command: motion.Command{Direction: motion.Right, Dash: dash}}, true
	case evdev.KEY_SPACE:
		return Event{Kind: KindClick}, true
	case evdev.KEY_ESC:
		return Event{Kind: KindQuit}, true
	}

	return Event{}, false
}

// gamepadTranslator maps gamepad button presses. Only the face button and
// start are bound; d-pad movement goes through the keyboard path on pads
// that report arrow key codes.
type gamepadTranslator struct{}

func (gamepadTranslator) Translate(code evdev.EvCode, value int32) (Event, bool) {
	if value != keyPressed {
		return Event{}, false
	}

	switch code {
	case evdev.BTN_SOUTH:
		return Event{Kind: KindClick}, true
	case evdev.BTN_START:
		return Event{Kind: KindQuit}, true
	}

	return Event{}, false
}
