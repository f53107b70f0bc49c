package input

import (
	"context"
	"errors"

	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"

	"github.com/deadman360/gridpointer/pointer/config"
)

// ErrNoDevices is returned when neither a keyboard nor a gamepad could be
// opened.
var ErrNoDevices = errors.New("input: no suitable input devices found")

// Manager owns the open input devices and fans their events into a single
// channel.
type Manager struct {
	keyboard *evdev.InputDevice
	gamepad  *evdev.InputDevice
	log      *zap.SugaredLogger
	events   chan Event
}

// NewManager opens the devices named in cfg, falling back to capability
// discovery for any path left empty. At least one device must open.
func NewManager(cfg config.InputConfig, log *zap.SugaredLogger) (*Manager, error) {
	m := &Manager{
		log:    log,
		events: make(chan Event, 64),
	}

	var err error
	if cfg.KeyboardDevice != "" {
		m.keyboard, err = evdev.Open(cfg.KeyboardDevice)
		if err != nil {
			return nil, err
		}
	} else {
		m.keyboard = discoverDevice(log, "keyboard", isKeyboard)
	}

	if cfg.GamepadDevice != "" {
		m.gamepad, err = evdev.Open(cfg.GamepadDevice)
		if err != nil {
			m.closeAll()
			return nil, err
		}
	} else {
		m.gamepad = discoverDevice(log, "gamepad", isGamepad)
	}

	if m.keyboard == nil && m.gamepad == nil {
		return nil, ErrNoDevices
	}

	log.Infow("input devices initialized",
		"keyboard", m.keyboard != nil,
		"gamepad", m.gamepad != nil)

	return m, nil
}

// Events returns the channel translated events are delivered on. It is
// closed when all device readers have stopped.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Run drains the open devices until ctx is cancelled. Device read errors
// stop that device's reader; Run returns once every reader has stopped.
func (m *Manager) Run(ctx context.Context) error {
	done := make(chan struct{}, 2)
	readers := 0

	if m.keyboard != nil {
		readers++
		kb := &keyboardTranslator{}
		go m.readDevice(ctx, m.keyboard, kb.Translate, done)
	}
	if m.gamepad != nil {
		readers++
		gp := gamepadTranslator{}
		go m.readDevice(ctx, m.gamepad, gp.Translate, done)
	}

	go func() {
		<-ctx.Done()
		m.closeAll()
	}()

	for i := 0; i < readers; i++ {
		<-done
	}
	close(m.events)
	return nil
}

type translateFunc func(code evdev.EvCode, value int32) (Event, bool)

// readDevice blocks on ReadOne and forwards translated events. Closing the
// device (on ctx cancel) unblocks the read with an error.
func (m *Manager) readDevice(ctx context.Context, dev *evdev.InputDevice, translate translateFunc, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				m.log.Warnw("input device read failed", "error", err)
			}
			return
		}

		if ev.Type != evdev.EV_KEY {
			continue
		}

		event, ok := translate(ev.Code, ev.Value)
		if !ok {
			continue
		}

		select {
		case m.events <- event:
		default:
			m.log.Debugw("input event dropped, channel full")
		}
	}
}

func (m *Manager) closeAll() {
	if m.keyboard != nil {
		m.keyboard.Close()
	}
	if m.gamepad != nil {
		m.gamepad.Close()
	}
}

// discoverDevice scans /dev/input for the first device passing the
// capability check.
func discoverDevice(log *zap.SugaredLogger, kind string, match func(*evdev.InputDevice) bool) *evdev.InputDevice {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		log.Warnw("input device enumeration failed", "error", err)
		return nil
	}

	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		if match(dev) {
			log.Debugw("discovered input device", "kind", kind, "path", p.Path, "name", p.Name)
			return dev
		}
		dev.Close()
	}
	return nil
}

func isKeyboard(dev *evdev.InputDevice) bool {
	keys := supportedKeys(dev)
	return keys[evdev.KEY_A] && keys[evdev.KEY_SPACE]
}

func isGamepad(dev *evdev.InputDevice) bool {
	keys := supportedKeys(dev)
	return keys[evdev.BTN_SOUTH] && keys[evdev.BTN_EAST]
}

func supportedKeys(dev *evdev.InputDevice) map[evdev.EvCode]bool {
	keys := make(map[evdev.EvCode]bool)
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		keys[code] = true
	}
	return keys
}
