// Package input reads movement commands from evdev keyboard and gamepad
// devices. Devices are taken from the configuration when paths are set,
// otherwise discovered by capability scan. Each open device is drained by
// its own goroutine and translated events are fanned into a single channel.
package input
