// Package sink abstracts the display surface that consumes pointer positions.
//
// A Sink accepts normalized [0,1]x[0,1] coordinates and performs the actual
// cursor placement. Sink failures are treated as recoverable: the driving
// loop logs them and keeps ticking, so an implementation should return errors
// rather than retry internally.
//
// Two implementations ship with the daemon: a uinput-backed virtual pointer
// for real cursor control on Linux, and a no-op sink for dry runs and tests.
package sink
