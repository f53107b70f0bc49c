// Package motion implements the cursor motion state machine for GridPointer.
//
// The motion package owns:
//   - Discrete grid positioning with saturating boundary clamping
//   - Continuous screen-space interpolation between grid cells
//   - Cubic ease-out tweening driven by caller-supplied wall-clock time
//   - Mid-flight re-targeting that preserves visual continuity
//
// Core Types:
//
// Controller is the single-owner state machine. Command describes a discrete
// step or dash request. GridPos is an integer cell coordinate bounded by the
// configured grid; ScreenPos is the normalized [0,1]x[0,1] display coordinate
// derived from it.
//
// Usage:
//
//	ctrl := motion.NewController(configManager)
//
//	// On an input event:
//	ctrl.HandleCommand(motion.Command{Direction: motion.Right, Dash: true}, time.Now())
//
//	// On every timer tick:
//	if pos, ok := ctrl.Tick(time.Now()); ok {
//		sink.MoveTo(pos)
//	}
//
// Timing Model:
//
// The controller never reads a clock. Both HandleCommand and Tick take the
// current instant from the caller, which keeps the state machine free of
// hidden time dependencies and fully testable with synthetic timestamps.
// Because interpolation is computed from measured elapsed time rather than a
// tick counter, delayed or skipped ticks self-correct without catch-up logic.
//
// Concurrency:
//
// Controller performs no internal locking. Exactly one goroutine (the driving
// loop) must serialize all HandleCommand and Tick calls onto it.
package motion
