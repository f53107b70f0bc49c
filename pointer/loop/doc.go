// Package loop implements the fixed-rate driving loop of the daemon.
//
// The loop owns the single timeline on which the motion controller lives:
// commands, clicks and timer ticks from any number of producers are
// serialized through channels onto one goroutine, which is the only code
// that ever touches the controller. Produced positions are forwarded to the
// display sink; sink errors are logged and counted but never interrupt the
// cadence.
//
// Tick Policy:
//
// The loop runs a time.Ticker at 360 Hz. Go tickers drop intervals when the
// receiver falls behind, which is exactly the required skip-not-burst
// behavior: a late tick measures a larger elapsed time against the segment's
// unchanged start instant and the easing self-corrects, so missed ticks are
// never replayed.
//
// Observability:
//
// The loop maintains atomic runtime counters (Metrics) and publishes a
// read-only Status snapshot after every state change, so admin surfaces can
// inspect the cursor without entering the controller's timeline.
package loop
