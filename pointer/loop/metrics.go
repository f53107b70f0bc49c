package loop

import "sync/atomic"

// Metrics records runtime counters for monitoring and debugging. All fields
// are updated atomically and may be read from any goroutine.
type Metrics struct {
	TickCount        int64 // timer ticks processed
	TotalTickNs      int64 // cumulative tick processing time
	CommandsAccepted int64 // commands that produced a movement segment
	CommandsIgnored  int64 // commands dropped (wall no-op or config busy)
	CommandsOverflow int64 // commands discarded because the buffer was full
	PositionsEmitted int64 // positions forwarded to the sink
	SinkErrors       int64 // failed sink calls (moves and clicks)
}

func (m *Metrics) IncAccepted() { atomic.AddInt64(&m.CommandsAccepted, 1) }
func (m *Metrics) IncIgnored()  { atomic.AddInt64(&m.CommandsIgnored, 1) }
func (m *Metrics) IncOverflow() { atomic.AddInt64(&m.CommandsOverflow, 1) }
func (m *Metrics) IncEmitted()  { atomic.AddInt64(&m.PositionsEmitted, 1) }
func (m *Metrics) IncSinkErr()  { atomic.AddInt64(&m.SinkErrors, 1) }

func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot returns a read-only copy suitable for JSON output.
func (m *Metrics) Snapshot() map[string]any {
	ticks := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgUs float64
	if ticks > 0 {
		avgUs = float64(total) / float64(ticks) / 1e3
	}
	return map[string]any{
		"tick_count":        ticks,
		"avg_tick_us":       avgUs,
		"commands_accepted": atomic.LoadInt64(&m.CommandsAccepted),
		"commands_ignored":  atomic.LoadInt64(&m.CommandsIgnored),
		"commands_overflow": atomic.LoadInt64(&m.CommandsOverflow),
		"positions_emitted": atomic.LoadInt64(&m.PositionsEmitted),
		"sink_errors":       atomic.LoadInt64(&m.SinkErrors),
	}
}
