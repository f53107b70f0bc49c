package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/deadman360/gridpointer/pointer/config"
	"github.com/deadman360/gridpointer/pointer/motion"
)

type stubSource struct {
	cfg config.Config
}

func (s *stubSource) TrySnapshot() (config.Config, bool) {
	return s.cfg, true
}

func newStubSource() *stubSource {
	return &stubSource{cfg: config.Config{
		Grid:     config.GridConfig{Cols: 10, Rows: 10},
		Movement: config.MovementConfig{DashCells: 3, TweenMs: 40},
		Display:  config.DisplayConfig{Width: 1920, Height: 1080},
	}}
}

// memorySink records every position and click it receives.
type memorySink struct {
	mu        sync.Mutex
	positions []motion.ScreenPos
	clicks    int
	failMoves bool
}

func (m *memorySink) MoveTo(pos motion.ScreenPos) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMoves {
		return errors.New("device gone")
	}
	m.positions = append(m.positions, pos)
	return nil
}

func (m *memorySink) Click() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks++
	return nil
}

func (m *memorySink) Close() error { return nil }

func (m *memorySink) snapshot() []motion.ScreenPos {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]motion.ScreenPos, len(m.positions))
	copy(out, m.positions)
	return out
}

func runLoopFor(t *testing.T, l *Loop, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(d + 2*time.Second):
		t.Fatal("loop did not stop on context cancellation")
	}
}

func TestLoop_AnimatesCommandToCompletion(t *testing.T) {
	out := &memorySink{}
	l := New(motion.NewControllerAt(newStubSource(), motion.GridPos{}, motion.ScreenPos{}), out, nil,
		Options{Interval: 2 * time.Millisecond})

	if !l.Submit(motion.Command{Direction: motion.Right, Dash: true}) {
		t.Fatal("Submit rejected with empty buffer")
	}

	runLoopFor(t, l, 250*time.Millisecond)

	positions := out.snapshot()
	if len(positions) < 2 {
		t.Fatalf("expected several interpolated positions, got %d", len(positions))
	}

	// Positions advance monotonically toward the target and land exactly
	// on it.
	target := motion.ScreenPos{X: 3.0 / 9.0, Y: 0}
	prev := -1.0
	for i, pos := range positions {
		if pos.X < prev {
			t.Fatalf("position %d regressed: %v < %v", i, pos.X, prev)
		}
		prev = pos.X
	}
	if final := positions[len(positions)-1]; final != target {
		t.Errorf("final position: expected %+v, got %+v", target, final)
	}

	status := l.Status()
	if status.Moving {
		t.Error("status still moving after completion")
	}
	if status.Grid != (motion.GridPos{Col: 3, Row: 0}) {
		t.Errorf("status grid: expected (3,0), got %+v", status.Grid)
	}

	// The terminal position is emitted exactly once: ticks keep running
	// after completion but emissions stop.
	emitted := len(positions)
	if int64(emitted) != l.Metrics().PositionsEmitted {
		t.Errorf("metrics emitted %d, sink saw %d", l.Metrics().PositionsEmitted, emitted)
	}
}

func TestLoop_SinkFailuresDoNotStopMotion(t *testing.T) {
	out := &memorySink{failMoves: true}
	l := New(motion.NewControllerAt(newStubSource(), motion.GridPos{}, motion.ScreenPos{}), out, nil,
		Options{Interval: 2 * time.Millisecond})

	l.Submit(motion.Command{Direction: motion.Right})
	runLoopFor(t, l, 150*time.Millisecond)

	if l.Metrics().SinkErrors == 0 {
		t.Error("expected sink errors to be counted")
	}
	// The controller completed the animation regardless of sink failures.
	status := l.Status()
	if status.Moving {
		t.Error("animation did not complete under sink failures")
	}
	if status.Grid != (motion.GridPos{Col: 1, Row: 0}) {
		t.Errorf("grid position: expected (1,0), got %+v", status.Grid)
	}
}

func TestLoop_ClickRoutedToSink(t *testing.T) {
	out := &memorySink{}
	l := New(motion.NewController(newStubSource()), out, nil, Options{Interval: 2 * time.Millisecond})

	if !l.Click() {
		t.Fatal("Click rejected with empty buffer")
	}
	runLoopFor(t, l, 50*time.Millisecond)

	out.mu.Lock()
	clicks := out.clicks
	out.mu.Unlock()
	if clicks != 1 {
		t.Errorf("expected 1 click, got %d", clicks)
	}
}

func TestLoop_SubmitDropsOnFullBuffer(t *testing.T) {
	// The loop is never started, so nothing drains the channel.
	l := New(motion.NewController(newStubSource()), &memorySink{}, nil, Options{CommandBuffer: 2})

	if !l.Submit(motion.Command{Direction: motion.Right}) {
		t.Fatal("first submit rejected")
	}
	if !l.Submit(motion.Command{Direction: motion.Right}) {
		t.Fatal("second submit rejected")
	}
	if l.Submit(motion.Command{Direction: motion.Right}) {
		t.Error("submit succeeded past buffer capacity")
	}
	if l.Metrics().CommandsOverflow != 1 {
		t.Errorf("expected 1 overflow, got %d", l.Metrics().CommandsOverflow)
	}
}

func TestLoop_WallCommandsCountedAsIgnored(t *testing.T) {
	out := &memorySink{}
	l := New(motion.NewController(newStubSource()), out, nil, Options{Interval: 2 * time.Millisecond})

	// (0,0) is the origin; stepping left hits the wall.
	l.Submit(motion.Command{Direction: motion.Left})
	runLoopFor(t, l, 50*time.Millisecond)

	if l.Metrics().CommandsIgnored != 1 {
		t.Errorf("expected 1 ignored command, got %d", l.Metrics().CommandsIgnored)
	}
	if got := len(out.snapshot()); got != 0 {
		t.Errorf("wall command produced %d positions", got)
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	updates []Status
}

func (r *recordingObserver) Notify(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func TestLoop_ObserverSeesEmittedPositions(t *testing.T) {
	obs := &recordingObserver{}
	l := New(motion.NewControllerAt(newStubSource(), motion.GridPos{}, motion.ScreenPos{}), &memorySink{}, nil,
		Options{Interval: 2 * time.Millisecond, Observer: obs})

	l.Submit(motion.Command{Direction: motion.Right, Dash: true})
	runLoopFor(t, l, 200*time.Millisecond)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.updates) == 0 {
		t.Fatal("observer saw no updates")
	}
	last := obs.updates[len(obs.updates)-1]
	if last.Screen != (motion.ScreenPos{X: 3.0 / 9.0, Y: 0}) {
		t.Errorf("last observed position: %+v", last.Screen)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	var m Metrics
	m.AddTick(1000)
	m.AddTick(3000)
	m.IncAccepted()
	m.IncEmitted()
	m.IncSinkErr()

	snap := m.Snapshot()
	if snap["tick_count"] != int64(2) {
		t.Errorf("tick_count: %v", snap["tick_count"])
	}
	if snap["avg_tick_us"] != 2.0 {
		t.Errorf("avg_tick_us: %v", snap["avg_tick_us"])
	}
	if snap["commands_accepted"] != int64(1) {
		t.Errorf("commands_accepted: %v", snap["commands_accepted"])
	}
}
