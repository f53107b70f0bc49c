package loop

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/deadman360/gridpointer/pointer/motion"
	"github.com/deadman360/gridpointer/pointer/sink"
)

const (
	// TicksPerSecond is the update rate of the driving loop (≈2.78ms per
	// tick).
	TicksPerSecond = 360

	// DefaultCommandBuffer bounds how many commands may queue between
	// ticks before submissions are discarded.
	DefaultCommandBuffer = 64
)

// TickInterval is the period of the driving loop's timer.
var TickInterval = time.Second / TicksPerSecond

// Status is a read-only snapshot of the cursor state, published atomically
// by the loop after every state change.
type Status struct {
	Grid   motion.GridPos   `json:"grid"`
	Screen motion.ScreenPos `json:"screen"`
	Moving bool             `json:"moving"`
	Tick   uint64           `json:"tick"`
}

// Observer receives every position the loop emits. Implementations must not
// block; the loop calls Notify synchronously on the tick path.
type Observer interface {
	Notify(Status)
}

// Options tune a Loop. The zero value selects the defaults.
type Options struct {
	Interval      time.Duration // timer period, default TickInterval
	CommandBuffer int           // command channel capacity, default DefaultCommandBuffer
	Observer      Observer      // optional position observer
}

// Loop drives a motion controller at a fixed rate and fans commands into it.
// Exactly one goroutine (the one running Run) touches the controller.
type Loop struct {
	ctrl     *motion.Controller
	out      sink.Sink
	log      *zap.SugaredLogger
	interval time.Duration
	observer Observer

	commands chan motion.Command
	clicks   chan struct{}

	metrics Metrics
	tick    uint64
	status  atomic.Pointer[Status]
}

// New creates a loop around ctrl writing to out.
func New(ctrl *motion.Controller, out sink.Sink, logger *zap.SugaredLogger, opts Options) *Loop {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Interval <= 0 {
		opts.Interval = TickInterval
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = DefaultCommandBuffer
	}

	l := &Loop{
		ctrl:     ctrl,
		out:      out,
		log:      logger,
		interval: opts.Interval,
		observer: opts.Observer,
		commands: make(chan motion.Command, opts.CommandBuffer),
		clicks:   make(chan struct{}, 8),
	}
	l.publish()
	return l
}

// Submit hands a command to the loop without blocking. It reports false when
// the buffer is full; the command is then discarded so that slow consumption
// can never back-pressure an input device.
func (l *Loop) Submit(cmd motion.Command) bool {
	select {
	case l.commands <- cmd:
		return true
	default:
		l.metrics.IncOverflow()
		return false
	}
}

// Click requests a button press without blocking. It reports false when the
// click buffer is full.
func (l *Loop) Click() bool {
	select {
	case l.clicks <- struct{}{}:
		return true
	default:
		return false
	}
}

// SetObserver attaches o to the loop. It must be called before Run.
func (l *Loop) SetObserver(o Observer) {
	l.observer = o
}

// Status returns the latest published snapshot.
func (l *Loop) Status() Status {
	return *l.status.Load()
}

// Metrics exposes the loop's runtime counters.
func (l *Loop) Metrics() *Metrics {
	return &l.metrics
}

// Run drives the controller until ctx is cancelled. Animation state is
// discarded on shutdown; nothing is persisted.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Infow("driving loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.log.Infow("driving loop stopped", "ticks", atomic.LoadInt64(&l.metrics.TickCount))
			return nil

		case cmd := <-l.commands:
			if l.ctrl.HandleCommand(cmd, time.Now()) {
				l.metrics.IncAccepted()
			} else {
				l.metrics.IncIgnored()
			}
			l.publish()

		case <-l.clicks:
			if err := l.out.Click(); err != nil {
				l.metrics.IncSinkErr()
				l.log.Warnw("click failed", "error", err)
			}

		case <-ticker.C:
			start := time.Now()
			if pos, ok := l.ctrl.Tick(start); ok {
				l.metrics.IncEmitted()
				if err := l.out.MoveTo(pos); err != nil {
					// A failed cursor placement never halts the
					// state machine.
					l.metrics.IncSinkErr()
					l.log.Warnw("cursor move failed", "error", err)
				}
				l.publish()
				if l.observer != nil {
					l.observer.Notify(l.Status())
				}
			}
			l.tick++
			l.metrics.AddTick(time.Since(start).Nanoseconds())
		}
	}
}

// publish stores a fresh status snapshot for lock-free readers.
func (l *Loop) publish() {
	l.status.Store(&Status{
		Grid:   l.ctrl.GridPosition(),
		Screen: l.ctrl.ScreenPosition(),
		Moving: l.ctrl.Moving(),
		Tick:   l.tick,
	})
}
