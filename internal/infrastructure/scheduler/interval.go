package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"GuidelineScanner/internal/ports"
)

// State is the scheduler's owned bookkeeping, exposed for inspection.
type State struct {
	LastRun time.Time
	Running bool
}

// IntervalDriver runs a job eagerly at startup and then whenever the
// configured interval has elapsed, checked on a coarser poll tick. The whole
// loop is one goroutine, so at most one cycle is ever in flight; a tick that
// fires mid-cycle is simply observed late.
type IntervalDriver struct {
	interval time.Duration
	poll     time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
	stop  chan struct{}
}

var _ ports.CycleDriver = (*IntervalDriver)(nil)

// NewIntervalDriver builds a driver with the given cycle interval and poll
// granularity.
func NewIntervalDriver(interval, poll time.Duration, log *slog.Logger) *IntervalDriver {
	return &IntervalDriver{
		interval: interval,
		poll:     poll,
		logger:   log,
		now:      time.Now,
	}
}

// Start launches the scheduling loop. The first cycle runs immediately;
// job errors are logged and do not affect later ticks. There is no terminal
// state short of Stop or context cancellation.
func (d *IntervalDriver) Start(ctx context.Context, job func(context.Context) error) error {
	if job == nil {
		return nil
	}

	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		d.runOnce(ctx, job)

		ticker := time.NewTicker(d.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if d.due() {
					d.runOnce(ctx, job)
				}
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the scheduling loop.
func (d *IntervalDriver) Stop(_ context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

// Snapshot returns a copy of the scheduler state.
func (d *IntervalDriver) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *IntervalDriver) due() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.state.Running && d.now().Sub(d.state.LastRun) >= d.interval
}

func (d *IntervalDriver) runOnce(ctx context.Context, job func(context.Context) error) {
	d.setRunning(true)
	defer d.setRunning(false)

	if err := job(ctx); err != nil {
		d.logger.Error("cycle failed", "error", err)
	}

	d.mu.Lock()
	d.state.LastRun = d.now()
	d.mu.Unlock()
}

func (d *IntervalDriver) setRunning(v bool) {
	d.mu.Lock()
	d.state.Running = v
	d.mu.Unlock()
}
