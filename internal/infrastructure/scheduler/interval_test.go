package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIntervalDriverRunsEagerlyAtStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{})
	d := NewIntervalDriver(time.Hour, time.Hour, testLogger())

	err := d.Start(ctx, func(context.Context) error {
		close(ran)
		return nil
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() { _ = d.Stop(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not run eagerly")
	}
}

func TestIntervalDriverNeverOverlapsCycles(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var active, maxActive, runs int64
	job := func(context.Context) error {
		cur := atomic.AddInt64(&active, 1)
		defer atomic.AddInt64(&active, -1)

		for {
			prev := atomic.LoadInt64(&maxActive)
			if cur <= prev || atomic.CompareAndSwapInt64(&maxActive, prev, cur) {
				break
			}
		}

		atomic.AddInt64(&runs, 1)
		// Slow cycle spanning several poll ticks.
		time.Sleep(30 * time.Millisecond)
		return nil
	}

	d := NewIntervalDriver(10*time.Millisecond, 5*time.Millisecond, testLogger())
	if err := d.Start(ctx, job); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if got := atomic.LoadInt64(&maxActive); got != 1 {
		t.Fatalf("expected at most one active cycle, observed %d", got)
	}
	if atomic.LoadInt64(&runs) < 2 {
		t.Fatalf("expected repeated cycles, got %d", atomic.LoadInt64(&runs))
	}
}

func TestIntervalDriverSurvivesJobErrors(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs int64
	job := func(context.Context) error {
		atomic.AddInt64(&runs, 1)
		return fmt.Errorf("cycle blew up")
	}

	d := NewIntervalDriver(10*time.Millisecond, 5*time.Millisecond, testLogger())
	if err := d.Start(ctx, job); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() { _ = d.Stop(context.Background()) }()

	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt64(&runs) < 2 {
		t.Fatalf("failing job stopped the scheduler after %d runs", atomic.LoadInt64(&runs))
	}
}

func TestIntervalDriverWaitsForInterval(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs int64
	d := NewIntervalDriver(time.Hour, time.Millisecond, testLogger())
	if err := d.Start(ctx, func(context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() { _ = d.Stop(context.Background()) }()

	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt64(&runs); got != 1 {
		t.Fatalf("expected only the eager run within the interval, got %d", got)
	}

	state := d.Snapshot()
	if state.Running {
		t.Fatal("state still marked running after cycle finished")
	}
	if state.LastRun.IsZero() {
		t.Fatal("last run not recorded")
	}
}
