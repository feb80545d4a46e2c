package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"GuidelineScanner/internal/ports"
)

// Scheduler binds the cycle driver to the ingestion pipeline. A failed or
// panicking cycle is absorbed here so the driver itself never stops ticking.
type Scheduler struct {
	driver   ports.CycleDriver
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring ingestion.
func NewScheduler(driver ports.CycleDriver, pipeline *Pipeline, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: log}
}

// Start registers the pipeline with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	return s.driver.Start(ctx, s.runCycle)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	count, err := s.pipeline.RunCycle(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("scheduled cycle finished", "records", count)
	return nil
}
