package parser

import (
	"context"
	"log/slog"
	"time"

	"GuidelineScanner/internal/config"
	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/metrics"
	"GuidelineScanner/internal/ports"
	"GuidelineScanner/internal/scanner"
)

// MultiSource runs every configured source through its scanner strategy and
// aggregates the results into one ordered batch. Sources are processed
// sequentially with a pause between them so no single origin is hammered.
type MultiSource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	pause    time.Duration
	limit    int
	logger   *slog.Logger
}

var _ ports.GuidelineSource = (*MultiSource)(nil)

// NewMultiSource wires the scanner registry with config-defined sources.
func NewMultiSource(reg *scanner.Registry, sources []config.SourceConfig, cfg config.FetchConfig, log *slog.Logger) *MultiSource {
	limit := cfg.PerSourceLimit
	if limit <= 0 {
		limit = 10
	}
	return &MultiSource{
		registry: reg,
		sources:  sources,
		pause:    cfg.PauseBetween.Std(),
		limit:    limit,
		logger:   log,
	}
}

// FetchAll returns the concatenation of all per-source batches in source
// order. A failing source contributes zero records and does not halt the
// remaining sources; a batch where every source failed is simply empty.
func (m *MultiSource) FetchAll(ctx context.Context) []domain.CandidateRecord {
	var aggregated []domain.CandidateRecord

	for i, src := range m.sources {
		if i > 0 && !m.pauseBetween(ctx) {
			break
		}

		records, err := m.scanSource(ctx, src)
		if err != nil {
			m.logger.Warn("source scan failed", "source", src.Name, "error", err)
			metrics.SourceFailures.WithLabelValues(src.Name).Inc()
			continue
		}

		m.logger.Info("source scanned", "source", src.Name, "records", len(records))
		metrics.RecordsFetched.WithLabelValues(src.Name).Add(float64(len(records)))
		aggregated = append(aggregated, records...)
	}

	m.logger.Info("fetch complete", "sources", len(m.sources), "total_records", len(aggregated))
	return aggregated
}

func (m *MultiSource) scanSource(ctx context.Context, src config.SourceConfig) ([]domain.CandidateRecord, error) {
	strategy, err := m.registry.Resolve(src.Scanner)
	if err != nil {
		return nil, err
	}

	return strategy.Scan(ctx, scanner.Request{
		Source: scanner.Source{
			Name:        src.Name,
			URL:         src.URL,
			PathPattern: src.PathPattern,
		},
		Limit: m.limit,
	})
}

func (m *MultiSource) pauseBetween(ctx context.Context) bool {
	if m.pause <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(m.pause)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
