package llm

import (
	"context"
	"log/slog"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/metrics"
	"GuidelineScanner/internal/ports"
)

// Failover wraps a primary enricher and substitutes the fallback result for
// any field-group call that errors. The three groups are independent, so one
// record may get a remote summary and heuristic tags in the same cycle.
type Failover struct {
	primary  ports.Enricher
	fallback ports.Enricher
	logger   *slog.Logger
}

var _ ports.Enricher = (*Failover)(nil)

// NewFailover decorates primary with fallback-on-error behavior.
func NewFailover(primary, fallback ports.Enricher, log *slog.Logger) *Failover {
	return &Failover{primary: primary, fallback: fallback, logger: log}
}

// Summarize tries the primary path, then the fallback.
func (f *Failover) Summarize(ctx context.Context, title, content string) (string, error) {
	summary, err := f.primary.Summarize(ctx, title, content)
	if err != nil {
		f.substituted("summary", title, err)
		return f.fallback.Summarize(ctx, title, content)
	}
	return summary, nil
}

// Tags tries the primary path, then the fallback.
func (f *Failover) Tags(ctx context.Context, title, content string) ([]string, error) {
	tags, err := f.primary.Tags(ctx, title, content)
	if err != nil {
		f.substituted("tags", title, err)
		return f.fallback.Tags(ctx, title, content)
	}
	return tags, nil
}

// Complexity tries the primary path, then the fallback.
func (f *Failover) Complexity(ctx context.Context, title, content string) (domain.ComplexityProfile, error) {
	profile, err := f.primary.Complexity(ctx, title, content)
	if err != nil {
		f.substituted("complexity", title, err)
		return f.fallback.Complexity(ctx, title, content)
	}
	return profile, nil
}

func (f *Failover) substituted(group, title string, err error) {
	if f.logger != nil {
		f.logger.Warn("enrichment fell back", "group", group, "title", title, "error", err)
	}
	metrics.EnrichmentFallbacks.WithLabelValues(group).Inc()
}
