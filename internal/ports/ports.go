package ports

import (
	"context"

	"GuidelineScanner/internal/domain"
)

// GuidelineSource pulls one batch of candidate records across all configured
// sources. Per-source failures are absorbed inside the implementation; an
// all-sources-failed cycle yields an empty batch, not an error.
type GuidelineSource interface {
	FetchAll(ctx context.Context) []domain.CandidateRecord
}

// Enricher produces the three generated field groups for a record. The
// groups are independent: within one record each may resolve via a different
// implementation when a failover decorator is in the chain.
type Enricher interface {
	Summarize(ctx context.Context, title, content string) (string, error)
	Tags(ctx context.Context, title, content string) ([]string, error)
	Complexity(ctx context.Context, title, content string) (domain.ComplexityProfile, error)
}

// GuidelineRepository persists enriched records keyed by fingerprint and
// serves the read-only query surface.
type GuidelineRepository interface {
	Ping(ctx context.Context) error
	Upsert(ctx context.Context, record domain.EnrichedRecord) (domain.UpsertOutcome, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.StoredGuideline, error)
	Sources(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Renderer loads a URL in an isolated browser context and returns the
// rendered markup. Implementations must release all browser resources before
// returning, on success or failure.
type Renderer interface {
	RenderHTML(ctx context.Context, pageURL string) (string, error)
}

// ContentFetcher retrieves the cleaned text body of a guideline page, used by
// the optional deep-content mode.
type ContentFetcher interface {
	FetchContent(ctx context.Context, pageURL string) (string, error)
}

// CycleDriver controls when ingestion cycles execute.
type CycleDriver interface {
	Start(ctx context.Context, job func(context.Context) error) error
	Stop(ctx context.Context) error
}
