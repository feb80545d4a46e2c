package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/metrics"
	"GuidelineScanner/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source     ports.GuidelineSource
	Enricher   ports.Enricher
	Repository ports.GuidelineRepository
	Fetcher    ports.ContentFetcher
	Logger     *slog.Logger
}

// Pipeline implements one ingestion cycle: fetch candidates across all
// sources, enrich each, and upsert by fingerprint. Cycles are stateless with
// respect to each other; the only cross-cycle memory is the store itself.
type Pipeline struct {
	source     ports.GuidelineSource
	enricher   ports.Enricher
	repository ports.GuidelineRepository
	fetcher    ports.ContentFetcher
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		enricher:   deps.Enricher,
		repository: deps.Repository,
		fetcher:    deps.Fetcher,
		logger:     deps.Logger,
	}
}

// RunCycle executes one complete fetch-enrich-store pass and returns the
// number of records written. An unreachable store aborts the cycle; a
// single record's write failure is logged and skipped.
func (p *Pipeline) RunCycle(ctx context.Context) (int, error) {
	if err := p.repository.Ping(ctx); err != nil {
		metrics.CyclesTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("ping store: %w", err)
	}

	batch := p.source.FetchAll(ctx)

	processed := 0
	for _, candidate := range batch {
		record := p.enrich(ctx, candidate)

		outcome, err := p.repository.Upsert(ctx, record)
		if err != nil {
			p.logger.Warn("skipping record", "title", candidate.Title, "error", err)
			metrics.WriteFailures.Inc()
			continue
		}

		metrics.Upserts.WithLabelValues(string(outcome)).Inc()
		processed++
	}

	p.logger.Info("cycle complete", "fetched", len(batch), "processed", processed)
	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	return processed, nil
}

// enrich produces the three generated field groups for one candidate. The
// enricher chain always ends in the deterministic fallback, so errors here
// indicate a wiring problem rather than an expected condition; the record is
// still stored with whatever fields resolved.
func (p *Pipeline) enrich(ctx context.Context, candidate domain.CandidateRecord) domain.EnrichedRecord {
	content := p.content(ctx, candidate)

	summary, err := p.enricher.Summarize(ctx, candidate.Title, content)
	if err != nil {
		p.logger.Warn("summary unresolved", "title", candidate.Title, "error", err)
	}

	tags, err := p.enricher.Tags(ctx, candidate.Title, content)
	if err != nil {
		p.logger.Warn("tags unresolved", "title", candidate.Title, "error", err)
	}

	complexity, err := p.enricher.Complexity(ctx, candidate.Title, content)
	if err != nil {
		p.logger.Warn("complexity unresolved", "title", candidate.Title, "error", err)
	}

	return domain.EnrichedRecord{
		CandidateRecord: candidate,
		Summary:         summary,
		Tags:            tags,
		Complexity:      complexity,
		Fingerprint:     domain.Fingerprint(candidate.Title, candidate.Source, candidate.Link),
	}
}

// content follows through to the full page body when deep-content mode is
// wired; a failed deep fetch quietly keeps the listing-derived content.
func (p *Pipeline) content(ctx context.Context, candidate domain.CandidateRecord) string {
	if p.fetcher == nil {
		return candidate.Content
	}

	body, err := p.fetcher.FetchContent(ctx, candidate.Link)
	if err != nil || body == "" {
		if err != nil {
			p.logger.Debug("deep fetch failed", "link", candidate.Link, "error", err)
		}
		return candidate.Content
	}

	return body
}
