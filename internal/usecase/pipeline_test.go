package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"GuidelineScanner/internal/domain"
)

type stubSource struct {
	batch []domain.CandidateRecord
}

func (s *stubSource) FetchAll(context.Context) []domain.CandidateRecord {
	return s.batch
}

type stubEnricher struct{}

func (stubEnricher) Summarize(_ context.Context, title, _ string) (string, error) {
	return "• " + title, nil
}

func (stubEnricher) Tags(context.Context, string, string) ([]string, error) {
	return []string{"Clinical Guidelines"}, nil
}

func (stubEnricher) Complexity(context.Context, string, string) (domain.ComplexityProfile, error) {
	return domain.ComplexityProfile{
		Level:            "Intermediate",
		TargetAudience:   "Primary Care",
		ClinicalUrgency:  "Routine",
		EvidenceStrength: "Moderate",
	}, nil
}

type stubRepository struct {
	pingErr   error
	failLinks map[string]bool
	upserts   []domain.EnrichedRecord
}

func (r *stubRepository) Ping(context.Context) error { return r.pingErr }

func (r *stubRepository) Upsert(_ context.Context, record domain.EnrichedRecord) (domain.UpsertOutcome, error) {
	if r.failLinks[record.Link] {
		return "", fmt.Errorf("constraint violation")
	}
	r.upserts = append(r.upserts, record)
	return domain.OutcomeInserted, nil
}

func (r *stubRepository) List(context.Context, domain.Filter) ([]domain.StoredGuideline, error) {
	return nil, nil
}

func (r *stubRepository) Sources(context.Context) ([]string, error) { return nil, nil }
func (r *stubRepository) Tags(context.Context) ([]string, error)    { return nil, nil }
func (r *stubRepository) Stats(context.Context) (domain.Stats, error) {
	return domain.Stats{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func candidate(title, source, link string) domain.CandidateRecord {
	return domain.CandidateRecord{
		Title:   title,
		Source:  source,
		Link:    link,
		Date:    "2026-08-29",
		Content: title,
	}
}

func TestRunCycleProcessesBatch(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{}
	p := NewPipeline(PipelineDeps{
		Source: &stubSource{batch: []domain.CandidateRecord{
			candidate("Sepsis Management 2024", "CDC", "https://cdc.gov/x"),
			candidate("Pediatric Asthma Action Plans", "NICE", "https://nice.org.uk/y"),
		}},
		Enricher:   stubEnricher{},
		Repository: repo,
		Logger:     discardLogger(),
	})

	count, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 processed records, got %d", count)
	}

	first := repo.upserts[0]
	if first.Fingerprint != domain.Fingerprint("Sepsis Management 2024", "CDC", "https://cdc.gov/x") {
		t.Fatalf("fingerprint not derived from title+source+link: %s", first.Fingerprint)
	}
	if first.Summary == "" || len(first.Tags) == 0 || first.Complexity.Level == "" {
		t.Fatalf("record not fully enriched: %+v", first)
	}
}

func TestRunCycleSkipsFailedWrites(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{failLinks: map[string]bool{"https://cdc.gov/bad": true}}
	p := NewPipeline(PipelineDeps{
		Source: &stubSource{batch: []domain.CandidateRecord{
			candidate("Record That Fails To Persist", "CDC", "https://cdc.gov/bad"),
			candidate("Record That Persists Normally", "CDC", "https://cdc.gov/good"),
		}},
		Enricher:   stubEnricher{},
		Repository: repo,
		Logger:     discardLogger(),
	})

	count, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("single-record write failure must not abort the batch: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 processed record, got %d", count)
	}
}

func TestRunCycleAbortsOnUnavailableStore(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{pingErr: fmt.Errorf("database file locked")}
	p := NewPipeline(PipelineDeps{
		Source:     &stubSource{batch: []domain.CandidateRecord{candidate("Any Guideline Title Goes Here", "CDC", "https://cdc.gov/x")}},
		Enricher:   stubEnricher{},
		Repository: repo,
		Logger:     discardLogger(),
	})

	if _, err := p.RunCycle(context.Background()); err == nil {
		t.Fatal("expected fatal error when store is unreachable")
	}
	if len(repo.upserts) != 0 {
		t.Fatalf("no writes expected after fatal ping, got %d", len(repo.upserts))
	}
}

func TestRunCycleEmptyBatchIsNotAnError(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Source:     &stubSource{},
		Enricher:   stubEnricher{},
		Repository: &stubRepository{},
		Logger:     discardLogger(),
	})

	count, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("empty batch should not error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 processed records, got %d", count)
	}
}

type stubFetcher struct {
	body string
	err  error
}

func (f *stubFetcher) FetchContent(context.Context, string) (string, error) {
	return f.body, f.err
}

func TestRunCycleDeepContentReplacesBody(t *testing.T) {
	t.Parallel()

	seen := new(string)
	p := NewPipeline(PipelineDeps{
		Source:     &stubSource{batch: []domain.CandidateRecord{candidate("Stroke Rehabilitation Best Practices", "AHA", "https://heart.org/z")}},
		Enricher:   recordingEnricher{seen: seen},
		Repository: &stubRepository{},
		Fetcher:    &stubFetcher{body: "full article body"},
		Logger:     discardLogger(),
	})

	if _, err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}
	if *seen != "full article body" {
		t.Fatalf("enricher saw %q instead of the deep-fetched body", *seen)
	}
}

type recordingEnricher struct {
	seen *string
}

func (r recordingEnricher) Summarize(_ context.Context, _, content string) (string, error) {
	*r.seen = content
	return "• summary", nil
}

func (r recordingEnricher) Tags(context.Context, string, string) ([]string, error) {
	return []string{"Clinical Guidelines"}, nil
}

func (r recordingEnricher) Complexity(context.Context, string, string) (domain.ComplexityProfile, error) {
	return domain.ComplexityProfile{Level: "Basic", TargetAudience: "Primary Care", ClinicalUrgency: "Routine", EvidenceStrength: "Moderate"}, nil
}
