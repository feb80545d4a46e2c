package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/ports"
	"GuidelineScanner/internal/scanner"
)

// RenderedScanner drives a headless browser for sources that build their
// listings client-side. Extraction is identical to the static strategy; only
// the way the markup is obtained differs.
type RenderedScanner struct {
	renderer ports.Renderer
	now      func() time.Time
}

// NewRenderedScanner wires the rendering capability.
func NewRenderedScanner(renderer ports.Renderer) *RenderedScanner {
	return &RenderedScanner{renderer: renderer, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (s *RenderedScanner) Name() string {
	return "rendered"
}

// Scan renders the listing page and extracts candidate records from the
// resulting markup.
func (s *RenderedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateRecord, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("no renderer configured for %s", req.Source.Name)
	}

	html, err := s.renderer.RenderHTML(ctx, req.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", req.Source.Name, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s markup: %w", req.Source.Name, err)
	}

	return extractCandidates(doc, req.Source, req.Limit, s.now()), nil
}
