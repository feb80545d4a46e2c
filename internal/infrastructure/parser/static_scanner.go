package parser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/scanner"
)

// StaticScanner fetches listing pages with a plain HTTP GET and parses the
// returned markup. Suitable for sources that serve their listings server-side.
type StaticScanner struct {
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// NewStaticScanner wires an HTTP client; a nil client gets a 30s timeout.
func NewStaticScanner(client *http.Client, userAgent string) *StaticScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &StaticScanner{client: client, userAgent: userAgent, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (s *StaticScanner) Name() string {
	return "static"
}

// Scan downloads the source's listing page and extracts candidate records.
// A network error or non-2xx status fails this scan only, never the cycle.
func (s *StaticScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateRecord, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.Source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s returned %s", req.Source.Name, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s listing: %w", req.Source.Name, err)
	}

	return extractCandidates(doc, req.Source, req.Limit, s.now()), nil
}
