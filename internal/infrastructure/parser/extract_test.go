package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"GuidelineScanner/internal/scanner"
)

var testSource = scanner.Source{
	Name:        "CDC",
	URL:         "https://www.cdc.gov/mmwr/index.html",
	PathPattern: "/mmwr/",
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func TestExtractCandidatesQualityFilter(t *testing.T) {
	t.Parallel()

	html := `
	<div>
	  <a href="/mmwr/short">Short Tit</a>
	  <a href="/mmwr/exact">Short Titl</a>
	  <a href="/mmwr/blank">   </a>
	</div>`

	now := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	records := extractCandidates(mustDoc(t, html), testSource, 10, now)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Title != "Short Titl" {
		t.Fatalf("unexpected title: %q", records[0].Title)
	}
}

func TestExtractCandidatesResolvesRelativeLinks(t *testing.T) {
	t.Parallel()

	html := `
	<div>
	  <a href="/mmwr/volumes/74/wr/mm7401a1.htm">Updated Sepsis Surveillance Report</a>
	  <a href="https://other.example.org/mmwr/full">Externally Hosted Guideline Entry</a>
	</div>`

	now := time.Now()
	records := extractCandidates(mustDoc(t, html), testSource, 10, now)

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Link != "https://www.cdc.gov/mmwr/volumes/74/wr/mm7401a1.htm" {
		t.Fatalf("relative link not resolved: %s", records[0].Link)
	}
	if records[1].Link != "https://other.example.org/mmwr/full" {
		t.Fatalf("absolute link rewritten: %s", records[1].Link)
	}
}

func TestExtractCandidatesIgnoresNonMatchingAnchors(t *testing.T) {
	t.Parallel()

	html := `
	<div>
	  <a href="/about/contact-us">Contact the Organization Here</a>
	  <a href="/mmwr/match">Influenza Vaccination Guidance</a>
	</div>`

	records := extractCandidates(mustDoc(t, html), testSource, 10, time.Now())

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Source != "CDC" {
		t.Fatalf("unexpected source: %s", records[0].Source)
	}
}

func TestExtractCandidatesDateLabel(t *testing.T) {
	t.Parallel()

	html := `
	<div>
	  <div class="item">
	    <a href="/mmwr/dated">Measles Outbreak Response Guidance</a>
	    <span class="published-date">2024-03-15</span>
	  </div>
	  <div class="item">
	    <a href="/mmwr/undated">Hepatitis Screening Recommendations</a>
	  </div>
	</div>`

	now := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	records := extractCandidates(mustDoc(t, html), testSource, 10, now)

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Date != "2024-03-15" {
		t.Fatalf("expected label date, got %q", records[0].Date)
	}
	if records[1].Date != "2026-08-29" {
		t.Fatalf("expected fallback date, got %q", records[1].Date)
	}
}

func TestExtractCandidatesLimit(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, `<a href="/mmwr/item-%d">Guideline Number %02d For Testing</a>`, i, i)
	}

	records := extractCandidates(mustDoc(t, b.String()), testSource, 10, time.Now())

	if len(records) != 10 {
		t.Fatalf("expected limit of 10 records, got %d", len(records))
	}
}

func TestExtractCandidatesContentDefaultsToTitle(t *testing.T) {
	t.Parallel()

	html := `<a href="/mmwr/x">Antibiotic Stewardship Program Guidance</a>`
	records := extractCandidates(mustDoc(t, html), testSource, 10, time.Now())

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Content != records[0].Title {
		t.Fatalf("content %q does not default to title %q", records[0].Content, records[0].Title)
	}
}
