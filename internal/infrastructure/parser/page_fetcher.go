package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/ports"
)

// PageFetcher retrieves the full text of an individual guideline page for
// the optional deep-content mode. The base flow uses the listing title as
// content; this follows through to the article body instead.
type PageFetcher struct {
	client    *http.Client
	userAgent string
}

var _ ports.ContentFetcher = (*PageFetcher)(nil)

// NewPageFetcher wires an HTTP client; a nil client gets a 30s timeout.
func NewPageFetcher(client *http.Client, userAgent string) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PageFetcher{client: client, userAgent: userAgent}
}

// FetchContent downloads the page, strips script and style elements, and
// returns the collapsed visible text capped at domain.MaxContentLength.
func (f *PageFetcher) FetchContent(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("content fetch returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	doc.Find("script, style").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return truncate(text, domain.MaxContentLength), nil
}
