package parser

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/scanner"
)

const dateFormat = "2006-01-02"

// extractCandidates applies the shared extraction rule to a listing page:
// anchors whose href contains the source's path pattern become candidate
// records. Link text under domain.MinTitleLength characters is discarded as
// navigation boilerplate, relative hrefs are resolved against the source
// origin, and a date-like label is searched in the surrounding block with
// today as the fallback. Extraction stops once limit candidates are accepted.
func extractCandidates(doc *goquery.Document, src scanner.Source, limit int, now time.Time) []domain.CandidateRecord {
	base, err := url.Parse(src.URL)
	if err != nil {
		return nil
	}

	var records []domain.CandidateRecord
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, src.PathPattern) {
			return true
		}

		title := strings.TrimSpace(sel.Text())
		if utf8.RuneCountInString(title) < domain.MinTitleLength {
			return true
		}

		link, ok := resolveLink(base, href)
		if !ok {
			return true
		}

		records = append(records, domain.CandidateRecord{
			Title:   title,
			Source:  src.Name,
			Link:    link,
			Date:    extractDate(sel, now),
			Content: truncate(title, domain.MaxContentLength),
		})

		return len(records) < limit
	})

	return records
}

func resolveLink(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	return abs.String(), true
}

// extractDate searches the anchor's parent block for an element whose class
// looks like a publication date. Sources rarely expose machine-readable
// dates on listing pages, so the current date is the documented fallback.
func extractDate(sel *goquery.Selection, now time.Time) string {
	label := sel.Parent().Find(`[class*="date"], [class*="published"]`).First()
	if text := strings.TrimSpace(label.Text()); text != "" {
		return text
	}
	return now.Format(dateFormat)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
