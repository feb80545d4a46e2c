package domain

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// MinTitleLength is the quality bar for scraped link text: anything shorter
// is navigation or boilerplate, not a guideline title.
const MinTitleLength = 10

// MaxContentLength caps the extracted body text of a candidate record.
const MaxContentLength = 2000

// CandidateRecord is a single scraped item before enrichment and dedup.
// It has no identity beyond its position in a batch.
type CandidateRecord struct {
	Title   string
	Source  string
	Link    string
	Date    string
	Content string
}

// ComplexityProfile classifies a guideline for its consumers.
type ComplexityProfile struct {
	Level            string `json:"complexity_level"`
	TargetAudience   string `json:"target_audience"`
	ClinicalUrgency  string `json:"clinical_urgency"`
	EvidenceStrength string `json:"evidence_strength"`
}

// EnrichedRecord is a candidate plus generated summary, tags, and complexity,
// keyed by its fingerprint for deduplication.
type EnrichedRecord struct {
	CandidateRecord
	Summary     string
	Tags        []string
	Complexity  ComplexityProfile
	Fingerprint string
}

// StoredGuideline is the persisted form. The store owns ID and timestamps;
// CreatedAt is set once and never changes, UpdatedAt moves on every write.
type StoredGuideline struct {
	EnrichedRecord
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertOutcome reports whether an upsert created a new row or refreshed one.
type UpsertOutcome string

const (
	OutcomeInserted UpsertOutcome = "inserted"
	OutcomeUpdated  UpsertOutcome = "updated"
)

// Filter narrows guideline listings. Zero values mean no constraint.
// Tag matching is case-insensitive; Year matches the leading year of Date.
type Filter struct {
	Source string
	Tag    string
	Year   string
}

// Stats aggregates the stored dataset.
type Stats struct {
	Total    int
	BySource map[string]int
	Recent   int
}

// Fingerprint is the dedup key: an MD5 digest of title, source, and link
// concatenated without a delimiter. Date and content are deliberately
// excluded so a source republishing the same item with a fresh excerpt
// updates the stored row in place instead of duplicating it.
func Fingerprint(title, source, link string) string {
	sum := md5.Sum([]byte(title + source + link))
	return hex.EncodeToString(sum[:])
}
