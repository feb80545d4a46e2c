package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/ports"
)

const timeFormat = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS guidelines (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    source      TEXT NOT NULL,
    link        TEXT NOT NULL,
    date        TEXT NOT NULL,
    summary     TEXT NOT NULL,
    tags        TEXT NOT NULL,
    complexity  TEXT NOT NULL,
    fingerprint TEXT NOT NULL UNIQUE,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
)`

var listColumns = []string{
	"id", "title", "source", "link", "date",
	"summary", "tags", "complexity", "fingerprint",
	"created_at", "updated_at",
}

// Open returns a sqlite database handle for the given path. The connection
// count is pinned to one: sqlite serializes writers anyway, and a single
// connection keeps in-memory databases coherent.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteRepository persists enriched guidelines keyed by fingerprint.
// The repository is the sole owner of row identifiers and timestamps.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.GuidelineRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wires a database handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Init creates the guidelines table if it does not exist yet.
func (r *SQLiteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Ping probes store availability. A failed probe is fatal to the current
// ingestion cycle.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return nil
}

// Upsert writes a record by fingerprint: a new fingerprint gets a fresh id
// and created_at, an existing one has its mutable fields replaced in place
// with id and created_at preserved. Re-running against unchanged input only
// moves updated_at, never the row count.
func (r *SQLiteRepository) Upsert(ctx context.Context, record domain.EnrichedRecord) (domain.UpsertOutcome, error) {
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}

	complexity, err := json.Marshal(record.Complexity)
	if err != nil {
		return "", fmt.Errorf("encode complexity: %w", err)
	}

	now := r.now().UTC().Format(timeFormat)

	var existingID string
	err = sq.Select("id").
		From("guidelines").
		Where(sq.Eq{"fingerprint": record.Fingerprint}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&existingID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = sq.Insert("guidelines").
			Columns(listColumns...).
			Values(uuid.NewString(), record.Title, record.Source, record.Link, record.Date,
				record.Summary, string(tags), string(complexity), record.Fingerprint,
				now, now).
			RunWith(r.db).
			ExecContext(ctx)
		if err != nil {
			return "", fmt.Errorf("insert guideline: %w", err)
		}
		return domain.OutcomeInserted, nil

	case err != nil:
		return "", fmt.Errorf("lookup fingerprint: %w", err)

	default:
		_, err = sq.Update("guidelines").
			Set("date", record.Date).
			Set("summary", record.Summary).
			Set("tags", string(tags)).
			Set("complexity", string(complexity)).
			Set("updated_at", now).
			Where(sq.Eq{"fingerprint": record.Fingerprint}).
			RunWith(r.db).
			ExecContext(ctx)
		if err != nil {
			return "", fmt.Errorf("update guideline: %w", err)
		}
		return domain.OutcomeUpdated, nil
	}
}

// List returns guidelines newest-first, narrowed by the filter. Source and
// year are pushed into SQL; tag membership is checked case-insensitively
// against the decoded tag list.
func (r *SQLiteRepository) List(ctx context.Context, filter domain.Filter) ([]domain.StoredGuideline, error) {
	query := sq.Select(listColumns...).
		From("guidelines").
		OrderBy("date DESC")

	if filter.Source != "" {
		query = query.Where(sq.Eq{"source": filter.Source})
	}
	if filter.Year != "" {
		query = query.Where(sq.Expr("strftime('%Y', date) = ?", filter.Year))
	}

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query guidelines: %w", err)
	}
	defer rows.Close()

	var results []domain.StoredGuideline
	for rows.Next() {
		stored, err := scanGuideline(rows)
		if err != nil {
			return nil, err
		}

		if filter.Tag != "" && !hasTag(stored.Tags, filter.Tag) {
			continue
		}

		results = append(results, stored)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guidelines: %w", err)
	}

	return results, nil
}

// Sources returns the distinct source identifiers present in the store.
func (r *SQLiteRepository) Sources(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("DISTINCT source").
		From("guidelines").
		OrderBy("source").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, s)
	}

	return sources, rows.Err()
}

// Tags returns the union of all stored tag lists in first-seen order.
func (r *SQLiteRepository) Tags(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("tags").
		From("guidelines").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	seen := map[string]struct{}{}
	var union []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}

		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}

		for _, tag := range tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			union = append(union, tag)
		}
	}

	return union, rows.Err()
}

// Stats aggregates the stored dataset: total rows, per-source counts, and
// rows created within the last 30 days.
func (r *SQLiteRepository) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{BySource: map[string]int{}}

	err := sq.Select("COUNT(*)").
		From("guidelines").
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&stats.Total)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count guidelines: %w", err)
	}

	rows, err := sq.Select("source", "COUNT(*)").
		From("guidelines").
		GroupBy("source").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return domain.Stats{}, fmt.Errorf("scan source count: %w", err)
		}
		stats.BySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, fmt.Errorf("iterate source counts: %w", err)
	}

	cutoff := r.now().UTC().AddDate(0, 0, -30).Format(timeFormat)
	err = sq.Select("COUNT(*)").
		From("guidelines").
		Where(sq.GtOrEq{"created_at": cutoff}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&stats.Recent)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count recent: %w", err)
	}

	return stats, nil
}

func scanGuideline(rows *sql.Rows) (domain.StoredGuideline, error) {
	var (
		stored               domain.StoredGuideline
		rawTags              string
		rawComplexity        string
		createdAt, updatedAt string
	)

	err := rows.Scan(&stored.ID, &stored.Title, &stored.Source, &stored.Link, &stored.Date,
		&stored.Summary, &rawTags, &rawComplexity, &stored.Fingerprint,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.StoredGuideline{}, fmt.Errorf("scan guideline: %w", err)
	}

	if err := json.Unmarshal([]byte(rawTags), &stored.Tags); err != nil {
		return domain.StoredGuideline{}, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(rawComplexity), &stored.Complexity); err != nil {
		return domain.StoredGuideline{}, fmt.Errorf("decode complexity: %w", err)
	}

	if stored.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return domain.StoredGuideline{}, fmt.Errorf("parse created_at: %w", err)
	}
	if stored.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return domain.StoredGuideline{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return stored, nil
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}
