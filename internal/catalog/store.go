package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"naturatag/internal/config"
	"naturatag/internal/species"
)

// Store manages keyword persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// KeywordSummary is one catalog keyword with its usage count.
type KeywordSummary struct {
	Keyword    string
	CommonName string
	LatinName  string
	PhotoCount int
	CreatedAt  time.Time
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.CatalogPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// TagPhoto records the chosen candidates against the photo in a single
// transaction and returns the keywords written. Re-tagging a photo with a
// keyword it already carries is a no-op for that keyword.
func (s *Store) TagPhoto(ctx context.Context, photoPath, runID string, chosen []species.Candidate) ([]string, error) {
	if len(chosen) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tagging tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	keywords := make([]string, 0, len(chosen))
	for _, candidate := range chosen {
		keyword := candidate.Keyword()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO keywords (keyword, common_name, latin_name, created_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(keyword) DO NOTHING`,
			keyword, candidate.CommonName, candidate.LatinName, now,
		); err != nil {
			return nil, fmt.Errorf("upsert keyword %q: %w", keyword, err)
		}

		var keywordID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM keywords WHERE keyword = ?`, keyword,
		).Scan(&keywordID); err != nil {
			return nil, fmt.Errorf("resolve keyword %q: %w", keyword, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO photo_tags (photo_path, keyword_id, run_id, tagged_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(photo_path, keyword_id) DO NOTHING`,
			photoPath, keywordID, nullableString(runID), now,
		); err != nil {
			return nil, fmt.Errorf("tag photo with %q: %w", keyword, err)
		}
		keywords = append(keywords, keyword)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tagging tx: %w", err)
	}
	return keywords, nil
}

// ListKeywords returns every catalog keyword with its photo count, most used
// first, ties broken alphabetically.
func (s *Store) ListKeywords(ctx context.Context) ([]KeywordSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k.keyword, k.common_name, k.latin_name, k.created_at, COUNT(pt.id)
         FROM keywords k
         LEFT JOIN photo_tags pt ON pt.keyword_id = k.id
         GROUP BY k.id
         ORDER BY COUNT(pt.id) DESC, k.keyword`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var summaries []KeywordSummary
	for rows.Next() {
		var (
			summary    KeywordSummary
			commonName sql.NullString
			latinName  sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&summary.Keyword, &commonName, &latinName, &createdRaw, &summary.PhotoCount); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		summary.CommonName = commonName.String
		summary.LatinName = latinName.String
		if created, err := parseTimeString(createdRaw); err == nil {
			summary.CreatedAt = created
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// KeywordsForPhoto returns the keywords recorded for a photo in tag order.
func (s *Store) KeywordsForPhoto(ctx context.Context, photoPath string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k.keyword
         FROM photo_tags pt
         JOIN keywords k ON k.id = pt.keyword_id
         WHERE pt.photo_path = ?
         ORDER BY pt.id`, photoPath)
	if err != nil {
		return nil, fmt.Errorf("keywords for photo: %w", err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var keyword string
		if err := rows.Scan(&keyword); err != nil {
			return nil, fmt.Errorf("scan photo keyword: %w", err)
		}
		keywords = append(keywords, keyword)
	}
	return keywords, rows.Err()
}

// Stats returns the number of distinct keywords and tagged photos.
func (s *Store) Stats(ctx context.Context) (keywords, photos int, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(1) FROM keywords),
                (SELECT COUNT(DISTINCT photo_path) FROM photo_tags)`)
	if err := row.Scan(&keywords, &photos); err != nil {
		return 0, 0, fmt.Errorf("catalog stats: %w", err)
	}
	return keywords, photos, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
