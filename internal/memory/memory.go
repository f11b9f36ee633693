// Package memory is the SQLite-backed translation memory and audit
// store. It caches machine translations keyed by normalized Arabic
// source text, records every provider call for cost accounting, keeps
// the project glossary of terms that must stay untranslated, and logs
// one audit row per batch-merge run.
//
// Nothing here is canonical dataset state: the JSON dataset and the
// change log remain the source of truth.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		src_text TEXT NOT NULL,
		en_text TEXT NOT NULL,
		provider TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(src_text)
	);

	-- one row per gap sent to providers, for cost/audit accounting
	CREATE TABLE IF NOT EXISTS fill_requests (
		id TEXT PRIMARY KEY,
		segment_id TEXT NOT NULL,
		src_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS fill_results (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		en_text TEXT NOT NULL,
		confidence REAL,
		latency_ms INTEGER,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (request_id) REFERENCES fill_requests(id)
	);

	CREATE TABLE IF NOT EXISTS merge_audit (
		id TEXT PRIMARY KEY,
		backup_path TEXT NOT NULL,
		translations_found INTEGER NOT NULL,
		merged_count INTEGER NOT NULL,
		skipped_conflicts INTEGER NOT NULL,
		records_appended INTEGER NOT NULL,
		run_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- transliterated terms kept untranslated in every batch and prompt
	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(term)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(src_text);
	CREATE INDEX IF NOT EXISTS idx_results_request ON fill_results(request_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// so visually identical Arabic strings hit the same memory row.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// GetCached returns the remembered English translation for srcText,
// bumping the usage counters on a hit. Invalidated rows are misses.
func (s *Store) GetCached(ctx context.Context, srcText string) (string, bool, error) {
	var enText string
	var invalidated bool

	err := s.db.QueryRowContext(ctx,
		`SELECT en_text, invalidated FROM translation_memory WHERE src_text = ?`,
		normalizeText(srcText)).Scan(&enText, &invalidated)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE src_text = ?`,
		time.Now(), normalizeText(srcText))
	return enText, true, err
}

// SaveToMemory remembers a finished translation for future runs.
func (s *Store) SaveToMemory(ctx context.Context, srcText, enText, provider string) error {
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, src_text, en_text, provider, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, 1, FALSE, ?, ?)`,
		id, normalizeText(srcText), enText, provider, time.Now(), time.Now())
	return err
}

// SaveFillRequest records that a gap was sent to the providers and
// returns the request id for the per-provider results.
func (s *Store) SaveFillRequest(ctx context.Context, requestID, segmentID, srcText string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fill_requests (id, segment_id, src_text) VALUES (?, ?, ?)`,
		requestID, segmentID, srcText)
	return err
}

// SaveFillResult records one provider's answer, successful or not.
func (s *Store) SaveFillResult(ctx context.Context, requestID, provider, enText string, confidence float64, latencyMs int, errMsg string) error {
	id := fmt.Sprintf("%s_%s", requestID, provider)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fill_results (id, request_id, provider, en_text, confidence, latency_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, requestID, provider, enText, confidence, latencyMs, errMsg)
	return err
}

// RecordMerge appends one audit row for a completed batch-merge run.
func (s *Store) RecordMerge(ctx context.Context, backupPath string, found, merged, conflicts, appended int) error {
	id := fmt.Sprintf("merge_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO merge_audit (id, backup_path, translations_found, merged_count, skipped_conflicts, records_appended)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, backupPath, found, merged, conflicts, appended)
	return err
}

// Entry is a row from the translation_memory table.
type Entry struct {
	ID          string
	SrcText     string
	EnText      string
	Provider    string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// Stats summarises translation memory usage.
type Stats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

// ListMemory returns all memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, src_text, en_text, provider, usage_count, invalidated, last_used
		 FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var provider sql.NullString
		if err := rows.Scan(&e.ID, &e.SrcText, &e.EnText, &provider, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		e.Provider = provider.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// MemoryStats returns summary statistics for the translation memory.
func (s *Store) MemoryStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// InvalidateMemory marks an entry stale without losing its history.
func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddTerm inserts a glossary term that must remain untranslated.
func (s *Store) AddTerm(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return fmt.Errorf("empty glossary term")
	}
	id := fmt.Sprintf("gl_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, term) VALUES (?, ?)`, id, term)
	return err
}

// ListTerms returns all glossary terms in alphabetical order.
func (s *Store) ListTerms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT term FROM glossary ORDER BY term`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// RemoveTerm deletes a glossary term.
func (s *Store) RemoveTerm(ctx context.Context, term string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE term = ?`, term)
	return err
}
