// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists RepoRecords. Each record is written twice: as a
// per-paper JSON artifact under the records directory (the wire-contract
// output downstream tooling consumes) and as a row in a SQLite index that
// supports listing and querying across a batch.
// See docs/ARCHITECTURE § Record Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/code-finder/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "records.db"
)

// Store manages the records directory and its SQLite index.
type Store struct {
	db         *sql.DB
	recordsDir string
}

// New opens or creates the record store rooted at recordsDir. The SQLite
// index lives at recordsDir/index/records.db; schema is created on first
// open.
func New(recordsDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(recordsDir, indexDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating records directory: %w", err)
	}

	dbPath := filepath.Join(recordsDir, indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, recordsDir: recordsDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			paper_id TEXT PRIMARY KEY,
			repo_type TEXT NOT NULL,
			official_repo_url TEXT,
			selected_repo_url TEXT,
			unofficial_repo_urls TEXT,
			quality_score REAL,
			is_meaningful INTEGER,
			extraction_source TEXT,
			processed_at TEXT NOT NULL,
			record_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_repo_type ON records(repo_type)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordPath returns where the paper's JSON artifact lives.
func (s *Store) RecordPath(paperID string) string {
	return filepath.Join(s.recordsDir, paperID+".json")
}

// Save writes the record's JSON artifact and upserts the index row. The
// artifact write goes through a temp file and rename so a crash never
// leaves a truncated record for resume to trust.
func (s *Store) Save(ctx context.Context, paperID string, record *types.RepoRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record for %s: %w", paperID, err)
	}

	path := s.RecordPath(paperID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing record for %s: %w", paperID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalizing record for %s: %w", paperID, err)
	}

	urlsJSON, _ := json.Marshal(record.UnofficialRepoURLs)
	var score sql.NullFloat64
	var meaningful sql.NullBool
	if record.Quality != nil {
		score = sql.NullFloat64{Float64: record.Quality.Score, Valid: true}
		meaningful = sql.NullBool{Bool: record.Quality.IsMeaningful, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (paper_id, repo_type, official_repo_url, selected_repo_url,
			unofficial_repo_urls, quality_score, is_meaningful, extraction_source,
			processed_at, record_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			repo_type=excluded.repo_type, official_repo_url=excluded.official_repo_url,
			selected_repo_url=excluded.selected_repo_url,
			unofficial_repo_urls=excluded.unofficial_repo_urls,
			quality_score=excluded.quality_score, is_meaningful=excluded.is_meaningful,
			extraction_source=excluded.extraction_source,
			processed_at=excluded.processed_at, record_json=excluded.record_json`,
		paperID, string(record.RepoType), record.OfficialRepoURL, record.SelectedRepoURL,
		string(urlsJSON), score, meaningful, string(record.ExtractionSource),
		record.ProcessedAt.UTC().Format(time.RFC3339), string(data),
	)
	if err != nil {
		return fmt.Errorf("indexing record for %s: %w", paperID, err)
	}
	return nil
}

// Load reads the paper's JSON artifact. A missing artifact returns nil
// without error; resume treats that as "not yet processed".
func (s *Store) Load(paperID string) (*types.RepoRecord, error) {
	data, err := os.ReadFile(s.RecordPath(paperID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading record for %s: %w", paperID, err)
	}
	var record types.RepoRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing record for %s: %w", paperID, err)
	}
	return &record, nil
}

// Summary holds per-outcome counts across the index.
type Summary struct {
	Official   int
	Unofficial int
	NoneFound  int
	Total      int
}

// Summarize counts indexed records by repo_type.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT repo_type, count(*) FROM records GROUP BY repo_type`)
	if err != nil {
		return Summary{}, fmt.Errorf("querying record summary: %w", err)
	}
	defer rows.Close()

	var out Summary
	for rows.Next() {
		var repoType string
		var n int
		if err := rows.Scan(&repoType, &n); err != nil {
			return Summary{}, fmt.Errorf("scanning summary row: %w", err)
		}
		switch types.RepoType(repoType) {
		case types.RepoOfficial:
			out.Official = n
		case types.RepoUnofficial:
			out.Unofficial = n
		case types.RepoNoneFound:
			out.NoneFound = n
		}
		out.Total += n
	}
	return out, rows.Err()
}
