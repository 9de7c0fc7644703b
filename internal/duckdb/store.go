// Package duckdb provides a content-addressed cache of per-query analysis
// results, keyed by a hash of the reference bundle's identity plus the
// query sequence bytes. "Sort-and-analyze" mode (spec §5) consults this
// cache before re-running the pipeline on a sequence it has already
// analyzed against the same reference bundle.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection caching analyzer results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path. Use an empty
// string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the analyzer_results table if it doesn't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS analyzer_results (
		content_hash VARCHAR PRIMARY KEY,
		run_id VARCHAR,
		ref_bundle_id VARCHAR,
		seq_name VARCHAR,
		result_json VARCHAR,
		created_at TIMESTAMP DEFAULT current_timestamp
	)`)
	return err
}

// CachedResult is one row of the analyzer-result cache.
type CachedResult struct {
	ContentHash string
	RunID       string
	RefBundleID string
	SeqName     string
	ResultJSON  string
}

// Lookup returns the cached result for contentHash, if present.
func (s *Store) Lookup(contentHash string) (*CachedResult, bool, error) {
	row := s.db.QueryRow(`SELECT content_hash, run_id, ref_bundle_id, seq_name, result_json
		FROM analyzer_results WHERE content_hash = ?`, contentHash)

	var r CachedResult
	if err := row.Scan(&r.ContentHash, &r.RunID, &r.RefBundleID, &r.SeqName, &r.ResultJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lookup analyzer result: %w", err)
	}
	return &r, true, nil
}

// Insert caches one analyzer result, overwriting any existing row with
// the same content hash (a re-run with a newer run ID supersedes it).
func (s *Store) Insert(r CachedResult) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO analyzer_results
		(content_hash, run_id, ref_bundle_id, seq_name, result_json)
		VALUES (?, ?, ?, ?, ?)`,
		r.ContentHash, r.RunID, r.RefBundleID, r.SeqName, r.ResultJSON)
	if err != nil {
		return fmt.Errorf("insert analyzer result: %w", err)
	}
	return nil
}

// Clear removes every cached result.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM analyzer_results")
	return err
}
