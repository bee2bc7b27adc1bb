// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ExtractionCache stores extracted page text in a local SQLite database so
// unchanged documents are not parsed again on the next scan
type ExtractionCache struct {
	db *sql.DB
}

// Open creates the cache database under dir, creating dir if needed
func Open(dir string) (*ExtractionCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "extraction_cache.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	c := &ExtractionCache{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return c, nil
}

// Close closes the database connection
func (c *ExtractionCache) Close() error {
	return c.db.Close()
}

func (c *ExtractionCache) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS extracted_pages (
		file_path TEXT PRIMARY KEY,
		file_hash TEXT NOT NULL,
		pages TEXT NOT NULL,
		extracted_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_extracted_pages_hash ON extracted_pages(file_hash);
	`

	_, err := c.db.Exec(schema)
	return err
}

// Lookup returns the cached pages for path. ok is false when nothing is cached
// or the cached entry was extracted from different content.
func (c *ExtractionCache) Lookup(path, hash string) (pages []string, ok bool, err error) {
	var storedHash, raw string
	err = c.db.QueryRow(
		"SELECT file_hash, pages FROM extracted_pages WHERE file_path = ?",
		path,
	).Scan(&storedHash, &raw)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cached pages: %w", err)
	}
	if storedHash != hash {
		return nil, false, nil
	}

	if err := json.Unmarshal([]byte(raw), &pages); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached pages: %w", err)
	}
	return pages, true, nil
}

// Store inserts or replaces the pages extracted for path
func (c *ExtractionCache) Store(path, hash string, pages []string) error {
	raw, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("failed to encode pages: %w", err)
	}

	const query = `
		INSERT INTO extracted_pages (file_path, file_hash, pages, extracted_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_path) DO UPDATE SET
			file_hash = excluded.file_hash,
			pages = excluded.pages,
			extracted_at = CURRENT_TIMESTAMP
	`
	if _, err := c.db.Exec(query, path, hash, string(raw)); err != nil {
		return fmt.Errorf("failed to store cached pages: %w", err)
	}
	return nil
}

// Delete removes the entry for path
func (c *ExtractionCache) Delete(path string) error {
	if _, err := c.db.Exec("DELETE FROM extracted_pages WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("failed to delete cached pages: %w", err)
	}
	return nil
}

// Count returns the number of cached documents
func (c *ExtractionCache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM extracted_pages").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached pages: %w", err)
	}
	return n, nil
}

// FileHash calculates the SHA-256 hash of the file content
func FileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
