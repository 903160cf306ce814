package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hayathine/paperterrace/internal/model"
)

// ErrCorruptRecord is returned by Get when a stored record exists but its
// layout fails the integrity check. Callers treat this as a cache miss.
var ErrCorruptRecord = errors.New("cache: stored record is corrupt")

// dbFileName is the SQLite file created inside the cache directory.
const dbFileName = "paperterrace.db"

// Store provides SQLite-backed storage for document cache records.
//
// Design decision: One database file for all documents rather than a file
// per document. Listing and age-based pruning become single queries, and
// there is nothing to garbage-collect on disk besides the one file.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if absent.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: reads during a
	// concurrent write-back do not block.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the cache store in the given directory.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite supports one writer; a single pooled connection avoids
	// SQLITE_BUSY churn between write-back and reads.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One row per cached document, upserted on load completion.
	CREATE TABLE IF NOT EXISTS documents (
		document_id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		title TEXT,
		flat_text TEXT,
		layout TEXT NOT NULL,
		layout_checksum TEXT NOT NULL,
		last_accessed DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_accessed ON documents(last_accessed);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Upsert inserts or replaces the cache record for a document, keyed by
// document id. last_accessed is reset to now.
func (s *Store) Upsert(ctx context.Context, record *model.CacheRecord) error {
	if record == nil || record.DocumentID == "" {
		return errors.New("cache: record must have a document id")
	}

	query := `
	INSERT INTO documents (document_id, content_hash, title, flat_text, layout, layout_checksum, last_accessed)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(document_id) DO UPDATE SET
		content_hash = excluded.content_hash,
		title = excluded.title,
		flat_text = excluded.flat_text,
		layout = excluded.layout,
		layout_checksum = excluded.layout_checksum,
		last_accessed = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		record.DocumentID,
		record.ContentHash,
		record.Title,
		record.FlatText,
		string(record.SerializedLayout),
		layoutChecksum(record.SerializedLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache record: %w", err)
	}
	return nil
}

// Get retrieves the cache record for a document and touches its
// last_accessed timestamp. A missing record returns (nil, nil). A present
// record whose layout checksum does not match returns ErrCorruptRecord.
func (s *Store) Get(ctx context.Context, documentID string) (*model.CacheRecord, error) {
	query := `
	SELECT document_id, content_hash, title, flat_text, layout, layout_checksum, last_accessed
	FROM documents
	WHERE document_id = ?
	`

	var (
		record    model.CacheRecord
		layout    string
		checksum  string
		timestamp string
	)
	err := s.db.QueryRowContext(ctx, query, documentID).Scan(
		&record.DocumentID,
		&record.ContentHash,
		&record.Title,
		&record.FlatText,
		&layout,
		&checksum,
		&timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache record: %w", err)
	}

	record.SerializedLayout = []byte(layout)
	record.LastAccessed = parseTimestamp(timestamp)

	if layoutChecksum(record.SerializedLayout) != checksum {
		return nil, fmt.Errorf("%w: layout checksum mismatch for %s", ErrCorruptRecord, documentID)
	}

	// Touch for age-based pruning; a failed touch is not worth failing the read.
	_, _ = s.db.ExecContext(ctx,
		"UPDATE documents SET last_accessed = CURRENT_TIMESTAMP WHERE document_id = ?",
		documentID,
	)

	return &record, nil
}

// Delete removes a document's cache record. Deleting a missing record is
// not an error.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete cache record: %w", err)
	}
	return nil
}

// Metadata summarizes one cached document for listings, without loading the
// serialized layout.
type Metadata struct {
	// DocumentID identifies the document.
	DocumentID string

	// Title is the stored document title.
	Title string

	// ContentHash locates the rendered page images.
	ContentHash string

	// LayoutBytes is the size of the serialized layout.
	LayoutBytes int64

	// LastAccessed is the most recent read or write of the record.
	LastAccessed time.Time
}

// List returns metadata for all cached documents, most recently accessed
// first.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	query := `
	SELECT document_id, title, content_hash, length(layout), last_accessed
	FROM documents
	ORDER BY last_accessed DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache records: %w", err)
	}
	defer rows.Close()

	var results []Metadata
	for rows.Next() {
		var (
			meta      Metadata
			timestamp string
		)
		if err := rows.Scan(&meta.DocumentID, &meta.Title, &meta.ContentHash, &meta.LayoutBytes, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan cache metadata: %w", err)
		}
		meta.LastAccessed = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// Prune deletes records not accessed within the given duration and returns
// the number removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	// SQLite datetime modifier format.
	modifier := fmt.Sprintf("-%d seconds", int(olderThan.Seconds()))

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE last_accessed < datetime('now', ?)",
		modifier,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}

// layoutChecksum returns the hex BLAKE2b-256 digest of the serialized
// layout, stored alongside it to detect torn or tampered records.
func layoutChecksum(layout []byte) string {
	sum := blake2b.Sum256(layout)
	return hex.EncodeToString(sum[:])
}

// timestampFormats contains the timestamp formats SQLite may return,
// most specific first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts each known format, returning zero time when none
// matches rather than failing the read.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
