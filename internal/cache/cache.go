// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists raw source responses in a SQLite database so
// repeated runs over the same city and weekend reuse fresh fetches instead
// of burning provider quota.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

const dbFile = "weekender-cache.db"

// Store manages the response cache database.
type Store struct {
	db  *sql.DB
	ttl time.Duration

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewStore opens or creates the cache database at cfg.Dir/weekender-cache.db
// and creates the schema if it does not exist.
func NewStore(cfg types.CacheConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS responses (
			fingerprint TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			category TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			results TEXT NOT NULL,
			stored_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_source ON responses(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_city ON responses(city)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Fingerprint derives the cache key for a task from every field that affects
// the upstream request. Two tasks with the same fingerprint would issue
// byte-identical queries.
func Fingerprint(task types.FetchTask) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%.4f|%.4f|%.2f|%s|%s",
		task.SourceID, task.Category,
		task.Scope.Kind, task.Scope.Neighborhood,
		task.Scope.Latitude, task.Scope.Longitude, task.Scope.RadiusMiles,
		task.Window.Start.Format("2006-01-02"), task.Window.End.Format("2006-01-02"))
	for _, k := range sortedKeys(task.QueryParams) {
		fmt.Fprintf(h, "|%s=%s", k, task.QueryParams[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached results for task if a fresh entry exists. Stale
// entries are treated as misses; they are reaped by Purge, not here.
func (s *Store) Get(ctx context.Context, task types.FetchTask) ([]types.RawResult, bool, error) {
	var (
		resultsJSON string
		storedAt    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT results, stored_at FROM responses WHERE fingerprint = ?`,
		Fingerprint(task),
	).Scan(&resultsJSON, &storedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	stored, err := time.Parse(time.RFC3339Nano, storedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parsing cache timestamp: %w", err)
	}
	if s.now().Sub(stored) > s.ttl {
		return nil, false, nil
	}

	var results []types.RawResult
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		return nil, false, fmt.Errorf("decoding cached results: %w", err)
	}
	return results, true, nil
}

// Put stores the results of a successful fetch, replacing any previous entry
// for the same fingerprint.
func (s *Store) Put(ctx context.Context, task types.FetchTask, results []types.RawResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (fingerprint, source_id, category, city, results, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
			results=excluded.results, stored_at=excluded.stored_at`,
		Fingerprint(task), task.SourceID, string(task.Category),
		task.QueryParams["city"], string(data), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries older than the TTL and returns the number removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM responses WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes entries regardless of age and returns the number removed.
// An empty city clears everything; otherwise only entries stored for that
// city go. Entries record the resolved city name ("Austin, Texas, USA"),
// so the filter is a case-insensitive prefix match and "austin" works.
func (s *Store) Clear(ctx context.Context, city string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if city == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM responses`)
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM responses WHERE city LIKE ?`, city+"%")
	}
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry counts for the cache subcommand.
func (s *Store) Stats(ctx context.Context) (total, fresh int, err error) {
	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*), count(CASE WHEN stored_at >= ? THEN 1 END) FROM responses`,
		cutoff,
	).Scan(&total, &fresh)
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache stats: %w", err)
	}
	return total, fresh, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
