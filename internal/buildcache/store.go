// Package buildcache persists build state between daemon runs: the
// fingerprint of every written artifact, a journal of build cycles, and the
// configuration hash of the last successful build. The cache is advisory; a
// missing or corrupt cache only costs a full rebuild.
package buildcache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
)

// ArtifactEntry maps one output path to the fingerprint it was written with
// and the document that produced it.
type ArtifactEntry struct {
	Path        string
	Fingerprint string
	Doc         string
}

// CycleRecord is one journal row.
type CycleRecord struct {
	ID               string
	Started          time.Time
	Finished         time.Time
	Outcome          string
	Full             bool
	DocsBuilt        int
	ArtifactsWritten int
}

// Store is a SQLite-backed cache. Use ":memory:" for an ephemeral store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the cache database and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.StoreError("open build cache").WithCause(err).Build()
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.StoreError("initialize build cache schema").WithCause(err).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		doc TEXT NOT NULL,
		updated INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_doc ON artifacts(doc);
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		full INTEGER NOT NULL,
		docs_built INTEGER NOT NULL,
		artifacts_written INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ArtifactFingerprint returns the recorded fingerprint for an output path.
func (s *Store) ArtifactFingerprint(ctx context.Context, path string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fp string
	err := s.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM artifacts WHERE path = ?", path).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, ferrors.StoreError("read artifact fingerprint").WithCause(err).Build()
	}
	return fp, true, nil
}

// PutArtifacts upserts fingerprints for a batch of written artifacts.
func (s *Store) PutArtifacts(ctx context.Context, entries []ArtifactEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ferrors.StoreError("begin artifact batch").WithCause(err).Build()
	}
	now := time.Now().Unix()
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO artifacts (path, fingerprint, doc, updated) VALUES (?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET fingerprint = excluded.fingerprint,
			 doc = excluded.doc, updated = excluded.updated`,
			e.Path, e.Fingerprint, e.Doc, now)
		if err != nil {
			_ = tx.Rollback()
			return ferrors.StoreError("upsert artifact").
				WithContext("artifact", e.Path).
				WithCause(err).
				Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return ferrors.StoreError("commit artifact batch").WithCause(err).Build()
	}
	return nil
}

// DeleteArtifacts drops cache rows for removed outputs.
func (s *Store) DeleteArtifacts(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ferrors.StoreError("begin artifact delete").WithCause(err).Build()
	}
	for _, p := range paths {
		if _, err := tx.ExecContext(ctx, "DELETE FROM artifacts WHERE path = ?", p); err != nil {
			_ = tx.Rollback()
			return ferrors.StoreError("delete artifact").
				WithContext("artifact", p).
				WithCause(err).
				Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return ferrors.StoreError("commit artifact delete").WithCause(err).Build()
	}
	return nil
}

// RecordCycle appends one journal row.
func (s *Store) RecordCycle(ctx context.Context, rec CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := 0
	if rec.Full {
		full = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (id, started, finished, outcome, full, docs_built, artifacts_written)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Started.UnixMilli(), rec.Finished.UnixMilli(), rec.Outcome,
		full, rec.DocsBuilt, rec.ArtifactsWritten)
	if err != nil {
		return ferrors.StoreError("record build cycle").
			WithContext("cycle_id", rec.ID).
			WithCause(err).
			Build()
	}
	return nil
}

// RecentCycles returns the newest journal rows, most recent first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, finished, outcome, full, docs_built, artifacts_written
		 FROM cycles ORDER BY started DESC LIMIT ?`, limit)
	if err != nil {
		return nil, ferrors.StoreError("query build cycles").WithCause(err).Build()
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var started, finished int64
		var full int
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.Outcome, &full,
			&rec.DocsBuilt, &rec.ArtifactsWritten); err != nil {
			return nil, ferrors.StoreError("scan build cycle").WithCause(err).Build()
		}
		rec.Started = time.UnixMilli(started)
		rec.Finished = time.UnixMilli(finished)
		rec.Full = full != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.StoreError("iterate build cycles").WithCause(err).Build()
	}
	return out, nil
}

// ConfigHash returns the stored configuration hash, "" when none.
func (s *Store) ConfigHash(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = 'config_hash'").Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", ferrors.StoreError("read config hash").WithCause(err).Build()
	}
	return v, nil
}

// SetConfigHash stores the hash of the configuration the cache contents
// were built with. A mismatch on startup forces a full rebuild.
func (s *Store) SetConfigHash(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('config_hash', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, hash)
	if err != nil {
		return ferrors.StoreError("store config hash").WithCause(err).Build()
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
