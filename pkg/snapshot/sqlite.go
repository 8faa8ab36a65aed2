package snapshot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
	"github.com/gobeyondidentity/scopedkv/pkg/credential"
	"github.com/gobeyondidentity/scopedkv/pkg/kvstore"
)

// Record scopes in the records table.
const (
	scopePrivate  = "private"
	scopeShared   = "shared"
	scopeReadOnly = "readonly"
)

// Store is a SQLite-backed snapshot and audit store.
// It is safe for concurrent use; SQLite WAL mode lets readers and writers
// operate simultaneously.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path and migrates the
// schema eagerly.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers unblocked while a save is in flight; the busy
	// timeout smooths over concurrent writers instead of surfacing
	// SQLITE_BUSY immediately.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		identity  TEXT PRIMARY KEY,
		id        TEXT NOT NULL,
		level     TEXT NOT NULL,
		issued_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		scope    TEXT NOT NULL,
		identity TEXT NOT NULL DEFAULT '',
		key      TEXT NOT NULL,
		value    TEXT NOT NULL,
		PRIMARY KEY (scope, identity, key)
	);
	CREATE INDEX IF NOT EXISTS idx_records_identity ON records(identity);

	CREATE TABLE IF NOT EXISTS audit_log (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		identity  TEXT NOT NULL,
		op        TEXT NOT NULL,
		decision  TEXT NOT NULL,
		level     TEXT NOT NULL DEFAULT '',
		reason    TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save replaces the persisted snapshot with snap in one transaction.
// The audit log is append-only and untouched by saves.
func (s *Store) Save(snap kvstore.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM credentials"); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	for _, cred := range snap.Credentials {
		_, err := tx.Exec(
			"INSERT INTO credentials (identity, id, level, issued_at) VALUES (?, ?, ?, ?)",
			cred.Identity, cred.ID, cred.Level.String(), cred.IssuedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to save credential %q: %w", cred.Identity, err)
		}
	}

	insert := func(scope, identity string, data map[string]string) error {
		for k, v := range data {
			_, err := tx.Exec(
				"INSERT INTO records (scope, identity, key, value) VALUES (?, ?, ?, ?)",
				scope, identity, k, v,
			)
			if err != nil {
				return fmt.Errorf("failed to save %s record %q: %w", scope, k, err)
			}
		}
		return nil
	}

	for identity, data := range snap.Namespaces {
		if err := insert(scopePrivate, identity, data); err != nil {
			return err
		}
	}
	if err := insert(scopeShared, "", snap.Shared); err != nil {
		return err
	}
	if err := insert(scopeReadOnly, "", snap.ReadOnly); err != nil {
		return err
	}

	return tx.Commit()
}

// Load reads the persisted snapshot. An empty database loads as an empty
// snapshot, not an error.
func (s *Store) Load() (kvstore.Snapshot, error) {
	snap := kvstore.Snapshot{
		Namespaces: make(map[string]map[string]string),
		Shared:     make(map[string]string),
		ReadOnly:   make(map[string]string),
	}

	rows, err := s.db.Query("SELECT identity, id, level, issued_at FROM credentials")
	if err != nil {
		return kvstore.Snapshot{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var identity, id, levelName string
		var issuedAt int64
		if err := rows.Scan(&identity, &id, &levelName, &issuedAt); err != nil {
			return kvstore.Snapshot{}, fmt.Errorf("failed to scan credential: %w", err)
		}
		level, err := access.ParseLevel(levelName)
		if err != nil {
			return kvstore.Snapshot{}, fmt.Errorf("credential %q: %w", identity, err)
		}
		snap.Credentials = append(snap.Credentials, credential.Credential{
			ID:       id,
			Identity: identity,
			Level:    level,
			IssuedAt: time.Unix(0, issuedAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return kvstore.Snapshot{}, fmt.Errorf("failed to iterate credentials: %w", err)
	}

	recs, err := s.db.Query("SELECT scope, identity, key, value FROM records")
	if err != nil {
		return kvstore.Snapshot{}, fmt.Errorf("failed to load records: %w", err)
	}
	defer recs.Close()
	for recs.Next() {
		var scope, identity, key, value string
		if err := recs.Scan(&scope, &identity, &key, &value); err != nil {
			return kvstore.Snapshot{}, fmt.Errorf("failed to scan record: %w", err)
		}
		switch scope {
		case scopePrivate:
			ns, ok := snap.Namespaces[identity]
			if !ok {
				ns = make(map[string]string)
				snap.Namespaces[identity] = ns
			}
			ns[key] = value
		case scopeShared:
			snap.Shared[key] = value
		case scopeReadOnly:
			snap.ReadOnly[key] = value
		default:
			return kvstore.Snapshot{}, fmt.Errorf("unknown record scope %q", scope)
		}
	}
	if err := recs.Err(); err != nil {
		return kvstore.Snapshot{}, fmt.Errorf("failed to iterate records: %w", err)
	}

	return snap, nil
}

// LogDecision appends a credential decision to the audit log. Implements
// credential.AuditLogger.
func (s *Store) LogDecision(e credential.Entry) error {
	_, err := s.db.Exec(
		"INSERT INTO audit_log (timestamp, identity, op, decision, level, reason) VALUES (?, ?, ?, ?, ?, ?)",
		e.Timestamp.UnixNano(), e.Identity, e.Op, e.Decision, e.Level, e.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AuditEntries returns the most recent audit entries, newest first.
// limit <= 0 returns everything.
func (s *Store) AuditEntries(limit int) ([]credential.Entry, error) {
	query := "SELECT timestamp, identity, op, decision, level, reason FROM audit_log ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit log: %w", err)
	}
	defer rows.Close()

	var entries []credential.Entry
	for rows.Next() {
		var e credential.Entry
		var ts int64
		if err := rows.Scan(&ts, &e.Identity, &e.Op, &e.Decision, &e.Level, &e.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
