package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const defaultListLimit = 20

// Entry records one accepted network submission.
type Entry struct {
	Hash        string          `json:"hash"`
	Kind        string          `json:"kind"`
	Method      string          `json:"method"`
	ChainName   string          `json:"chain_name"`
	NodeAddress string          `json:"node_address"`
	RPCID       string          `json:"rpc_id"`
	SubmittedAt string          `json:"submitted_at"`
	Response    json.RawMessage `json:"response,omitempty"`
}

// Store is a sqlite journal of submissions shared by concurrent CLI processes.
// Writes are serialized across processes with a file lock.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open journal sqlite: %w", err)
	}
	lock := flock.New(lockPath)
	if err := initSchema(db, lock); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Store{db: db, lock: lock, now: time.Now}, nil
}

func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS submissions (
		hash TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		chain_name TEXT NOT NULL,
		submitted_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	);`,
	"CREATE INDEX IF NOT EXISTS idx_submissions_kind_submitted ON submissions(kind, submitted_at DESC);",
}

// initSchema creates the tables while holding the write lock, so concurrent
// first opens do not race on the DDL.
func initSchema(db *sql.DB, lock *flock.Flock) error {
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer func() { _ = lock.Unlock() }()
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts entry, replacing an earlier submission of the same hash.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Hash) == "" {
		return fmt.Errorf("record submission: missing hash")
	}
	submitted := s.now().UTC()
	if entry.SubmittedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, entry.SubmittedAt); err == nil {
			submitted = t.UTC()
		}
	}
	entry.SubmittedAt = submitted.Format(time.RFC3339Nano)

	locked, err := s.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock journal: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (hash, kind, chain_name, submitted_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			kind=excluded.kind,
			chain_name=excluded.chain_name,
			submitted_at=excluded.submitted_at,
			payload=excluded.payload
	`, entry.Hash, entry.Kind, entry.ChainName, submitted.UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, hash string) (Entry, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM submissions WHERE hash = ?", hash).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("submission not found: %s", hash)
		}
		return Entry{}, fmt.Errorf("read submission: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, fmt.Errorf("decode submission payload: %w", err)
	}
	return entry, nil
}

// List returns the most recent submissions first, optionally filtered by kind.
func (s *Store) List(ctx context.Context, kind string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var (
		rows *sql.Rows
		err  error
	)
	if strings.TrimSpace(kind) == "" {
		rows, err = s.db.QueryContext(ctx, "SELECT payload FROM submissions ORDER BY submitted_at DESC LIMIT ?", limit)
	} else {
		rows, err = s.db.QueryContext(ctx, "SELECT payload FROM submissions WHERE kind = ? ORDER BY submitted_at DESC LIMIT ?", kind, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("decode submission row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}
	return entries, nil
}
