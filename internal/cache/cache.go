package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// BlockTTL bounds how long a block-by-hash response is kept. Such responses never
// change, so the bound only limits growth of the cache file.
const BlockTTL = 7 * 24 * time.Hour

type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

type Result struct {
	Hit   bool
	Value []byte
	Age   time.Duration
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	lock := flock.New(lockPath)
	if err := initSchema(db, lock, "CREATE TABLE IF NOT EXISTS responses (key TEXT PRIMARY KEY, value BLOB NOT NULL, created_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	store := &Store{db: db, lock: lock, now: time.Now}
	_ = store.Prune()
	return store, nil
}

// dsn sets the pragmas on every pooled connection. busy_timeout comes first so the
// WAL switch waits for other openers.
func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// initSchema runs the DDL under the cross-process lock.
func initSchema(db *sql.DB, lock *flock.Flock, statements ...string) error {
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()
	for _, stmt := range statements {
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

// Key derives a cache key from its parts, e.g. node address, method and block hash.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Prune deletes expired entries. Open calls it once.
func (s *Store) Prune() error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("DELETE FROM responses WHERE expires_at < ?", s.now().UTC().Unix()); err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

// Get returns the cached value for key. Expired entries are misses.
func (s *Store) Get(ctx context.Context, key string) (Result, error) {
	var (
		value     []byte
		created   int64
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT value, created_at, expires_at FROM responses WHERE key = ?", key).Scan(&value, &created, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("cache read: %w", err)
	}
	now := s.now().UTC()
	if now.Unix() > expiresAt {
		return Result{}, nil
	}
	age := now.Sub(time.Unix(created, 0).UTC())
	if age < 0 {
		age = 0
	}
	return Result{Hit: true, Value: value, Age: age}, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	locked, err := s.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	if ttl < time.Second {
		ttl = time.Second
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO responses (key, value, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			created_at=excluded.created_at,
			expires_at=excluded.expires_at
	`, key, value, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}
