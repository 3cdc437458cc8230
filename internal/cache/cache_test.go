package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	tmp := t.TempDir()
	store, err := Open(filepath.Join(tmp, "cache.db"), filepath.Join(tmp, "cache.lock"))
	if err != nil {
		t.Fatalf("Open cache failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCacheSetGetAndExpiry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Set(ctx, "k1", []byte(`{"v":1}`), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	now = now.Add(30 * time.Minute)
	res, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !res.Hit || string(res.Value) != `{"v":1}` || res.Age != 30*time.Minute {
		t.Fatalf("expected hit aged 30m, got %+v", res)
	}

	now = now.Add(2 * time.Hour)
	res, err = store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get expired failed: %v", err)
	}
	if res.Hit {
		t.Fatalf("expected expired entry to miss, got %+v", res)
	}
	if err := store.Prune(); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
}

func TestCacheMiss(t *testing.T) {
	store := openTestStore(t)
	res, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Hit {
		t.Fatal("expected miss")
	}
}

func TestKeyDependsOnEveryPart(t *testing.T) {
	a := Key("http://a:7777", "chain_get_block", "00ff")
	if a != Key("http://a:7777", "chain_get_block", "00ff") {
		t.Fatal("key is not deterministic")
	}
	if a == Key("http://b:7777", "chain_get_block", "00ff") {
		t.Fatal("key ignores node address")
	}
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatal("key parts are not separated")
	}
}

func TestCacheConcurrentOpenAndSet(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "cache.db")
	lockPath := filepath.Join(tmp, "cache.lock")

	const workers = 8
	const iterations = 20

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			store, err := Open(dbPath, lockPath)
			if err != nil {
				errCh <- fmt.Errorf("worker %d open: %w", workerID, err)
				return
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			for i := 0; i < iterations; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", workerID, i)
				if err := store.Set(ctx, key, []byte(`{"ok":true}`), time.Minute); err != nil {
					errCh <- fmt.Errorf("worker %d set iter %d: %w", workerID, i, err)
					return
				}
				res, err := store.Get(ctx, key)
				if err != nil {
					errCh <- fmt.Errorf("worker %d get iter %d: %w", workerID, i, err)
					return
				}
				if !res.Hit {
					errCh <- fmt.Errorf("worker %d get iter %d: expected hit", workerID, i)
					return
				}
			}
		}(worker)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}
}
