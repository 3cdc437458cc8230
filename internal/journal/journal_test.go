package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "journal.db"), filepath.Join(dir, "journal.lock"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordGetList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	entries := []Entry{
		{Hash: "transaction-v1-aa", Kind: "transaction", Method: "account_put_transaction", ChainName: "casper-test"},
		{Hash: "deploy-bb", Kind: "deploy", Method: "account_put_deploy", ChainName: "casper-test"},
		{Hash: "transaction-v1-cc", Kind: "transaction", Method: "account_put_transaction", ChainName: "casper", Response: json.RawMessage(`{"api_version":"2.0.0"}`)},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := store.Get(ctx, "deploy-bb")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Kind != "deploy" || got.SubmittedAt == "" {
		t.Fatalf("unexpected entry %+v", got)
	}

	all, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].Hash != "transaction-v1-cc" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	txs, err := store.List(ctx, "transaction", 1)
	if err != nil {
		t.Fatalf("List by kind failed: %v", err)
	}
	if len(txs) != 1 || txs[0].Hash != "transaction-v1-cc" {
		t.Fatalf("unexpected filtered list %+v", txs)
	}
	if string(txs[0].Response) != `{"api_version":"2.0.0"}` {
		t.Fatalf("response not preserved: %s", txs[0].Response)
	}
}

func TestRecordReplacesSameHash(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Record(ctx, Entry{Hash: "deploy-aa", Kind: "deploy", NodeAddress: "http://a:7777"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, Entry{Hash: "deploy-aa", Kind: "deploy", NodeAddress: "http://b:7777"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	all, err := store.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 || all[0].NodeAddress != "http://b:7777" {
		t.Fatalf("expected single replaced entry, got %+v", all)
	}
}

func TestRecordRequiresHashAndGetMissing(t *testing.T) {
	store := openTestStore(t)
	if err := store.Record(context.Background(), Entry{Kind: "deploy"}); err == nil {
		t.Fatal("expected missing hash error")
	}
	if _, err := store.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected missing submission error")
	}
}

func TestConcurrentOpenAndRecord(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")
	lockPath := filepath.Join(dir, "journal.lock")

	const workers = 8
	const iterations = 10

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
				hash := fmt.Sprintf("transaction-v1-%02d%02d", workerID, i)
				if err := store.Record(ctx, Entry{Hash: hash, Kind: "transaction", ChainName: "casper-test"}); err != nil {
					errCh <- fmt.Errorf("worker %d record iter %d: %w", workerID, i, err)
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

	store, err := Open(dbPath, lockPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	all, err := store.List(context.Background(), "", workers*iterations)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != workers*iterations {
		t.Fatalf("expected %d entries, got %d", workers*iterations, len(all))
	}
}
