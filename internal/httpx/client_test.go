package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

func TestPostJSONRetriesServerError(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if atomic.AddInt32(&count, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(` {"ok":true} `))
	}))
	defer srv.Close()

	raw, err := New(2*time.Second, 1).PostJSON(context.Background(), srv.URL, []byte(`{}`))
	if err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", raw)
	}
}

func TestPostJSONWithoutRetriesMakesOneAttempt(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(2*time.Second, 0).PostJSON(context.Background(), srv.URL, []byte(`{}`))
	if clierr.CodeOf(err) != clierr.CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&count); got != 1 {
		t.Fatalf("expected exactly one attempt, got %d", got)
	}
}

func TestPostJSONDoesNotRetryRefusal(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(2*time.Second, 3).PostJSON(context.Background(), srv.URL, []byte(`{}`))
	if clierr.CodeOf(err) != clierr.CodeRejected {
		t.Fatalf("expected rejected, got %v", err)
	}
	if got := atomic.LoadInt32(&count); got != 1 {
		t.Fatalf("refusals must not be retried, got %d attempts", got)
	}
}

func TestPostJSONMapsUndecodableBodyToMalformed(t *testing.T) {
	for name, body := range map[string]string{"html": `<html>nope</html>`, "empty": "  "} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := New(2*time.Second, 0).PostJSON(context.Background(), srv.URL, []byte(`{}`))
		srv.Close()
		if clierr.CodeOf(err) != clierr.CodeMalformedResponse {
			t.Fatalf("%s: expected malformed response, got %v", name, err)
		}
	}
}

func TestPostJSONMapsDialFailureToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(time.Second, 0).PostJSON(context.Background(), url, []byte(`{}`))
	if clierr.CodeOf(err) != clierr.CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestPostJSONTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(50*time.Millisecond, 0).PostJSON(context.Background(), srv.URL, []byte(`{}`))
	if clierr.CodeOf(err) != clierr.CodeUnavailable {
		t.Fatalf("expected unavailable on timeout, got %v", err)
	}
}
