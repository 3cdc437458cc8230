package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/version"
)

// Client posts JSON bodies to a node endpoint. Failures map onto the network error
// kinds: transport problems are CodeUnavailable, unusable bodies CodeMalformedResponse
// and refused requests CodeRejected.
type Client struct {
	httpClient *http.Client
	retries    int
	userAgent  string
}

// New returns a client whose requests time out after timeout. Only transport failures,
// 429 and 5xx responses are retried, at most retries times.
func New(timeout time.Duration, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		userAgent:  version.CLIName + "/" + version.CLIVersion,
	}
}

// PostJSON sends body to url and returns the response body once it is known to be JSON.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, clierr.Wrap(clierr.CodeUnavailable, "request cancelled", ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}
		raw, retry, err := c.post(ctx, url, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

// post makes one attempt and reports whether a failure is worth retrying.
func (c *Client) post(ctx context.Context, url string, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, clierr.Wrap(clierr.CodeInvalidArgument, fmt.Sprintf("invalid node address %q", url), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, mapNetError(err)
	}
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, clierr.Wrap(clierr.CodeUnavailable, "read node response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, clierr.New(clierr.CodeUnavailable, "node rate limited request")
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, clierr.Newf(clierr.CodeUnavailable, "node unavailable (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, false, clierr.Newf(clierr.CodeRejected, "node refused request (status %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, clierr.Newf(clierr.CodeRejected, "node returned unexpected status %d", resp.StatusCode)
	}

	trimmed := bytes.TrimSpace(buf)
	if len(trimmed) == 0 {
		return nil, false, clierr.New(clierr.CodeMalformedResponse, "node returned empty response")
	}
	if !json.Valid(trimmed) {
		return nil, false, clierr.New(clierr.CodeMalformedResponse, "node response is not JSON")
	}
	return json.RawMessage(trimmed), false, nil
}

func mapNetError(err error) error {
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return clierr.Wrap(clierr.CodeUnavailable, "node timeout", err)
	}
	return clierr.Wrap(clierr.CodeUnavailable, "node request failed", err)
}

func backoff(attempt int) time.Duration {
	d := 120 * time.Millisecond << uint(attempt-1)
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d + time.Duration(rand.Intn(75))*time.Millisecond
}
