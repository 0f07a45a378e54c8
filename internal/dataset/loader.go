package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

const fetchMaxAttempts = 3

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Loader reads tables from local paths or http(s) URLs
type Loader struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewLoader creates a Loader. httpClient is only used for remote sources.
func NewLoader(httpClient *http.Client, userAgent string, maxBytes int64) *Loader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Loader{
		httpClient: httpClient,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
	}
}

// Load reads and parses the table at source.
// Every failure is returned as a riskerr.StorageError; a missing file or a
// 404 also matches fs.ErrNotExist.
func (l *Loader) Load(ctx context.Context, source string) (*Table, error) {
	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = l.fetchWithRetry(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, riskerr.NewStorageError("read table", source, err)
	}

	t, err := Parse(source, bytes.NewReader(data))
	if err != nil {
		return nil, riskerr.NewStorageError("parse table", source, err)
	}
	return t, nil
}

// LoadOptional is Load for inputs that may legitimately be absent.
// It returns (nil, nil) when the source does not exist.
func (l *Loader) LoadOptional(ctx context.Context, source string) (*Table, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}
	t, err := l.Load(ctx, source)
	if IsNotExist(err) {
		return nil, nil
	}
	return t, err
}

// IsNotExist reports whether err means the source was not found
func IsNotExist(err error) bool {
	return err != nil && cerr.Is(err, fs.ErrNotExist)
}

// fetchWithRetry retries transient failures (5xx, 429, connection errors)
// with linear backoff: 1s, 2s.
func (l *Loader) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxAttempts; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fetchSleepFunc(time.Duration(attempt) * time.Second)
		}

		data, err := l.fetch(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", fetchMaxAttempts, lastErr)
}

// isRetryableFetchError classifies errors produced by fetch
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "unexpected status: ") {
		code := strings.TrimPrefix(msg, "unexpected status: ")
		return strings.HasPrefix(code, "5") || strings.HasPrefix(code, "429")
	}
	return strings.HasPrefix(msg, "fetch: ")
}

// fetch retrieves a remote table with the configured size limit
func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, fs.ErrNotExist)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	limit := l.maxBytes
	if limit <= 0 {
		limit = 256 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return body, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
