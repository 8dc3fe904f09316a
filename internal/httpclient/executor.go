package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/rate"
)

// Failure classes. Returned errors wrap exactly one of these.
var (
	ErrTransport = errors.New("transport failure")
	ErrStatus    = errors.New("unexpected status")
	ErrEmptyBody = errors.New("empty response body")
	ErrDecode    = errors.New("decode failed")
)

// StatusError carries the HTTP status of a rejected response.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.Status)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// Executor performs rate-limited GETs with bounded retries on transport errors and 5xx.
type Executor struct {
	logger   *zap.Logger
	rateMgr  *rate.Manager
	http     *http.Client
	retryMax int
	tag      string
	maxBody  int64
}

// New creates an Executor. tag prefixes log event names ("source", "logo").
// maxBody caps the bytes read from a response; 0 means 8 MiB.
func New(logger *zap.Logger, rateMgr *rate.Manager, httpClient *http.Client, retryMax int, tag string, maxBody int64) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if maxBody <= 0 {
		maxBody = 8 << 20
	}
	if retryMax < 0 {
		retryMax = 0
	}
	return &Executor{
		logger:   logger,
		rateMgr:  rateMgr,
		http:     httpClient,
		retryMax: retryMax,
		tag:      tag,
		maxBody:  maxBody,
	}
}

// Get fetches url and returns the body of a 2xx response.
// rateLimitKey scopes the rate limiter, typically the URL host.
func (e *Executor) Get(ctx context.Context, url, rateLimitKey string) ([]byte, http.Header, error) {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			return nil, nil, fmt.Errorf("%w: rate limit wait: %v", ErrTransport, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, Backoff(attempt-1)); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrTransport, err)
			}
		}

		body, header, retry, err := e.once(ctx, url)
		if err == nil {
			return body, header, nil
		}
		lastErr = err
		if !retry {
			return nil, nil, err
		}
	}

	return nil, nil, fmt.Errorf("%s request failed after %d attempts: %w", e.tag, e.retryMax+1, lastErr)
}

func (e *Executor) once(ctx context.Context, url string) ([]byte, http.Header, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		e.logger.Warn(e.tag+".http_failed", zap.String("url", url), zap.Error(err))
		return nil, nil, ctx.Err() == nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return nil, nil, ctx.Err() == nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	elapsed := time.Since(start)

	if resp.StatusCode >= 500 {
		e.logger.Warn(e.tag+".server_error",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
			zap.Duration("latency", elapsed))
		return nil, nil, true, &StatusError{Status: resp.StatusCode, Body: body}
	}
	if resp.StatusCode >= 300 {
		e.logger.Warn(e.tag+".rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url))
		return nil, nil, false, &StatusError{Status: resp.StatusCode, Body: body}
	}

	e.logger.Debug(e.tag+".http_success",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", elapsed))
	return body, resp.Header, false, nil
}

// GetJSON fetches url and decodes the body into out. An empty body is ErrEmptyBody.
func (e *Executor) GetJSON(ctx context.Context, url, rateLimitKey string, out any) error {
	body, _, err := e.Get(ctx, url, rateLimitKey)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(body, out); err != nil {
		e.logger.Warn(e.tag+".decode_failed",
			zap.String("url", url),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
