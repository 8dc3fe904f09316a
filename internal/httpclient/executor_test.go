package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/rate"
)

func newExec(retryMax int, client *http.Client) *Executor {
	return New(zap.NewNop(), nil, client, retryMax, "test", 0)
}

// countingHandler returns failStatus for the first failCount calls and 200 with body afterwards.
func countingHandler(failCount int, failStatus int, successBody []byte) (http.Handler, *atomic.Int32) {
	var n atomic.Int32
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(n.Add(1)) <= failCount {
			w.WriteHeader(failStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(successBody)
	}), &n
}

func TestGet_SuccessFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	body, header, err := newExec(2, srv.Client()).Get(context.Background(), srv.URL, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
	assert.Equal(t, "image/png", header.Get("Content-Type"))
}

func TestGet_RetriesServerErrorThenSucceeds(t *testing.T) {
	h, calls := countingHandler(2, http.StatusBadGateway, []byte("ok"))
	srv := httptest.NewServer(h)
	defer srv.Close()

	body, _, err := newExec(2, srv.Client()).Get(context.Background(), srv.URL, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	h, calls := countingHandler(10, http.StatusNotFound, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, _, err := newExec(3, srv.Client()).Get(context.Background(), srv.URL, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_RetriesExhausted(t *testing.T) {
	h, calls := countingHandler(100, http.StatusServiceUnavailable, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, _, err := newExec(2, srv.Client()).Get(context.Background(), srv.URL, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_ZeroRetries(t *testing.T) {
	h, calls := countingHandler(100, http.StatusInternalServerError, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, _, err := newExec(0, srv.Client()).Get(context.Background(), srv.URL, "k")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, _, err := newExec(0, &http.Client{Timeout: time.Second}).Get(context.Background(), url, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGet_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := newExec(3, srv.Client()).Get(ctx, srv.URL, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGet_RateLimitWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	mgr := rate.NewManager(rate.Config{RequestsPerSecond: 0.01, Burst: 1})
	exec := New(zap.NewNop(), mgr, srv.Client(), 0, "test", 0)

	_, _, err := exec.Get(context.Background(), srv.URL, "host")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = exec.Get(ctx, srv.URL, "host")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGet_BodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	exec := New(zap.NewNop(), nil, srv.Client(), 0, "test", 4)
	body, _, err := exec.Get(context.Background(), srv.URL, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123"), body)
}

func TestGetJSON_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
	}))
	defer srv.Close()

	var out map[string]string
	require.NoError(t, newExec(0, srv.Client()).GetJSON(context.Background(), srv.URL, "k", &out))
	assert.Equal(t, "ok", out["result"])
}

func TestGetJSON_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var out []any
	err := newExec(0, srv.Client()).GetJSON(context.Background(), srv.URL, "k", &out)
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestGetJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	var out []any
	err := newExec(0, srv.Client()).GetJSON(context.Background(), srv.URL, "k", &out)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, Backoff(0))
	assert.Equal(t, 250*time.Millisecond, Backoff(1))
	assert.Equal(t, 500*time.Millisecond, Backoff(2))
	assert.Equal(t, 500*time.Millisecond, Backoff(9))
}
