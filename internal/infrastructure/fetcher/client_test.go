package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(retries int) *Client {
	return NewClient(Options{
		UserAgent:      "test-agent",
		Timeout:        2 * time.Second,
		MaxRetries:     retries,
		RetryBaseDelay: time.Millisecond,
	})
}

// dropConnection closes the connection without writing a response
func dropConnection(t *testing.T, w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	require.True(t, ok)
	conn, _, err := hj.Hijack()
	require.NoError(t, err)
	conn.Close()
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{})

	assert.NotNil(t, client.http)
	assert.Equal(t, 3, client.maxRetries)
	assert.Equal(t, time.Second, client.retryBaseDelay)
	assert.NotNil(t, client.logger)
	assert.Empty(t, client.limiters)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(500*time.Millisecond, tt.attempt))
		})
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	page, err := testClient(3).Fetch(context.Background(), server.URL+"/collections/sale")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.True(t, page.OK())
	assert.Equal(t, "<html>ok</html>", string(page.Body))
}

func TestFetch_NonSuccessStatusIsReturnedNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	page, err := testClient(3).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
	assert.False(t, page.OK())
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetch_ConnectionFailureRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			dropConnection(t, w)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	page, err := testClient(3).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "recovered", string(page.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetch_RetriesExhausted(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		dropConnection(t, w)
	}))
	defer server.Close()

	page, err := testClient(2).Fetch(context.Background(), server.URL)

	assert.Nil(t, page)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, server.URL, fetchErr.URL)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Options{
		Timeout:        50 * time.Millisecond,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	})

	_, err := client.Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := testClient(1).Fetch(context.Background(), "not a url")

	assert.ErrorIs(t, err, domain.ErrUnreachable)
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(3).Fetch(ctx, server.URL)

	assert.Error(t, err)
}

func TestFetch_RequestDelayPerHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(Options{MaxRetries: 1, RequestDelay: 100 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(ctx, server.URL)
		require.NoError(t, err)
	}

	// first request spends the burst token, the next two each wait one delay
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
	assert.Len(t, client.limiters, 1)
}
