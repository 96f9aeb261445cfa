package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(serverURL string, retries int) *GitHubFetcher {
	return NewGitHubFetcher(Options{
		BaseURL: serverURL,
		Retries: retries,
		Backoff: time.Millisecond,
	})
}

func TestArchiveURL(t *testing.T) {
	f := NewGitHubFetcher(Options{})
	assert.Equal(t,
		"https://github.com/pynosaur/yday/archive/refs/heads/main.zip",
		f.ArchiveURL("yday"))

	f = NewGitHubFetcher(Options{Owner: "someone", Branch: "dev"})
	assert.Equal(t,
		"https://github.com/someone/yday/archive/refs/heads/dev.zip",
		f.ArchiveURL("yday"))
	assert.Equal(t, "dev", f.Branch())

	f = NewGitHubFetcher(Options{Branch: "feature/new ui"})
	assert.Equal(t,
		"https://github.com/pynosaur/yday/archive/refs/heads/feature/new%20ui.zip",
		f.ArchiveURL("yday"))
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
		notFound   bool
	}{
		{
			name:       "successful_download",
			statusCode: http.StatusOK,
			body:       "fake zip content",
		},
		{
			name:       "404_not_found",
			statusCode: http.StatusNotFound,
			body:       "not found",
			wantErr:    true,
			notFound:   true,
		},
		{
			name:       "500_server_error",
			statusCode: http.StatusInternalServerError,
			body:       "server error",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
				assert.Equal(t, "/pynosaur/test-app/archive/refs/heads/main.zip", r.URL.Path)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			data, err := newTestFetcher(server.URL, 1).Fetch(context.Background(), "test-app")

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(data))
		})
	}
}

func TestFetchRetryLogic(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	data, err := newTestFetcher(server.URL, 3).Fetch(context.Background(), "app")
	require.NoError(t, err)
	assert.Equal(t, "success", string(data))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL, 3).Fetch(context.Background(), "ghost-app")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetchContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(server.URL, 3).Fetch(ctx, "app")
	assert.ErrorIs(t, err, context.Canceled)
}
