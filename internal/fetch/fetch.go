// Package fetch downloads application source archives from GitHub.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the archive host.
	DefaultBaseURL = "https://github.com"
	// DefaultOwner is the GitHub account that publishes applications.
	DefaultOwner = "pynosaur"
	// DefaultBranch is the branch whose head archive is installed.
	DefaultBranch = "main"
	// DefaultRetries is the default number of retries after a failed attempt.
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "pget/1.0"

	maxRedirects = 10
)

// ErrNotFound is returned when the remote has no archive for the name.
// It is a normal outcome, not a transport failure.
var ErrNotFound = errors.New("archive not found")

// Fetcher returns the archive bytes for an application name.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Options configures a GitHubFetcher.
type Options struct {
	BaseURL string
	Owner   string
	Branch  string
	Retries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
	Client  *http.Client
	Logger  zerolog.Logger
}

// GitHubFetcher downloads branch-head zip archives with retry logic.
type GitHubFetcher struct {
	client    *http.Client
	baseURL   string
	owner     string
	branch    string
	userAgent string
	retries   int
	backoff   time.Duration
	logger    zerolog.Logger
}

// NewGitHubFetcher creates a fetcher, filling unset options with defaults.
func NewGitHubFetcher(opts Options) *GitHubFetcher {
	f := &GitHubFetcher{
		client:    opts.Client,
		baseURL:   opts.BaseURL,
		owner:     opts.Owner,
		branch:    opts.Branch,
		userAgent: DefaultUserAgent,
		retries:   opts.Retries,
		backoff:   opts.Backoff,
		logger:    opts.Logger,
	}
	if f.client == nil {
		f.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	if f.owner == "" {
		f.owner = DefaultOwner
	}
	if f.branch == "" {
		f.branch = DefaultBranch
	}
	if f.retries < 0 {
		f.retries = 0
	}
	if f.backoff <= 0 {
		f.backoff = time.Second
	}
	return f
}

// Branch returns the branch this fetcher downloads.
func (f *GitHubFetcher) Branch() string {
	return f.branch
}

// ArchiveURL returns the archive URL for name.
func (f *GitHubFetcher) ArchiveURL(name string) string {
	return fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip",
		f.baseURL, url.PathEscape(f.owner), url.PathEscape(name), escapeRef(f.branch))
}

// escapeRef escapes each segment of a ref; branch names may contain slashes.
func escapeRef(ref string) string {
	segments := strings.Split(ref, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// Fetch downloads the archive for name. A 404 yields ErrNotFound without
// retrying; other failures are retried with exponential backoff.
func (f *GitHubFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	archiveURL := f.ArchiveURL(name)
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := f.backoff * time.Duration(1<<uint(attempt-1))
			f.logger.Debug().Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("Retrying download")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := f.fetchOnce(ctx, archiveURL)
		if err == nil {
			f.logger.Debug().Str("url", archiveURL).Int("bytes", len(data)).Msg("Downloaded archive")
			return data, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("download failed after %d retries: %w", f.retries, lastErr)
}

func (f *GitHubFetcher) fetchOnce(ctx context.Context, archiveURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, archiveURL)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf.Bytes(), nil
}
