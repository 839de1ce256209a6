// Package version carries build information and checks for newer releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Release endpoint defaults.
const (
	DefaultBaseURL = "https://api.github.com"
	DefaultOwner   = "berrywallet"
	DefaultRepo    = "berrysync"
	DefaultTimeout = 15 * time.Second

	maxBodySize = 64 * 1024
)

// ErrReleaseLookup is returned when the release API answers with an error.
var ErrReleaseLookup = errors.New("release lookup failed")

// Build information, set with -ldflags at release time.
//
//nolint:gochecknoglobals // populated by the linker
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the linked-in build information.
func Current() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, Date: Date}
}

// String renders "v1.2.3 (commit: abc1234, built: 2024-01-15)".
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)",
		orDefault(b.Version, "dev"), orDefault(b.Commit, "unknown"), orDefault(b.Date, "unknown"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Release is the subset of a GitHub release the update check needs.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// Checker fetches the latest published release.
type Checker struct {
	BaseURL string
	Owner   string
	Repo    string
	Client  *http.Client
	Retry   RetryConfig
}

// NewChecker returns a checker for the berrysync repository.
func NewChecker() *Checker {
	return &Checker{
		BaseURL: DefaultBaseURL,
		Owner:   DefaultOwner,
		Repo:    DefaultRepo,
		Client:  &http.Client{Timeout: DefaultTimeout},
		Retry:   DefaultRetryConfig(),
	}
}

// Latest fetches the latest release. Rate limiting and server errors are
// retried according to c.Retry.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimSuffix(c.BaseURL, "/"), c.Owner, c.Repo)

	return withRetry(ctx, c.Retry, func() (*Release, time.Duration, error) {
		return c.fetch(ctx, url)
	})
}

func (c *Checker) fetch(ctx context.Context, url string) (*Release, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", fmt.Sprintf("berrysync/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH))

	resp, err := c.Client.Do(req) //nolint:gosec // URL is built from the configured release endpoint
	if err != nil {
		return nil, 0, fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.LimitReader(resp.Body, maxBodySize)
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(body, 1024))
		err := fmt.Errorf("%w: status %d: %s", ErrReleaseLookup, resp.StatusCode, strings.TrimSpace(string(msg)))
		if retryStatus(resp.StatusCode) {
			return nil, retryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("%w (%w)", err, errRetryable)
		}
		return nil, 0, err
	}

	var release Release
	if err := json.NewDecoder(body).Decode(&release); err != nil {
		return nil, 0, fmt.Errorf("decoding release: %w", err)
	}
	return &release, 0, nil
}

// IsNewer reports whether latest is a higher semantic version than current.
// Development builds are older than any release.
func IsNewer(current, latest string) bool {
	cur, curOK := parse(current)
	lat, latOK := parse(latest)
	switch {
	case !latOK:
		return false
	case !curOK:
		return true
	}

	for i := range cur {
		if lat[i] != cur[i] {
			return lat[i] > cur[i]
		}
	}
	return false
}

// parse reads major.minor.patch, ignoring a v prefix and any -/+ suffix.
func parse(v string) ([3]int, bool) {
	var out [3]int

	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}

	parts := strings.Split(v, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
