package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ghgrab/internal/logger"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// userAgent identifies ghgrab to the API. GitHub rejects requests without one.
const userAgent = "ghgrab/1.0"

// perPage is the page size used when listing releases.
const perPage = 100

// Sentinel errors for the failure modes callers need to distinguish.
// Transport failures are wrapped as-is and carry no sentinel.
var (
	// ErrNotFound indicates the repository or tag does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited indicates the API throttled the request. It is
	// surfaced, never retried.
	ErrRateLimited = errors.New("rate limited")
)

// Release is a tagged, published set of assets for a repository.
// Immutable once fetched; asset order is preserved as the API returned it so
// "first match" selection stays deterministic.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

// Client fetches release metadata from the GitHub REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient creates a release client. The token is optional; when present it
// is forwarded as a bearer credential, which raises the API rate limit and
// allows private repositories.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, DefaultBaseURL)
}

// NewClientWithBaseURL creates a release client against a specific API root.
// Tests point this at an httptest server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		token: token,
	}
}

// ParseRepo splits an "owner/repo" argument into its two parts.
func ParseRepo(s string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return parts[0], parts[1], nil
}

// ListReleases fetches the repository's releases, newest first, following the
// API's pagination. Draft releases are filtered out.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	var all []Release

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d", c.baseURL, owner, repo, perPage, page)

		var batch []Release
		if err := c.getJSON(ctx, url, &batch); err != nil {
			return nil, fmt.Errorf("list releases for %s/%s: %w", owner, repo, err)
		}

		for _, rel := range batch {
			if rel.Draft {
				continue
			}
			all = append(all, rel)
		}

		// A short page means the API has no more to give.
		if len(batch) < perPage {
			break
		}
	}

	return all, nil
}

// GetRelease fetches a single release. An empty tag selects the latest
// published release (non-draft, non-prerelease, per the API's "latest"
// endpoint semantics).
func (c *Client) GetRelease(ctx context.Context, owner, repo, tag string) (*Release, error) {
	var url string
	if tag == "" {
		url = fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)
	} else {
		url = fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.baseURL, owner, repo, tag)
	}

	var release Release
	if err := c.getJSON(ctx, url, &release); err != nil {
		if tag == "" {
			return nil, fmt.Errorf("latest release of %s/%s: %w", owner, repo, err)
		}
		return nil, fmt.Errorf("release %s of %s/%s: %w", tag, owner, repo, err)
	}
	return &release, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
// Non-2xx statuses are mapped onto the error taxonomy.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	logger.Debug("[DEBUG] GET %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decoding.
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return ErrRateLimited
	default:
		return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response JSON: %w", err)
	}
	return nil
}
