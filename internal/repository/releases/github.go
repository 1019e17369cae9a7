package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipfeed/clipfeed/internal/domain/release"
	"github.com/clipfeed/clipfeed/internal/logger"
	"github.com/clipfeed/clipfeed/internal/version"
)

const (
	// acceptHeader selects the GitHub-style JSON representation of a release.
	acceptHeader = "application/vnd.github+json"
	// apiVersionHeader pins the metadata API revision the client was written against.
	apiVersionHeader = "2022-11-28"
)

// errBadHTTPStatus is returned for any non-200 response from the release host.
var errBadHTTPStatus = errors.New("unexpected http status")

// Client fetches release metadata and asset bytes from a GitHub-style
// releases API. Metadata lookups are memoized per repository and ref for
// the lifetime of the client, which is one orchestrator run.
type Client struct {
	// httpClient performs all requests; its timeout bounds each fetch.
	httpClient *http.Client
	// baseURL is the metadata API root, e.g. "https://api.github.com/repos".
	baseURL string
	// cache memoizes metadata per "repository@ref".
	cache map[string]*release.Info
}

// NewClient creates a release client against the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		cache:      make(map[string]*release.Info),
	}
}

// RefForTag maps a release tag to the API ref addressing it:
// the "latest" pseudo-tag stays as-is, anything else goes through the tags namespace.
func RefForTag(tag string) string {
	if tag == release.LatestTag {
		return release.LatestTag
	}

	return "tags/" + tag
}

// VersionInfo fetches the release snapshot for a repository ref,
// serving repeated lookups from the per-run cache.
func (c *Client) VersionInfo(ctx context.Context, repo, ref string) (*release.Info, error) {
	key := repo + "@" + ref
	if info, ok := c.cache[key]; ok {
		return info, nil
	}

	url := fmt.Sprintf("%s/%s/releases/%s", c.baseURL, repo, ref)
	logger.DebugKV(ctx, "Fetching release info", "url", url)

	var info release.Info
	if err := c.getJSON(ctx, url, &info); err != nil {
		return nil, err
	}

	c.cache[key] = &info

	return &info, nil
}

// DownloadAsset retrieves raw asset bytes from the given URL,
// surfacing transport errors unchanged to the caller.
func (c *Client) DownloadAsset(ctx context.Context, url string) ([]byte, error) {
	logger.DebugKV(ctx, "Downloading asset", "url", url)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = body.Close()
	}()

	return io.ReadAll(body)
}

// getJSON fetches a URL and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, url string, out *release.Info) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}

	defer func() {
		_ = body.Close()
	}()

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode release info: %w", err)
	}

	return nil
}

// get issues a GET request with the release API headers.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", "clipfeed/"+version.Short())
	req.Header.Set("X-GitHub-Api-Version", apiVersionHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", url, resp.Status, errBadHTTPStatus)
	}

	return resp.Body, nil
}
