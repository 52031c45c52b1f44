// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package githubapi is a typed client for the pieces of the GitHub REST API
// the pipeline consumes: repository search, repository metadata, README
// content, and root file listings.
// See docs/ARCHITECTURE § Code Search.
package githubapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/code-finder/internal/httputil"
	"github.com/pdiddy/code-finder/pkg/types"
)

// apiBase is the GitHub API root. Package-level var for test substitution.
var apiBase = "https://api.github.com"

// Client calls the GitHub REST API. An empty Token works but is limited to
// 60 requests per hour; rate-limited responses are retried with backoff by
// httputil.DoWithRetry either way.
type Client struct {
	HTTP      *http.Client
	Token     string
	UserAgent string
}

// ErrNotFound is returned when a repository does not exist or is private.
var ErrNotFound = fmt.Errorf("repository not found")

// SearchRepositories queries GitHub's repository search, sorted by stars
// descending, and returns at most max results.
func (c *Client) SearchRepositories(ctx context.Context, query string, max int) ([]types.RepoMeta, error) {
	if max <= 0 {
		max = 10
	}

	params := url.Values{
		"q":        {query},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {fmt.Sprintf("%d", min(max, 100))},
	}

	var sr searchResponse
	if err := c.getJSON(ctx, "/search/repositories?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("GitHub search: %w", err)
	}

	var repos []types.RepoMeta
	for _, item := range sr.Items {
		if len(repos) >= max {
			break
		}
		repos = append(repos, item.toMeta())
	}
	return repos, nil
}

// Repo fetches the metadata record for owner/repo. Returns ErrNotFound for
// missing or inaccessible repositories.
func (c *Client) Repo(ctx context.Context, owner, repo string) (types.RepoMeta, error) {
	var item repoItem
	err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &item)
	if err != nil {
		return types.RepoMeta{}, fmt.Errorf("GitHub repo %s/%s: %w", owner, repo, err)
	}
	return item.toMeta(), nil
}

// Readme fetches the repository's README, decoded from the API's base64
// wrapping. A repository without a README returns ErrNotFound.
func (c *Client) Readme(ctx context.Context, owner, repo string) (string, error) {
	var body struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &body); err != nil {
		return "", fmt.Errorf("GitHub readme %s/%s: %w", owner, repo, err)
	}

	if body.Encoding != "base64" {
		return body.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decoding readme %s/%s: %w", owner, repo, err)
	}
	return string(decoded), nil
}

// Contents lists the repository's root directory.
func (c *Client) Contents(ctx context.Context, owner, repo string) ([]types.RepoEntry, error) {
	var items []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/contents/", owner, repo), &items); err != nil {
		return nil, fmt.Errorf("GitHub contents %s/%s: %w", owner, repo, err)
	}

	entries := make([]types.RepoEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, types.RepoEntry{Name: it.Name, IsDir: it.Type == "dir"})
	}
	return entries, nil
}

// getJSON performs an authenticated GET against path and decodes the JSON
// response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// GitHub API JSON structures.
type searchResponse struct {
	TotalCount int        `json:"total_count"`
	Items      []repoItem `json:"items"`
}

type repoItem struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Language    string   `json:"language"`
	Size        int      `json:"size"`
	PushedAt    apiTime  `json:"pushed_at"`
	Archived    bool     `json:"archived"`
	Disabled    bool     `json:"disabled"`
	Topics      []string `json:"topics"`
}

func (r repoItem) toMeta() types.RepoMeta {
	return types.RepoMeta{
		URL:         r.HTMLURL,
		Name:        r.Name,
		FullName:    r.FullName,
		Description: r.Description,
		Stars:       r.Stars,
		Forks:       r.Forks,
		Language:    r.Language,
		SizeKB:      r.Size,
		LastPush:    r.PushedAt.Time,
		Archived:    r.Archived,
		Disabled:    r.Disabled,
		Topics:      r.Topics,
	}
}
