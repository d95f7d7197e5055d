// Package github lists repository trees and fetches raw files over the
// GitHub REST API. It is the only package that talks to the network.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseBytes bounds every response body read by the client (32 MiB).
const maxResponseBytes = 32 << 20

type (
	// Entry is one item of a repository contents listing.
	Entry struct {
		Name string
		Path string
		SHA  string
		Type string // "dir", "file", "symlink" or "submodule"
	}

	// TreeEntry is one item of a git tree. Mode carries the git file mode:
	// "040000" for directories, "100644"/"100755" for regular files.
	TreeEntry struct {
		Path string
		Mode string
		Type string
		SHA  string
	}

	// Tree is a git tree listing. Entries is nil when the response carried
	// no tree at all, and empty for an empty directory.
	Tree struct {
		SHA       string
		Entries   []TreeEntry
		Truncated bool
	}

	// StatusError reports a response with an unexpected HTTP status.
	StatusError struct {
		URL        string
		StatusCode int
	}

	githubEntry struct {
		Name string `json:"name"`
		Path string `json:"path"`
		SHA  string `json:"sha"`
		Type string `json:"type"`
	}

	githubTreeEntry struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	}

	githubTree struct {
		SHA       string            `json:"sha"`
		Tree      []githubTreeEntry `json:"tree"`
		Truncated bool              `json:"truncated"`
	}

	// Client queries one repository at one ref.
	Client struct {
		httpClient *http.Client
		owner      string
		repo       string
		ref        string
		baseURL    string // API base URL, overridable for tests
		rawHost    string // host trusted with the token for raw fetches
		token      string
		userAgent  string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsDir reports whether the entry is a directory ("040" mode prefix).
func (e TreeEntry) IsDir() bool {
	return strings.HasPrefix(e.Mode, "040")
}

// IsRegular reports whether the entry is a regular file ("100" mode prefix).
func (e TreeEntry) IsRegular() bool {
	return strings.HasPrefix(e.Mode, "100")
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRawHost sets the raw content host the token may be sent to.
func WithRawHost(host string) ClientOption {
	return func(g *Client) {
		g.rawHost = host
	}
}

// WithToken sets a personal access token sent as a bearer token.
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// WithRepo sets the repository owner and name.
func WithRepo(owner, repo string) ClientOption {
	return func(g *Client) {
		g.owner = owner
		g.repo = repo
	}
}

// WithRef sets the branch, tag or commit used for the contents listing.
func WithRef(ref string) ClientOption {
	return func(g *Client) {
		g.ref = ref
	}
}

// NewClient creates a Client. Defaults: jsdelivr/jsdelivr at master,
// https://api.github.com, http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		owner:      "jsdelivr",
		repo:       "jsdelivr",
		ref:        "master",
		baseURL:    "https://api.github.com",
		rawHost:    "raw.githubusercontent.com",
		userAgent:  "libcat/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopLevelEntries lists the root directory of the repository.
func (c *Client) TopLevelEntries(ctx context.Context) ([]Entry, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents", c.baseURL, c.owner, c.repo)
	if c.ref != "" {
		u += "?ref=" + url.QueryEscape(c.ref)
	}

	var raw []githubEntry
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("listing repository root: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, Entry(e))
	}
	return entries, nil
}

// Tree fetches the git tree identified by sha. With recursive set the
// whole subtree is returned in one listing, paths relative to the tree.
func (c *Client) Tree(ctx context.Context, sha string, recursive bool) (*Tree, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s", c.baseURL, c.owner, c.repo, url.PathEscape(sha))
	if recursive {
		u += "?recursive=1"
	}

	var gt githubTree
	if err := c.getJSON(ctx, u, &gt); err != nil {
		return nil, fmt.Errorf("getting tree %s: %w", sha, err)
	}

	t := &Tree{SHA: gt.SHA, Truncated: gt.Truncated}
	if gt.Tree != nil {
		t.Entries = make([]TreeEntry, 0, len(gt.Tree))
		for _, e := range gt.Tree {
			t.Entries = append(t.Entries, TreeEntry(e))
		}
	}
	return t, nil
}

// FetchRaw downloads the body at rawURL.
func (c *Client) FetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, rawURL, "")
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", redactURL(rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: redactURL(rawURL), StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", redactURL(rawURL), err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, v any) error {
	resp, err := c.do(ctx, reqURL, "application/vnd.github+json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: redactURL(reqURL), StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// do executes a GET with the common headers.
func (c *Client) do(ctx context.Context, reqURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if accept != "" {
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	}
	req.Header.Set("User-Agent", c.userAgent)

	// The token only goes to hosts we know belong to the repository host.
	if c.token != "" && c.trustedHost(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func (c *Client) trustedHost(u *url.URL) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, base.Host) {
		return true
	}
	return c.rawHost != "" && strings.EqualFold(u.Host, c.rawHost)
}

// redactURL strips query and fragment for use in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
