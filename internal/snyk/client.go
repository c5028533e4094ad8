package snyk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the REST API endpoint of the source tenant.
	DefaultBaseURL = "https://api.snyk.io"
	// DefaultVersion is the pinned REST API version.
	DefaultVersion = "2024-06-18"

	pageLimit = 100
)

// TransportError reports an HTTP or network failure while fetching a
// listing page. Listing fetches are never retried; the error propagates to
// the caller with no partial results.
type TransportError struct {
	URL        string
	StatusCode int // zero when the request never produced a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s returned %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client is a minimal HTTP client for the tenant's cursor-paginated REST
// listing API. Only the read-only calls the extraction needs are
// implemented here.
type Client struct {
	baseURL string
	version string
	token   string
	http    *http.Client
}

// NewClient returns a Client authenticated with token.
// baseURL defaults to DefaultBaseURL when empty.
func NewClient(baseURL, token string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		version: DefaultVersion,
		token:   token,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GroupOrgs returns every organization in the group, across all pages.
func (c *Client) GroupOrgs(ctx context.Context, groupID string) ([]Org, error) {
	url := fmt.Sprintf("%s/rest/groups/%s/orgs?version=%s&limit=%d",
		c.baseURL, groupID, c.version, pageLimit)
	raw, err := c.collect(ctx, url)
	if err != nil {
		return nil, err
	}
	orgs := make([]Org, 0, len(raw))
	for _, item := range raw {
		var org Org
		if err := json.Unmarshal(item, &org); err != nil {
			return nil, fmt.Errorf("decoding org: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

// OrgTargets returns every target of the organization, across all pages.
func (c *Client) OrgTargets(ctx context.Context, orgID string) ([]Target, error) {
	url := fmt.Sprintf("%s/rest/orgs/%s/targets?version=%s&limit=%d",
		c.baseURL, orgID, c.version, pageLimit)
	raw, err := c.collect(ctx, url)
	if err != nil {
		return nil, err
	}
	targets := make([]Target, 0, len(raw))
	for _, item := range raw {
		var t Target
		if err := json.Unmarshal(item, &t); err != nil {
			return nil, fmt.Errorf("decoding target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// TargetProjects returns every project of the target, across all pages.
func (c *Client) TargetProjects(ctx context.Context, orgID, targetID string) ([]Project, error) {
	url := fmt.Sprintf("%s/rest/orgs/%s/projects?target_id=%s&version=%s&limit=%d",
		c.baseURL, orgID, targetID, c.version, pageLimit)
	raw, err := c.collect(ctx, url)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(raw))
	for _, item := range raw {
		var p Project
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("decoding project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// listPage is the envelope every listing endpoint returns.
type listPage struct {
	Data  []json.RawMessage `json:"data"`
	Links pageLinks         `json:"links"`
}

type pageLinks struct {
	Next string `json:"next"`
}

// collect requests url and follows links.next until absent, accumulating
// every page's data array in listing order.
func (c *Client) collect(ctx context.Context, url string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	for url != "" {
		page, err := c.getPage(ctx, url)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Data...)
		url = c.nextURL(page.Links.Next)
	}
	return items, nil
}

func (c *Client) getPage(ctx context.Context, url string) (*listPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer res.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(res.Body, 10<<20))
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &TransportError{URL: url, StatusCode: res.StatusCode}
	}

	var page listPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding page from %s: %w", url, err)
	}
	return &page, nil
}

// nextURL resolves a server-provided next link, which may be relative to
// the API base or absolute.
func (c *Client) nextURL(next string) string {
	if next == "" {
		return ""
	}
	if strings.HasPrefix(next, "/") {
		return c.baseURL + next
	}
	return next
}
