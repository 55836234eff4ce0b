package neon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ElaineAng/db-fork/internal/config"
)

// BranchInfo is a branch as the Neon API reports it.
type BranchInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Default  bool   `json:"default,omitempty"`
}

// APIError is a non-2xx response from the Neon API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("neon api %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}

// Client talks to the Neon control plane for one project. It carries its
// own credentials; nothing is read from process-wide state.
type Client struct {
	baseURL   string
	apiKey    string
	projectID string
	http      *http.Client
}

// NewClient builds a client from cfg.
func NewClient(cfg *config.NeonConfig) *Client {
	base := cfg.APIBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		baseURL:   base,
		apiKey:    cfg.APIKey,
		projectID: cfg.ProjectID,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) projectPath(parts ...string) string {
	escaped := make([]string, 0, len(parts)+2)
	escaped = append(escaped, "projects", url.PathEscape(c.projectID))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.Join(escaped, "/")
}

// do sends a JSON request and decodes the JSON response into out when out is
// not nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("neon api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// CreateBranch forks name from parentID, or from the project's default
// branch when parentID is empty. The branch gets a read-write endpoint so
// that it can be connected to.
func (c *Client) CreateBranch(ctx context.Context, name, parentID string) (BranchInfo, error) {
	branch := map[string]string{"name": name}
	if parentID != "" {
		branch["parent_id"] = parentID
	}
	payload := map[string]any{
		"endpoints": []map[string]string{{"type": "read_write"}},
		"branch":    branch,
	}
	var out struct {
		Branch BranchInfo `json:"branch"`
	}
	if err := c.do(ctx, http.MethodPost, c.projectPath("branches"), payload, &out); err != nil {
		return BranchInfo{}, err
	}
	return out.Branch, nil
}

func (c *Client) ListBranches(ctx context.Context) ([]BranchInfo, error) {
	var out struct {
		Branches []BranchInfo `json:"branches"`
	}
	if err := c.do(ctx, http.MethodGet, c.projectPath("branches"), nil, &out); err != nil {
		return nil, err
	}
	return out.Branches, nil
}

func (c *Client) DeleteBranch(ctx context.Context, branchID string) error {
	return c.do(ctx, http.MethodDelete, c.projectPath("branches", branchID), nil, nil)
}

// ConnectionURI returns a Postgres URI for database on the branch, logging
// in as role.
func (c *Client) ConnectionURI(ctx context.Context, branchID, database, role string) (string, error) {
	q := url.Values{}
	q.Set("branch_id", branchID)
	q.Set("database_name", database)
	q.Set("role_name", role)

	var out struct {
		URI string `json:"uri"`
	}
	if err := c.do(ctx, http.MethodGet, c.projectPath("connection_uri")+"?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	if out.URI == "" {
		return "", fmt.Errorf("neon api returned an empty connection uri for branch %s", branchID)
	}
	return out.URI, nil
}

func (c *Client) CreateDatabase(ctx context.Context, branchID, name, owner string) error {
	payload := map[string]any{
		"database": map[string]string{"name": name, "owner_name": owner},
	}
	return c.do(ctx, http.MethodPost, c.projectPath("branches", branchID, "databases"), payload, nil)
}

func (c *Client) DeleteDatabase(ctx context.Context, branchID, name string) error {
	return c.do(ctx, http.MethodDelete, c.projectPath("branches", branchID, "databases", name), nil, nil)
}
