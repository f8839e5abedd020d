// Package obsidian implements a client for the Obsidian Local REST API
// plugin, which exposes the vault over HTTPS on the local machine.
package obsidian

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	contentTypeJSONLogic = "application/vnd.olrapi.jsonlogic+json"
	contentTypeDQL       = "application/vnd.olrapi.dataview.dql+txt"
	acceptNoteJSON       = "application/vnd.olrapi.note+json"
)

// Options configures a Client.
type Options struct {
	Protocol string // "http" or "https"; anything else defaults to https
	Host     string
	Port     int
	APIKey   string
	// VerifySSL controls certificate verification. The plugin ships a
	// self-signed certificate, so this is off by default.
	VerifySSL bool
	Timeout   time.Duration
}

// Client talks to the Obsidian Local REST API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a Client from the given options.
func New(opts Options) *Client {
	protocol := strings.ToLower(opts.Protocol)
	if protocol != "http" {
		protocol = "https"
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port == 0 {
		port = 27124
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !opts.VerifySSL}

	return &Client{
		baseURL: fmt.Sprintf("%s://%s:%d", protocol, host, port),
		apiKey:  opts.APIKey,
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// BaseURL returns the base URL the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is an error response from the REST API, carrying the HTTP
// status and the plugin's errorCode/message body.
type APIError struct {
	Status  int
	Code    int    `json:"errorCode"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "<unknown>"
	}
	return fmt.Sprintf("obsidian api error %d: %s", e.Code, msg)
}

// IsNotFound reports whether the error represents a missing vault entity.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

type (
	// SearchMatch is one match location within a simple search result.
	SearchMatch struct {
		Context string `json:"context"`
		Match   struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"match"`
	}

	// SimpleSearchResult is one file's hits from /search/simple/.
	SimpleSearchResult struct {
		Filename string        `json:"filename"`
		Score    float64       `json:"score"`
		Matches  []SearchMatch `json:"matches"`
	}

	// QueryResult is one row from /search/ under a JsonLogic or
	// Dataview DQL query. Result is query-shaped and left opaque.
	QueryResult struct {
		Filename string         `json:"filename"`
		Result   map[string]any `json:"result"`
	}

	// NoteStat carries file times and size from a note+json response.
	NoteStat struct {
		Ctime int64 `json:"ctime"`
		Mtime int64 `json:"mtime"`
		Size  int64 `json:"size"`
	}

	// Note is a note+json representation of a vault note.
	Note struct {
		Path        string         `json:"path"`
		Content     string         `json:"content"`
		Tags        []string       `json:"tags"`
		Frontmatter map[string]any `json:"frontmatter"`
		Stat        NoteStat       `json:"stat"`
	}
)

// ListVault returns every file path in the vault root, recursively.
func (c *Client) ListVault(ctx context.Context) ([]string, error) {
	var body struct {
		Files []string `json:"files"`
	}
	if err := c.getJSON(ctx, "/vault/", "", &body); err != nil {
		return nil, err
	}
	return body.Files, nil
}

// ListDir returns the immediate children of a vault directory. Names of
// subdirectories carry a trailing slash, per the API.
func (c *Client) ListDir(ctx context.Context, dir string) ([]string, error) {
	var body struct {
		Files []string `json:"files"`
	}
	endpoint := "/vault/" + escapePath(strings.TrimSuffix(dir, "/")) + "/"
	if err := c.getJSON(ctx, endpoint, "", &body); err != nil {
		return nil, err
	}
	return body.Files, nil
}

// FileContents returns the raw markdown content of a vault file.
func (c *Client) FileContents(ctx context.Context, path string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/vault/"+escapePath(path), "", "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response for %s: %w", path, err)
	}
	return string(data), nil
}

// SearchSimple performs a free-text search. contextLength controls how
// much surrounding text each match carries.
func (c *Client) SearchSimple(ctx context.Context, query string, contextLength int) ([]SimpleSearchResult, error) {
	params := url.Values{
		"query":         {query},
		"contextLength": {strconv.Itoa(contextLength)},
	}
	resp, err := c.do(ctx, http.MethodPost, "/search/simple/?"+params.Encode(), "", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var results []SimpleSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding search results: %w", err)
	}
	return results, nil
}

// SearchJSONLogic performs a structured search with a JsonLogic query.
func (c *Client) SearchJSONLogic(ctx context.Context, query map[string]any) ([]QueryResult, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	return c.postSearch(ctx, contentTypeJSONLogic, payload)
}

// SearchDQL performs a structured search with a Dataview DQL query.
func (c *Client) SearchDQL(ctx context.Context, dql string) ([]QueryResult, error) {
	return c.postSearch(ctx, contentTypeDQL, []byte(dql))
}

func (c *Client) postSearch(ctx context.Context, contentType string, payload []byte) ([]QueryResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/search/", contentType, "", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var results []QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding query results: %w", err)
	}
	return results, nil
}

// PeriodicNote resolves the current periodic note for a period type
// (daily, weekly, ...) and returns its note+json representation, which
// includes the note's vault path.
func (c *Client) PeriodicNote(ctx context.Context, period string) (Note, error) {
	var note Note
	endpoint := "/periodic/" + url.PathEscape(period) + "/"
	if err := c.getJSON(ctx, endpoint, acceptNoteJSON, &note); err != nil {
		return Note{}, err
	}
	return note, nil
}

// RecentPeriodicNotes returns the most recent periodic notes of a period
// type, newest first.
func (c *Client) RecentPeriodicNotes(ctx context.Context, period string, limit int, includeContent bool) ([]Note, error) {
	params := url.Values{
		"limit":          {strconv.Itoa(limit)},
		"includeContent": {strconv.FormatBool(includeContent)},
	}
	endpoint := "/periodic/" + url.PathEscape(period) + "/recent?" + params.Encode()

	var notes []Note
	if err := c.getJSON(ctx, endpoint, "", &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, accept string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, endpoint, "", accept, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType, accept string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode, Code: -1}
		if data, err := io.ReadAll(resp.Body); err == nil && len(data) > 0 {
			// Best effort; a non-JSON error body keeps the defaults.
			_ = json.Unmarshal(data, apiErr)
		}
		return nil, apiErr
	}
	return resp, nil
}

// escapePath percent-encodes each segment of a vault path while keeping
// the separators intact.
func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
