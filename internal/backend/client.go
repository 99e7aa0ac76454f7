package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/scout/internal/domain"
	"github.com/mmcdole/scout/internal/images"
)

const (
	defaultTimeout = 15 * time.Second
	defaultPath    = "/search"
	userAgent      = "Scout/1.0"

	// maxBodySize caps how much of a response we are willing to buffer
	maxBodySize = 8 << 20
)

// Options configures a Client
type Options struct {
	BaseURL    string
	Path       string
	Token      string
	Timeout    time.Duration
	Images     *images.Allowlist
	HTTPClient *http.Client
}

// Client implements domain.SearchClient over HTTP + JSON
type Client struct {
	baseURL    string
	path       string
	token      string
	images     *images.Allowlist
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new search API client
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", opts.BaseURL, err)
	}

	path := opts.Path
	if path == "" {
		path = defaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    base,
		path:       path,
		token:      opts.Token,
		images:     opts.Images,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Search queries the backend for one page of results
func (c *Client) Search(ctx context.Context, q domain.Query) (*domain.ResultSet, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))

	body, err := c.doRequest(ctx, http.MethodGet, c.path, params)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	rs, err := MapResponse(&resp, q, c.images)
	if err != nil {
		c.logger.Warn("unusable search response", "query", q.Key(), "error", err)
		return nil, err
	}

	c.logger.Debug("search complete", "query", q.Key(), "items", len(rs.Items), "total", rs.TotalCount)
	return rs, nil
}

// doRequest performs an HTTP request and returns the body of a 2xx answer
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("search request", "method", method, "url", reqURL, "requestID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Debug("search request canceled", "requestID", requestID)
		} else {
			c.logger.Error("search request failed", "error", err, "requestID", requestID)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, domain.ErrAuthFailed)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("search request error", "status", resp.StatusCode, "body", truncate(string(body), 512), "requestID", requestID)
		return nil, fmt.Errorf("%w: unexpected status code: %d", domain.ErrTransport, resp.StatusCode)
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
