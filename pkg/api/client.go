// Package api is the client for the certification backend's REST API.
//
// Only the read operations the tech tree needs are implemented. The client
// never retries and never attaches credentials.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// Operation names, used in errors and metrics.
const (
	OpGraph         = "graph"
	OpCertification = "certification"
	OpCategories    = "categories"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// Client talks to the backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client. baseURL defaults to DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchGraph requests the prerequisite graph, optionally scoped to a category.
// An empty category means unfiltered.
func (c *Client) FetchGraph(ctx context.Context, category string) (model.GraphDataset, error) {
	defer metrics.Timer(metrics.APIGraph)()

	q := url.Values{}
	if category = strings.TrimSpace(category); category != "" {
		q.Set("category", category)
	}

	var ds model.GraphDataset
	err := c.getJSON(ctx, OpGraph, "/certifications/graph", q, &ds)
	metrics.ObserveFetch(OpGraph, err, err == nil && ds.IsEmpty())
	if err != nil {
		return model.GraphDataset{}, err
	}
	debug.Log("api: graph category=%q nodes=%d edges=%d", category, len(ds.Nodes), len(ds.Edges))
	return ds, nil
}

// FetchCertification requests the full record for a certification id.
func (c *Client) FetchCertification(ctx context.Context, id int) (model.CertificationDetail, error) {
	defer metrics.Timer(metrics.APIDetail)()

	if id <= 0 {
		return model.CertificationDetail{}, fmt.Errorf("%s: invalid id %d", OpCertification, id)
	}

	var detail model.CertificationDetail
	err := c.getJSON(ctx, OpCertification, "/certifications/"+strconv.Itoa(id), nil, &detail)
	metrics.ObserveFetch(OpCertification, err, false)
	if err != nil {
		return model.CertificationDetail{}, err
	}
	return detail, nil
}

// FetchCategories requests the category tree.
func (c *Client) FetchCategories(ctx context.Context) ([]model.CategoryTree, error) {
	defer metrics.Timer(metrics.APICategories)()

	var tree []model.CategoryTree
	err := c.getJSON(ctx, OpCategories, "/certifications/categories", nil, &tree)
	metrics.ObserveFetch(OpCategories, err, err == nil && len(tree) == 0)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
