// Package supabase provides a minimal client for the PostgREST interface of a
// hosted Supabase project.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the PostgREST operations used by the populator.
type Client interface {
	// Insert adds one row to table. Each call is one HTTP request.
	Insert(ctx context.Context, table string, row any) error
}

// Option configures the Supabase client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Zero or less disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithSchema selects a non-default Postgres schema via Content-Profile.
func WithSchema(schema string) Option {
	return func(c *httpClient) {
		c.schema = schema
	}
}

type httpClient struct {
	baseURL string
	key     string
	schema  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for the project at projectURL authenticated with
// a service role key.
func NewClient(projectURL, serviceKey string, opts ...Option) (Client, error) {
	if projectURL == "" {
		return nil, eris.New("supabase: project url is required")
	}
	if serviceKey == "" {
		return nil, eris.New("supabase: service key is required")
	}
	c := &httpClient{
		baseURL: strings.TrimRight(projectURL, "/"),
		key:     serviceKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Insert posts row to /rest/v1/<table> asking for a minimal response.
func (c *httpClient) Insert(ctx context.Context, table string, row any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "supabase: rate limit wait")
		}
	}

	body, err := json.Marshal(row)
	if err != nil {
		return eris.Wrapf(err, "supabase: marshal %s row", table)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "supabase: create request")
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if c.schema != "" {
		req.Header.Set("Content-Profile", c.schema)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "supabase: insert into %s", table)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(table, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Table      string
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase: insert into %s: status %d (%s): %s", e.Table, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("supabase: insert into %s: status %d: %s", e.Table, e.StatusCode, msg)
}

func newAPIError(table string, resp *http.Response) error {
	apiErr := &APIError{Table: table, StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(body, apiErr); err != nil && len(body) > 0 {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
