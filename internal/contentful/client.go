// Package contentful is a small client for the Contentful Content Management
// API, covering the read operations cfu needs: spaces, environments, entries
// and assets.
package contentful

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/debug"
)

const (
	// DefaultBaseURL is the Content Management API endpoint.
	DefaultBaseURL = "https://api.contentful.com"

	// DefaultRetryMaxElapsed bounds how long rate-limited and 5xx requests
	// are retried.
	DefaultRetryMaxElapsed = 30 * time.Second

	mediaType = "application/vnd.contentful.management.v1+json"
	userAgent = "contentful-utility-suite/1.0"
)

// Client provides HTTP access to the Content Management API.
type Client struct {
	BaseURL         string
	Token           string
	HTTPClient      *http.Client
	RetryMaxElapsed time.Duration
}

// NewClient creates a client authenticated with a management token.
func NewClient(token string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		RetryMaxElapsed: DefaultRetryMaxElapsed,
	}
}

// WithBaseURL returns a copy of the client that talks to baseURL.
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &cp
}

// WithHTTPClient returns a copy of the client using hc.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.HTTPClient = hc
	return &cp
}

// WithRetryMaxElapsed returns a copy of the client with a different retry
// budget. Zero disables retries.
func (c *Client) WithRetryMaxElapsed(d time.Duration) *Client {
	cp := *c
	cp.RetryMaxElapsed = d
	return &cp
}

// Space is a Contentful space.
type Space struct {
	Name string `json:"name"`
	Sys  struct {
		ID string `json:"id"`
	} `json:"sys"`
}

// GetSpace fetches a space. It is the cheapest call that proves a token can
// read the space.
func (c *Client) GetSpace(ctx context.Context, spaceID string) (*Space, error) {
	apiURL := fmt.Sprintf("%s/spaces/%s", c.BaseURL, url.PathEscape(spaceID))

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get space %s: %w", spaceID, err)
	}

	var space Space
	if err := json.Unmarshal(body, &space); err != nil {
		return nil, fmt.Errorf("parse space response: %w", err)
	}
	return &space, nil
}

// doRequest performs an authenticated request and returns the response body.
// Rate-limited (429) and server-side (5xx) failures are retried with
// exponential backoff until RetryMaxElapsed; everything else fails at once.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("contentful API URL not configured")
	}
	if c.Token == "" {
		return nil, fmt.Errorf("contentful management token not configured")
	}

	var respBody []byte
	attempt := 0
	op := func() error {
		attempt++
		var err error
		respBody, err = c.do(ctx, method, apiURL, body)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		debug.Logf("contentful: %s %s failed (attempt %d), retrying: %v\n", method, apiURL, attempt, err)
		return err
	}

	if c.RetryMaxElapsed <= 0 {
		return respBody, unwrapPermanent(op())
	}
	if err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), ctx)); err != nil {
		return nil, err
	}
	return respBody, nil
}

func (c *Client) newBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = c.RetryMaxElapsed
	return bo
}

func (c *Client) do(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", mediaType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// isRetryable reports whether err is a transient failure worth retrying.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
