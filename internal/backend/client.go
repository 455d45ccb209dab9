// Package backend is a thin client for the hosted backend-as-a-service: the
// identity API, object storage signing and the REST table endpoint.
//
// No call is retried. Every non-2xx response becomes an *apperr.UpstreamError
// carrying the status line and the response body.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/menuboard/internal/apperr"
)

// Config holds the backend endpoint and credentials. Presence is checked per
// call through Check, never at startup.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Bucket         string
}

// Client talks to the hosted backend over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for cfg.
func New(cfg Config, opts ...Option) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Bucket == "" {
		cfg.Bucket = "assets"
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Bucket returns the storage bucket used for assets.
func (c *Client) Bucket() string { return c.cfg.Bucket }

// Check reports which credentials are missing, using the environment
// variable names operators set.
func (c *Client) Check() error {
	var missing []string
	if c.cfg.URL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.cfg.ServiceRoleKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}
	if c.cfg.AnonKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	if len(missing) > 0 {
		return apperr.MissingConfig(missing...)
	}
	return nil
}

// call describes one request to the backend.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	apiKey string
	bearer string
	body   any
	header map[string]string
}

func (c *Client) do(ctx context.Context, in call, out any) error {
	if c.cfg.URL == "" {
		return apperr.MissingConfig("SUPABASE_URL")
	}

	var body io.Reader
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("backend: %s: marshal request: %w", in.op, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.cfg.URL + in.path
	if len(in.query) > 0 {
		u += "?" + in.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, in.method, u, body)
	if err != nil {
		return fmt.Errorf("backend: %s: create request: %w", in.op, err)
	}
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.apiKey != "" {
		req.Header.Set("apikey", in.apiKey)
	}
	if in.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+in.bearer)
	}
	req.Header.Set("Cache-Control", "no-store")
	for k, v := range in.header {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperr.BackendError{Op: "backend: " + in.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &apperr.UpstreamError{
			Op:     in.op,
			Status: resp.StatusCode,
			Text:   http.StatusText(resp.StatusCode),
			Body:   strings.TrimSpace(string(b)),
		}
	}
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.BackendError{Op: "backend: " + in.op + ": read response", Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apperr.BackendError{Op: "backend: " + in.op + ": decode response", Err: err}
	}
	return nil
}

// Message extracts the human-readable message from a backend error. Identity
// API errors carry it in one of several JSON keys; anything else falls back
// to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var up *apperr.UpstreamError
	if !asUpstream(err, &up) || up.Body == "" {
		return err.Error()
	}
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal([]byte(up.Body), &body) != nil {
		return up.Body
	}
	for _, s := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if s != "" {
			return s
		}
	}
	return up.Body
}
