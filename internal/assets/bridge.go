// Package assets moves binary and JSON assets through pre-signed object
// storage URLs issued by the menuboard API.
//
// Uploads fail loudly: a failed presign or PUT is returned to the caller and
// nothing is written through any other path. Downloads are best effort and
// yield nil whenever the asset cannot be fetched.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/menuboard/internal/apperr"
)

const defaultContentType = "application/octet-stream"

// ErrLoginRequired is returned by uploads attempted without an access token.
var ErrLoginRequired = fmt.Errorf("%w: login required", apperr.ErrUnauthorized)

// Bridge is the client side of the presign and sign-download endpoints.
type Bridge struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Bridge) { b.http = hc }
}

// WithLogger sets the logger used for swallowed download failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// NewBridge returns a bridge for the API served at baseURL.
func NewBridge(baseURL string, opts ...Option) *Bridge {
	b := &Bridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

type presignRequest struct {
	AssetKey    string `json:"assetKey"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
}

type presignResponse struct {
	UploadURL string `json:"uploadUrl"`
	Token     string `json:"token"`
	Path      string `json:"path"`
}

type signDownloadResponse struct {
	SignedURL string `json:"signedUrl"`
	Path      string `json:"path"`
}

// Upload presigns assetKey and PUTs r to the returned URL. It returns the
// stored object path. An empty key or nil reader is a no-op returning "".
func (b *Bridge) Upload(ctx context.Context, token, assetKey string, r io.Reader, filename, contentType string, size int64) (string, error) {
	if assetKey == "" || r == nil {
		return "", nil
	}
	if token == "" {
		return "", ErrLoginRequired
	}
	if filename == "" {
		filename = assetKey
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	var grant presignResponse
	err := b.post(ctx, "/api/assets/presign", token, presignRequest{
		AssetKey:    assetKey,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
	}, &grant, "failed to create upload URL")
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, grant.UploadURL, r)
	if err != nil {
		return "", fmt.Errorf("assets: upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if size > 0 {
		req.ContentLength = size
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("assets: upload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("assets: file upload failed: %s", resp.Status)
	}
	return grant.Path, nil
}

// UploadJSON encodes v and uploads it as "<assetKey>.json". A nil v is stored
// as an empty object.
func (b *Bridge) UploadJSON(ctx context.Context, token, assetKey string, v any) (string, error) {
	if assetKey == "" {
		return "", nil
	}
	if v == nil {
		v = struct{}{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("assets: encode %s: %w", assetKey, err)
	}
	return b.Upload(ctx, token, assetKey, bytes.NewReader(data), assetKey+".json", "application/json", int64(len(data)))
}

// Download fetches assetKey through a signed download URL. It returns nil when
// the key or token is empty, the URL cannot be signed, or the object cannot be
// read.
func (b *Bridge) Download(ctx context.Context, token, assetKey string) []byte {
	if assetKey == "" || token == "" {
		return nil
	}

	var grant signDownloadResponse
	err := b.post(ctx, "/api/assets/sign-download", token, map[string]string{"assetKey": assetKey}, &grant, "failed to create download URL")
	if err != nil {
		b.log.Error("sign download url failed", slog.String("asset", assetKey), slog.String("error", err.Error()))
		return nil
	}
	if grant.SignedURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, grant.SignedURL, nil)
	if err != nil {
		b.log.Error("download request failed", slog.String("asset", assetKey), slog.String("error", err.Error()))
		return nil
	}
	resp, err := b.http.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			b.log.Error("download failed", slog.String("asset", assetKey), slog.String("error", err.Error()))
		}
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		b.log.Error("read download failed", slog.String("asset", assetKey), slog.String("error", err.Error()))
		return nil
	}
	return data
}

// DownloadJSON downloads assetKey and decodes it into v. It reports whether v
// was filled.
func (b *Bridge) DownloadJSON(ctx context.Context, token, assetKey string, v any) bool {
	data := b.Download(ctx, token, assetKey)
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		b.log.Error("parse json asset failed", slog.String("asset", assetKey), slog.String("error", err.Error()))
		return false
	}
	return true
}

// post sends a JSON request to the API and decodes a 2xx response into out.
// Error responses surface the server's {"error"} message, or fallback.
func (b *Bridge) post(ctx context.Context, path, token string, in, out any, fallback string) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("assets: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("assets: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("assets: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return &apperr.UpstreamError{Op: "assets " + path, Status: resp.StatusCode, Text: http.StatusText(resp.StatusCode), Body: e.Error}
		}
		return &apperr.UpstreamError{Op: "assets " + path, Status: resp.StatusCode, Text: http.StatusText(resp.StatusCode), Body: fallback}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("assets: decode %s: %w", path, err)
	}
	return nil
}
