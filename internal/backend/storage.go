package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SignedURLTTL is how long issued upload and download URLs stay valid.
const SignedURLTTL = 5 * time.Minute

// SignedUpload is a pre-signed upload grant.
type SignedUpload struct {
	SignedURL string `json:"signedUrl"`
	Token     string `json:"token"`
	Path      string `json:"path"`
}

// SignedDownload is a pre-signed download grant.
type SignedDownload struct {
	SignedURL string `json:"signedUrl"`
	Path      string `json:"path"`
}

// signedResponse also accepts storage servers that answer with a relative
// "url" instead of an absolute "signedUrl".
type signedResponse struct {
	SignedURL string `json:"signedUrl"`
	URL       string `json:"url"`
	Token     string `json:"token"`
	Path      string `json:"path"`
}

func (c *Client) absolute(r signedResponse) string {
	if r.SignedURL != "" || r.URL == "" {
		return r.SignedURL
	}
	if strings.HasPrefix(r.URL, "http://") || strings.HasPrefix(r.URL, "https://") {
		return r.URL
	}
	return c.cfg.URL + "/storage/v1" + r.URL
}

// SignUpload requests an upload URL for objectPath, valid for SignedURLTTL.
func (c *Client) SignUpload(ctx context.Context, objectPath, contentType string) (*SignedUpload, error) {
	body := map[string]any{
		"objectName": objectPath,
		"expiresIn":  int(SignedURLTTL.Seconds()),
	}
	if contentType != "" {
		body["contentType"] = contentType
	}
	var r signedResponse
	err := c.do(ctx, call{
		op:     "failed to sign upload URL",
		method: http.MethodPost,
		path:   "/storage/v1/object/upload/sign/" + url.PathEscape(c.cfg.Bucket),
		apiKey: c.cfg.ServiceRoleKey,
		bearer: c.cfg.ServiceRoleKey,
		body:   body,
	}, &r)
	if err != nil {
		return nil, err
	}
	return &SignedUpload{SignedURL: c.absolute(r), Token: r.Token, Path: r.Path}, nil
}

// SignDownload requests a download URL for objectPath, valid for SignedURLTTL.
func (c *Client) SignDownload(ctx context.Context, objectPath string) (*SignedDownload, error) {
	var r signedResponse
	err := c.do(ctx, call{
		op:     "failed to sign download URL",
		method: http.MethodPost,
		path:   "/storage/v1/object/sign/" + url.PathEscape(c.cfg.Bucket) + "/" + url.PathEscape(objectPath),
		apiKey: c.cfg.ServiceRoleKey,
		bearer: c.cfg.ServiceRoleKey,
		body:   map[string]int{"expiresIn": int(SignedURLTTL.Seconds())},
	}, &r)
	if err != nil {
		return nil, err
	}
	return &SignedDownload{SignedURL: c.absolute(r), Path: r.Path}, nil
}

// Insert writes row into table through the REST endpoint using the service
// role and returns the stored representation. Servers that answer with an
// array yield its first element.
func (c *Client) Insert(ctx context.Context, table string, row any) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		op:     "failed to persist " + table,
		method: http.MethodPost,
		path:   "/rest/v1/" + url.PathEscape(table),
		apiKey: c.cfg.ServiceRoleKey,
		bearer: c.cfg.ServiceRoleKey,
		body:   row,
		header: map[string]string{"Prefer": "return=representation"},
	}, &raw)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if json.Unmarshal(raw, &rows) == nil {
		if len(rows) == 0 {
			return nil, fmt.Errorf("backend: insert %s: empty representation", table)
		}
		return rows[0], nil
	}
	return raw, nil
}
