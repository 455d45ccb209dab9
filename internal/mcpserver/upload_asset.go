package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/menuboard/internal/dataurl"
	"github.com/starford/menuboard/internal/localstore"
)

const maxAssetSize = 100 << 20 // 100 MB

// blobKinds maps each blob key to the media type family it accepts.
var blobKinds = map[string]string{
	localstore.KeyMenuBackground: "image/",
	localstore.KeyIntroVideo:     "video/",
}

type uploadResult struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

func (s *Server) uploadAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := s.userID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, ok := blobKinds[key]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown blob key: %s", key)), nil
	}

	var data []byte
	var declared string
	if strings.HasPrefix(rawURL, "data:") {
		data, declared, err = dataurl.Decode(rawURL)
	} else {
		data, declared, err = fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) == 0 {
		return mcp.NewToolResultError("file is empty"), nil
	}

	ct := contentType(data, declared)
	if !strings.HasPrefix(ct, kind) {
		return mcp.NewToolResultError(fmt.Sprintf("%s expects %s* content (detected: %s)", key, kind, ct)), nil
	}

	if err := localstore.NewScoped(s.kv, s.blobs, userID).SaveBlob(key, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save blob: %v", err)), nil
	}

	out, _ := json.Marshal(uploadResult{Key: key, ContentType: ct, Size: len(data)})
	return mcp.NewToolResultText(string(out)), nil
}

// contentType sniffs data and falls back to the declared type when sniffing
// is inconclusive.
func contentType(data []byte, declared string) string {
	sniffed := strings.Split(http.DetectContentType(data), ";")[0]
	if sniffed == "application/octet-stream" || strings.HasPrefix(sniffed, "text/") {
		if d := strings.TrimSpace(strings.Split(declared, ";")[0]); d != "" {
			return d
		}
	}
	return sniffed
}

// fetchHTTP downloads a file from an HTTP/HTTPS URL with security checks.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}

	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	client := &http.Client{
		Timeout: 60 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxAssetSize {
		return nil, "", fmt.Errorf("file too large: exceeds %d bytes", maxAssetSize)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}
