// Package dataurl converts uploaded files to and from base64 data URLs, the
// form in which photos and logos are embedded in layouts and templates.
package dataurl

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxSize caps the decoded payload of a single data URL.
const MaxSize = 10 << 20 // 10 MB

// Encode reads r fully and returns a data URL. An empty mime is sniffed from
// the content.
func Encode(ctx context.Context, r io.Reader, mime string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("dataurl: nil reader")
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("dataurl: read: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("dataurl: file too large: exceeds %d bytes", MaxSize)
	}
	return EncodeBytes(data, mime), nil
}

// EncodeBytes returns data as a data URL.
func EncodeBytes(data []byte, mime string) string {
	mime = strings.TrimSpace(strings.Split(mime, ";")[0])
	if mime == "" {
		mime = strings.Split(http.DetectContentType(data), ";")[0]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode parses a data:[<mediatype>];base64,<data> URL and returns the bytes
// and media type.
func Decode(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("dataurl: not a data URL")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("dataurl: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("dataurl: only base64 data URLs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("dataurl: invalid base64 data: %w", err)
		}
	}
	if len(data) > MaxSize {
		return nil, "", fmt.Errorf("dataurl: file too large: %d bytes (max %d)", len(data), MaxSize)
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if mime == "" {
		mime = "text/plain"
	}
	return data, mime, nil
}
