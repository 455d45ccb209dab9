// Package checksum derives content digests used as HTTP entity tags for
// stored blobs.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns the strong entity tag of data, quoted.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}

// Match reports whether a comma separated If-Match or If-None-Match header
// names etag. "*" matches anything; weak tags compare by their opaque part.
func Match(header, etag string) bool {
	for _, cand := range strings.Split(header, ",") {
		cand = strings.TrimPrefix(strings.TrimSpace(cand), "W/")
		if cand == "*" || cand == etag {
			return true
		}
	}
	return false
}
