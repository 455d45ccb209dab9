// Package assetmeta persists the metadata row written for every issued
// upload URL.
package assetmeta

import (
	"context"
	"encoding/json"
)

// StatusPendingUpload marks a row whose object has been signed but not yet
// confirmed uploaded.
const StatusPendingUpload = "pending_upload"

// Metadata is one asset row. Optional columns are nil when the client did not
// send them.
type Metadata struct {
	Path        string  `json:"path"`
	Filename    string  `json:"filename"`
	UserID      string  `json:"user_id"`
	ContentType *string `json:"content_type"`
	SizeBytes   *int64  `json:"size_bytes"`
	UploadToken *string `json:"upload_token"`
	Status      string  `json:"status"`
}

// Store records asset metadata and returns the stored representation.
type Store interface {
	Insert(ctx context.Context, m Metadata) (json.RawMessage, error)
}

// Inserter is the part of the backend client the REST sink needs.
type Inserter interface {
	Insert(ctx context.Context, table string, row any) (json.RawMessage, error)
}

// REST writes rows through the hosted backend's REST table endpoint.
type REST struct {
	backend Inserter
	table   string
}

var _ Store = (*REST)(nil)

// NewREST returns a sink writing to table ("assets" when empty).
func NewREST(backend Inserter, table string) *REST {
	if table == "" {
		table = "assets"
	}
	return &REST{backend: backend, table: table}
}

// Insert implements Store.
func (s *REST) Insert(ctx context.Context, m Metadata) (json.RawMessage, error) {
	return s.backend.Insert(ctx, s.table, m)
}

// optional turns zero values into nil so they are stored as NULL.
func optional[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// NewPending builds a row for a freshly signed upload.
func NewPending(path, filename, userID, contentType string, size int64, token string) Metadata {
	return Metadata{
		Path:        path,
		Filename:    filename,
		UserID:      userID,
		ContentType: optional(contentType),
		SizeBytes:   optional(size),
		UploadToken: optional(token),
		Status:      StatusPendingUpload,
	}
}
