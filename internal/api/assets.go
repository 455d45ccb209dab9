package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/assetmeta"
	"github.com/starford/menuboard/internal/backend"
	"github.com/starford/menuboard/internal/session"
)

var unsafeNameChars = regexp.MustCompile(`[^\w.\-]`)

// sanitizeName replaces everything outside [A-Za-z0-9_.-] with "_".
func sanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// backendFailure marks an unclassified error from a backend call so its
// message reaches the client.
func backendFailure(op string, err error) error {
	var (
		uerr *apperr.UpstreamError
		berr *apperr.BackendError
	)
	switch {
	case errors.As(err, &uerr), errors.As(err, &berr),
		errors.Is(err, apperr.ErrMissingConfig), errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrUnauthorized):
		return err
	}
	return &apperr.BackendError{Op: op, Err: err}
}

// Signer mints pre-signed storage URLs.
type Signer interface {
	SignUpload(ctx context.Context, objectPath, contentType string) (*backend.SignedUpload, error)
	SignDownload(ctx context.Context, objectPath string) (*backend.SignedDownload, error)
}

// AssetHandler issues upload and download URLs scoped to the caller.
type AssetHandler struct {
	signer Signer
	meta   assetmeta.Store
	now    func() time.Time
}

// NewAssetHandler creates an AssetHandler.
func NewAssetHandler(signer Signer, meta assetmeta.Store) *AssetHandler {
	return &AssetHandler{signer: signer, meta: meta, now: time.Now}
}

// Presign handles POST /api/assets/presign.
//
//	@Summary		Issue a pre-signed upload URL
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PresignRequest	true	"File to upload"
//	@Success		200		{object}	PresignResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/presign [post]
func (h *AssetHandler) Presign(w http.ResponseWriter, r *http.Request) {
	var req PresignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "presign", err)
		return
	}
	uid, _ := session.UserID(r.Context())

	name := sanitizeName(req.Filename)
	objectPath := fmt.Sprintf("%s/%d-%s", uid, h.now().UnixMilli(), name)

	signed, err := h.signer.SignUpload(r.Context(), objectPath, req.ContentType)
	if err != nil {
		writeError(w, "presign", backendFailure("sign upload", err))
		return
	}
	path := signed.Path
	if path == "" {
		path = objectPath
	}

	row, err := h.meta.Insert(r.Context(),
		assetmeta.NewPending(path, name, uid, req.ContentType, req.SizeBytes, signed.Token))
	if err != nil {
		writeError(w, "presign", backendFailure("record asset", err))
		return
	}

	writeJSON(w, http.StatusOK, PresignResponse{
		UploadURL: signed.SignedURL,
		Token:     signed.Token,
		Path:      path,
		Metadata:  row,
	})
}

// SignDownload handles POST /api/assets/sign-download.
//
//	@Summary		Issue a pre-signed download URL for one of the caller's assets
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignDownloadRequest	true	"Asset key"
//	@Success		200		{object}	SignDownloadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/sign-download [post]
func (h *AssetHandler) SignDownload(w http.ResponseWriter, r *http.Request) {
	var req SignDownloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "sign download", err)
		return
	}
	uid, _ := session.UserID(r.Context())
	objectPath := uid + "/" + sanitizeName(req.AssetKey)

	signed, err := h.signer.SignDownload(r.Context(), objectPath)
	if err != nil {
		writeError(w, "sign download", backendFailure("sign download", err))
		return
	}
	path := signed.Path
	if path == "" {
		path = objectPath
	}
	writeJSON(w, http.StatusOK, SignDownloadResponse{SignedURL: signed.SignedURL, Path: path})
}
