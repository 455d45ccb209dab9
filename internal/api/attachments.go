package api

import (
	"io"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/checksum"
	"github.com/starford/menuboard/internal/localstore"
)

const maxBlobBytes = 100 << 20 // 100 MB, enough for an intro video

// blobKeys are the only blob names the API exposes.
var blobKeys = []string{localstore.KeyIntroVideo, localstore.KeyMenuBackground}

func blobKey(r *http.Request) (string, error) {
	key := chi.URLParam(r, "key")
	if !slices.Contains(blobKeys, key) {
		return "", apperr.ErrNotFound
	}
	return key, nil
}

// GetBlob handles GET /api/blobs/{key}.
//
//	@Summary		Download one of the caller's stored blobs
//	@Tags			blobs
//	@Produce		octet-stream
//	@Param			key	path	string	true	"Blob key"	Enums(introVideoBlob, menuBackgroundBlob)
//	@Success		200
//	@Success		304	"Not modified"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blobs/{key} [get]
func (h *Handler) GetBlob(w http.ResponseWriter, r *http.Request) {
	key, err := blobKey(r)
	if err != nil {
		writeError(w, "get blob", err)
		return
	}
	data, err := h.scoped(r).LoadBlob(key)
	if err != nil {
		writeError(w, "get blob", err)
		return
	}
	if data == nil {
		writeError(w, "get blob", apperr.ErrNotFound)
		return
	}
	etag := checksum.ETag(data)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if checksum.Match(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PutBlob handles PUT /api/blobs/{key} with the raw bytes as the body. An
// If-Match header makes the write conditional on the stored ETag.
// Change events come from the blob directory watcher, not from here.
//
//	@Summary		Store one of the caller's blobs
//	@Tags			blobs
//	@Accept			octet-stream
//	@Produce		json
//	@Param			key	path		string	true	"Blob key"	Enums(introVideoBlob, menuBackgroundBlob)
//	@Success		201	{object}	BlobResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blobs/{key} [put]
func (h *Handler) PutBlob(w http.ResponseWriter, r *http.Request) {
	key, err := blobKey(r)
	if err != nil {
		writeError(w, "put blob", err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBlobBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("blob too large or unreadable"))
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("body is required"))
		return
	}
	store := h.scoped(r)
	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" {
		current, err := store.LoadBlob(key)
		if err != nil {
			writeError(w, "put blob", err)
			return
		}
		if current == nil || !checksum.Match(ifMatch, checksum.ETag(current)) {
			writeError(w, "put blob", apperr.ErrConflict)
			return
		}
	}
	if err := store.SaveBlob(key, data); err != nil {
		writeError(w, "put blob", err)
		return
	}
	etag := checksum.ETag(data)
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusCreated, BlobResponse{Key: key, Size: len(data), ETag: etag})
}

// DeleteBlob handles DELETE /api/blobs/{key}.
func (h *Handler) DeleteBlob(w http.ResponseWriter, r *http.Request) {
	key, err := blobKey(r)
	if err != nil {
		writeError(w, "delete blob", err)
		return
	}
	if err := h.scoped(r).Remove(key); err != nil {
		writeError(w, "delete blob", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
