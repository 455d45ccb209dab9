package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/canvas"
	"github.com/starford/menuboard/internal/localstore"
	"github.com/starford/menuboard/internal/menutemplate"
	"github.com/starford/menuboard/internal/session"
	"github.com/starford/menuboard/internal/sse"
)

// Handler serves the per-user board state: the free-form layout, presets and
// template rendering.
type Handler struct {
	kv     localstore.KV
	blobs  localstore.Blobs
	broker *sse.Broker
}

// NewHandler creates a Handler. broker may be nil.
func NewHandler(kv localstore.KV, blobs localstore.Blobs, broker *sse.Broker) *Handler {
	return &Handler{kv: kv, blobs: blobs, broker: broker}
}

func (h *Handler) scoped(r *http.Request) *localstore.Scoped {
	uid, _ := session.UserID(r.Context())
	return localstore.NewScoped(h.kv, h.blobs, uid)
}

func (h *Handler) publish(r *http.Request, eventType string, data map[string]string) {
	if h.broker == nil {
		return
	}
	uid, _ := session.UserID(r.Context())
	h.broker.PublishChange(uid, eventType, data)
}

// GetLayout handles GET /api/layout.
//
//	@Summary		Get the saved free-form layout
//	@Tags			layout
//	@Produce		json
//	@Success		200	{object}	LayoutResponse
//	@Security		BearerAuth
//	@Router			/layout [get]
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	var items []canvas.Element
	if _, err := h.scoped(r).LoadJSON(localstore.KeyMenuLayout, &items); err != nil {
		writeError(w, "load layout", err)
		return
	}
	if items == nil {
		items = []canvas.Element{}
	}
	writeJSON(w, http.StatusOK, LayoutResponse{Items: items})
}

// PutLayout handles PUT /api/layout.
//
//	@Summary		Replace the saved free-form layout
//	@Tags			layout
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LayoutRequest	true	"Layout"
//	@Success		200		{object}	LayoutResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/layout [put]
func (h *Handler) PutLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "save layout", err)
		return
	}
	if err := h.scoped(r).SaveJSON(localstore.KeyMenuLayout, req.Items); err != nil {
		writeError(w, "save layout", err)
		return
	}
	h.publish(r, sse.TypeLayoutSaved, map[string]string{
		"key":   localstore.KeyMenuLayout,
		"items": fmt.Sprint(len(req.Items)),
	})
	writeJSON(w, http.StatusOK, LayoutResponse{Items: req.Items})
}

// ListPresets handles GET /api/presets.
//
//	@Summary		List saved layout presets
//	@Tags			presets
//	@Produce		json
//	@Success		200	{object}	PresetListResponse
//	@Security		BearerAuth
//	@Router			/presets [get]
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := canvas.NewPresetStore(h.scoped(r)).List()
	if err != nil {
		writeError(w, "list presets", err)
		return
	}
	if presets == nil {
		presets = []canvas.Preset{}
	}
	writeJSON(w, http.StatusOK, PresetListResponse{Presets: presets})
}

// CreatePreset handles POST /api/presets.
//
//	@Summary		Save a layout snapshot as a preset
//	@Tags			presets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePresetRequest	true	"Preset"
//	@Success		201		{object}	canvas.Preset
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/presets [post]
func (h *Handler) CreatePreset(w http.ResponseWriter, r *http.Request) {
	var req CreatePresetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create preset", err)
		return
	}
	p, err := canvas.NewPresetStore(h.scoped(r)).Add(req.Name, req.Items)
	if err != nil {
		writeError(w, "create preset", err)
		return
	}
	h.publish(r, sse.TypePresetCreated, map[string]string{"id": p.ID, "name": p.Name})
	writeJSON(w, http.StatusCreated, p)
}

// DeletePreset handles DELETE /api/presets/{id}.
//
//	@Summary		Delete a preset
//	@Tags			presets
//	@Param			id	path	string	true	"Preset id"
//	@Success		204	"Preset deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/presets/{id} [delete]
func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := canvas.NewPresetStore(h.scoped(r)).Delete(id); err != nil {
		writeError(w, "delete preset", err)
		return
	}
	h.publish(r, sse.TypePresetDeleted, map[string]string{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

// ResetStore handles DELETE /api/store: everything the caller has stored
// locally is removed.
func (h *Handler) ResetStore(w http.ResponseWriter, r *http.Request) {
	if err := h.scoped(r).ResetAll(); err != nil {
		writeError(w, "reset store", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderTemplate handles POST /api/templates/{templateID}/render.
//
//	@Summary		Normalise and paginate a template document
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			templateID	path		string			true	"Template id"	Enums(T1, T1A, T1B, T1C, T2, T2A, T2B, T2C, T3, T3A, T3B, T3C)
//	@Param			body		body		RenderRequest	true	"Document and page options"
//	@Success		200			{object}	menutemplate.View
//	@Failure		400			{object}	errResponse
//	@Router			/templates/{templateID}/render [post]
func (h *Handler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	if _, err := menutemplate.ParseTemplateID(templateID); err != nil {
		writeError(w, "render template", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	var req RenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "render template", err)
		return
	}
	lang := req.Lang
	if lang == "" {
		lang = langOf(r)
	}

	doc, err := menutemplate.Normalize(templateID, req.Data, lang)
	if err != nil {
		writeError(w, "render template", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	writeJSON(w, http.StatusOK, menutemplate.Render(doc, req.Options))
}
