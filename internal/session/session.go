// Package session tracks which user is signed in.
//
// The current user id is never looked up ambiently by storage code. Callers
// read it from a Holder (process-wide, filled by the MCP sign_in tool) or
// from a request context (used by the HTTP API) and pass it explicitly to the
// scoped store.
package session

import (
	"context"
	"strings"
	"sync"
)

type ctxKey struct{}

// Holder caches the id of the signed-in user.
type Holder struct {
	mu     sync.RWMutex
	userID string
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Set stores id after trimming it. A blank id clears the holder.
func (h *Holder) Set(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.userID = strings.TrimSpace(id)
}

// Get returns the current user id, or "" when nobody is signed in.
func (h *Holder) Get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userID
}

// Clear forgets the current user.
func (h *Holder) Clear() {
	h.Set("")
}

// WithUserID returns a copy of ctx carrying the given user id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(id))
}

// UserID extracts the user id stored by WithUserID.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
