package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/menuboard/internal/apperr"
)

// Well-known keys.
const (
	KeyIntroVideo     = "introVideoBlob"
	KeyMenuBackground = "menuBackgroundBlob"
	KeyMenuLayout     = "menuLayoutJson"
	KeyPresets        = "MENU_CUSTOM_PRESETS_V1"
)

const scopeSep = "__"

// ScopedKey prefixes key with "{userID}__". An empty userID leaves key as is.
func ScopedKey(userID, key string) string {
	if userID == "" {
		return key
	}
	return userID + scopeSep + key
}

// SplitScopedKey is the inverse of ScopedKey. Names without a user prefix
// return an empty userID.
func SplitScopedKey(name string) (userID, key string) {
	uid, k, ok := strings.Cut(name, scopeSep)
	if !ok || uid == "" {
		return "", name
	}
	return uid, k
}

// Scoped is a view of the store namespaced to one user.
//
// The first read of a key that is missing under the user's prefix falls back
// to the legacy unprefixed entry and moves it under the prefix, so each
// legacy key is migrated at most once.
type Scoped struct {
	kv     KV
	blobs  Blobs
	userID string
}

// NewScoped returns a view for userID. An empty userID addresses the legacy
// unprefixed namespace.
func NewScoped(kv KV, blobs Blobs, userID string) *Scoped {
	return &Scoped{kv: kv, blobs: blobs, userID: userID}
}

// UserID returns the namespace owner.
func (s *Scoped) UserID() string { return s.userID }

// LoadJSON decodes the value stored under key into v. It reports false when
// nothing is stored.
func (s *Scoped) LoadJSON(key string, v any) (bool, error) {
	raw, err := s.getKV(key)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("localstore: decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func (s *Scoped) SaveJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", key, err)
	}
	return s.kv.Set(ScopedKey(s.userID, key), raw)
}

// LoadBlob returns the blob stored under key, or nil when there is none.
func (s *Scoped) LoadBlob(key string) ([]byte, error) {
	data, err := s.blobs.Read(ScopedKey(s.userID, key))
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if s.userID == "" {
		return nil, nil
	}

	legacy, err := s.blobs.Read(key)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.blobs.Write(ScopedKey(s.userID, key), legacy); err != nil {
		return nil, fmt.Errorf("localstore: migrate blob %s: %w", key, err)
	}
	if err := s.blobs.Delete(key); err != nil {
		return nil, fmt.Errorf("localstore: drop legacy blob %s: %w", key, err)
	}
	return legacy, nil
}

// SaveBlob stores data under key.
func (s *Scoped) SaveBlob(key string, data []byte) error {
	return s.blobs.Write(ScopedKey(s.userID, key), data)
}

// Remove deletes key from both the document and blob stores.
func (s *Scoped) Remove(key string) error {
	sk := ScopedKey(s.userID, key)
	if err := s.kv.Delete(sk); err != nil {
		return err
	}
	return s.blobs.Delete(sk)
}

// ResetAll deletes every entry in the user's namespace. Without a user it
// clears everything.
func (s *Scoped) ResetAll() error {
	prefix := ScopedKey(s.userID, "")
	keys, err := s.kv.Keys(prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.kv.Delete(k); err != nil {
			return err
		}
	}
	blobs, err := s.blobs.List(prefix)
	if err != nil {
		return err
	}
	for _, k := range blobs {
		if err := s.blobs.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scoped) getKV(key string) ([]byte, error) {
	raw, err := s.kv.Get(ScopedKey(s.userID, key))
	if err == nil || !errors.Is(err, apperr.ErrNotFound) || s.userID == "" {
		return raw, err
	}

	legacy, err := s.kv.Get(key)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ScopedKey(s.userID, key), legacy); err != nil {
		return nil, fmt.Errorf("localstore: migrate %s: %w", key, err)
	}
	if err := s.kv.Delete(key); err != nil {
		return nil, fmt.Errorf("localstore: drop legacy %s: %w", key, err)
	}
	return legacy, nil
}
