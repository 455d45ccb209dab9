package canvas

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/localstore"
)

// Preset is a named snapshot of a whole layout.
type Preset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt int64     `json:"createdAt"` // unix ms
	Items     []Element `json:"items"`
}

// PresetStore keeps presets as one JSON array in the user's scoped store.
type PresetStore struct {
	store *localstore.Scoped
	now   func() time.Time
}

// NewPresetStore returns a store backed by s.
func NewPresetStore(s *localstore.Scoped) *PresetStore {
	return &PresetStore{store: s, now: time.Now}
}

// List returns all presets in creation order.
func (p *PresetStore) List() ([]Preset, error) {
	var all []Preset
	if _, err := p.store.LoadJSON(localstore.KeyPresets, &all); err != nil {
		return nil, fmt.Errorf("canvas: load presets: %w", err)
	}
	return all, nil
}

// Get returns the preset with id or apperr.ErrNotFound.
func (p *PresetStore) Get(id string) (Preset, error) {
	all, err := p.List()
	if err != nil {
		return Preset{}, err
	}
	i := slices.IndexFunc(all, func(x Preset) bool { return x.ID == id })
	if i < 0 {
		return Preset{}, apperr.ErrNotFound
	}
	return all[i], nil
}

// Add appends a snapshot of items under name.
func (p *PresetStore) Add(name string, items []Element) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, &apperr.ValidationError{Field: "name"}
	}
	all, err := p.List()
	if err != nil {
		return Preset{}, err
	}
	preset := Preset{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: p.now().UnixMilli(),
		Items:     cloneAll(items),
	}
	all = append(all, preset)
	if err := p.store.SaveJSON(localstore.KeyPresets, all); err != nil {
		return Preset{}, fmt.Errorf("canvas: save presets: %w", err)
	}
	return preset, nil
}

// Delete removes the preset with id or returns apperr.ErrNotFound.
func (p *PresetStore) Delete(id string) error {
	all, err := p.List()
	if err != nil {
		return err
	}
	n := len(all)
	next := slices.DeleteFunc(all, func(x Preset) bool { return x.ID == id })
	if len(next) == n {
		return apperr.ErrNotFound
	}
	if err := p.store.SaveJSON(localstore.KeyPresets, next); err != nil {
		return fmt.Errorf("canvas: save presets: %w", err)
	}
	return nil
}
