package canvas

import (
	"strings"

	"github.com/starford/menuboard/internal/apperr"
)

// Nudge distances for arrow keys.
const (
	NudgeStep     = 2
	NudgeStepFast = 10
)

// Key is a keyboard event. Fast is the fast-move modifier (shift).
type Key struct {
	Name string
	Fast bool
}

// HandleKey applies a keyboard shortcut and reports whether the key was
// consumed. Shortcuts are only live while editing in edit mode:
// Delete/Backspace remove the selection, arrows nudge it and Escape cancels
// the session.
func (e *Editor) HandleKey(k Key) (bool, error) {
	if e.mutable() != nil {
		return false, nil
	}

	step := float64(NudgeStep)
	if k.Fast {
		step = NudgeStepFast
	}

	switch k.Name {
	case "Delete", "Backspace":
		if len(e.selected) == 0 {
			return false, nil
		}
		return true, e.RemoveMany(e.Selection())
	case "ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight":
		if len(e.selected) == 0 {
			return false, nil
		}
		var dx, dy float64
		switch k.Name {
		case "ArrowUp":
			dy = -step
		case "ArrowDown":
			dy = step
		case "ArrowLeft":
			dx = -step
		case "ArrowRight":
			dx = step
		}
		return true, e.MoveMany(e.Selection(), dx, dy)
	case "Escape":
		return true, e.Cancel()
	}
	return false, nil
}

// Presets lists the saved presets.
func (e *Editor) Presets() ([]Preset, error) {
	if e.presets == nil {
		return nil, ErrNoPresetStore
	}
	return e.presets.List()
}

// SavePreset stores a snapshot of the draft under name. A blank name uses
// the localised default.
func (e *Editor) SavePreset(name string) (Preset, error) {
	if err := e.mutable(); err != nil {
		return Preset{}, err
	}
	if e.presets == nil {
		return Preset{}, ErrNoPresetStore
	}
	if strings.TrimSpace(name) == "" {
		name = textsFor(e.lang).presetDefault
	}
	return e.presets.Add(name, e.draft)
}

// LoadPreset replaces the draft with the preset's elements under fresh ids.
// The stored preset is not modified.
func (e *Editor) LoadPreset(id string) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if e.presets == nil {
		return ErrNoPresetStore
	}
	p, err := e.presets.Get(id)
	if err != nil {
		return err
	}
	next := cloneAll(p.Items)
	for i := range next {
		next[i].ID = e.newID()
	}
	e.commit(next)
	e.selected = nil
	return nil
}

// DeletePreset removes a preset. It refuses unless confirm is set.
func (e *Editor) DeletePreset(id string, confirm bool) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if e.presets == nil {
		return ErrNoPresetStore
	}
	if id == "" {
		return &apperr.ValidationError{Field: "id"}
	}
	if !confirm {
		return ErrNotConfirmed
	}
	return e.presets.Delete(id)
}
