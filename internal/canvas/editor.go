// Package canvas implements the free-form menu canvas editor: a draft of
// freely placed text and photo elements edited on top of a committed origin.
//
// An Editor is driven by a single owner (a UI session, an API request or an
// MCP tool call) and is not safe for concurrent use.
package canvas

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/google/uuid"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/dataurl"
	"github.com/starford/menuboard/internal/geometry"
)

var (
	// ErrNeedTwo is returned by operations that act on a multi-selection.
	ErrNeedTwo = errors.New("canvas: select at least two elements")
	// ErrLocked is returned when a locked element is dragged.
	ErrLocked = errors.New("canvas: element is locked")
	// ErrNotConfirmed is returned by DeletePreset without confirmation.
	ErrNotConfirmed = errors.New("canvas: confirmation required")
	// ErrNoPresetStore is returned by preset operations when none is wired.
	ErrNoPresetStore = errors.New("canvas: no preset store")
)

// State is the edit-session state.
type State int

// Session states.
const (
	StateViewing State = iota
	StateEditing
	StateSaved
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSaved:
		return "saved"
	case StateCancelled:
		return "cancelled"
	default:
		return "viewing"
	}
}

// Mode is the secondary flag inside an edit session.
type Mode string

// Editing modes. Preview shows the draft but rejects every mutation.
const (
	ModeEdit    Mode = "edit"
	ModePreview Mode = "preview"
)

// Grid size bounds.
const (
	DefaultGridSize = 10
	MinGridSize     = 4
	MaxGridSize     = 100
)

// Settings toggles snapping behaviour.
type Settings struct {
	Snap     bool `json:"snap"`
	Grid     bool `json:"grid"`
	GridSize int  `json:"gridSize"`
}

// DefaultSettings has snapping on and the grid off.
func DefaultSettings() Settings {
	return Settings{Snap: true, GridSize: DefaultGridSize}
}

func (s Settings) normalized() Settings {
	if s.GridSize == 0 {
		s.GridSize = DefaultGridSize
	}
	s.GridSize = max(MinGridSize, min(MaxGridSize, s.GridSize))
	return s
}

func (s Settings) snapOptions() geometry.SnapOptions {
	return geometry.SnapOptions{Snap: s.Snap, Grid: s.Grid, GridSize: float64(s.GridSize)}
}

// Owner is notified of draft changes and session outcomes. Every call gets
// its own copy of the elements.
type Owner interface {
	OnChange(items []Element)
	OnSave(items []Element)
	OnCancel(items []Element)
}

type nopOwner struct{}

func (nopOwner) OnChange([]Element) {}
func (nopOwner) OnSave([]Element)   {}
func (nopOwner) OnCancel([]Element) {}

// Option configures an Editor.
type Option func(*Editor)

// WithOwner sets the change listener.
func WithOwner(o Owner) Option {
	return func(e *Editor) { e.owner = o }
}

// WithPresets enables preset operations.
func WithPresets(p *PresetStore) Option {
	return func(e *Editor) { e.presets = p }
}

// WithSettings overrides the snap settings.
func WithSettings(s Settings) Option {
	return func(e *Editor) { e.settings = s.normalized() }
}

// WithLang selects the language for default texts ("ko" or "en").
func WithLang(lang string) Option {
	return func(e *Editor) { e.lang = lang }
}

// WithIDFunc replaces the element id generator.
func WithIDFunc(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

// Editor holds the draft and origin of one layout.
type Editor struct {
	origin   []Element
	draft    []Element
	dirty    bool
	state    State
	mode     Mode
	selected []string
	settings Settings
	lang     string

	owner   Owner
	presets *PresetStore
	newID   func() string
	drag    *dragState
}

// New returns an editor in the viewing state over items.
func New(items []Element, opts ...Option) *Editor {
	e := &Editor{
		origin:   cloneAll(items),
		draft:    cloneAll(items),
		mode:     ModeEdit,
		settings: DefaultSettings(),
		lang:     "ko",
		owner:    nopOwner{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Items returns a copy of the draft.
func (e *Editor) Items() []Element { return cloneAll(e.draft) }

// Origin returns a copy of the last committed layout.
func (e *Editor) Origin() []Element { return cloneAll(e.origin) }

// Selection returns the selected ids, primary first.
func (e *Editor) Selection() []string { return slices.Clone(e.selected) }

// State returns the session state.
func (e *Editor) State() State { return e.state }

// Mode returns the editing mode.
func (e *Editor) Mode() Mode { return e.mode }

// Dirty reports whether the draft diverges from the origin.
func (e *Editor) Dirty() bool { return e.dirty }

// Settings returns the snap settings.
func (e *Editor) Settings() Settings { return e.settings }

// SetSettings replaces the snap settings. The grid size is clamped to
// [MinGridSize, MaxGridSize].
func (e *Editor) SetSettings(s Settings) { e.settings = s.normalized() }

// Sync replaces origin and draft with items coming from the owner. It is
// ignored while the draft is dirty and reports whether it applied.
func (e *Editor) Sync(items []Element) bool {
	if e.dirty {
		return false
	}
	e.origin = cloneAll(items)
	e.draft = cloneAll(items)
	e.selected = nil
	return true
}

// BeginEdit enters the editing state in edit mode.
func (e *Editor) BeginEdit() {
	if e.state == StateEditing {
		return
	}
	e.state = StateEditing
	e.mode = ModeEdit
	e.selected = nil
	e.drag = nil
}

// SetMode switches between edit and preview. Entering preview drops the
// selection and any drag in progress.
func (e *Editor) SetMode(m Mode) error {
	if e.state != StateEditing {
		return apperr.ErrReadOnly
	}
	if m != ModeEdit && m != ModePreview {
		return &apperr.ValidationError{Field: "mode"}
	}
	e.mode = m
	if m == ModePreview {
		e.selected = nil
		e.drag = nil
	}
	return nil
}

func (e *Editor) mutable() error {
	if e.state != StateEditing || e.mode != ModeEdit {
		return apperr.ErrReadOnly
	}
	return nil
}

func (e *Editor) commit(next []Element) {
	e.draft = next
	e.dirty = true
	e.owner.OnChange(cloneAll(next))
}

func (e *Editor) index(id string) int {
	return slices.IndexFunc(e.draft, func(it Element) bool { return it.ID == id })
}

func (e *Editor) isSelected(id string) bool {
	return slices.Contains(e.selected, id)
}

func (e *Editor) nextZ() int {
	return geometry.MaxZ(zs(e.draft)) + 1
}

// AddText appends a name or price text box with role defaults and selects it.
func (e *Editor) AddText(role Role) (Element, error) {
	if err := e.mutable(); err != nil {
		return Element{}, err
	}
	el := newText(e.newID(), role, e.lang, e.nextZ())
	e.commit(append(cloneAll(e.draft), el))
	e.selected = []string{el.ID}
	return el.clone(), nil
}

// AddPhoto converts r to a data URL and appends an image element with the
// default geometry. The element is only added once conversion succeeds.
func (e *Editor) AddPhoto(ctx context.Context, r io.Reader, mime string) (Element, error) {
	if err := e.mutable(); err != nil {
		return Element{}, err
	}
	src, err := dataurl.Encode(ctx, r, mime)
	if err != nil {
		return Element{}, err
	}
	// The session may have moved on while the file was read.
	if err := e.mutable(); err != nil {
		return Element{}, err
	}
	el := newImage(e.newID(), src, e.nextZ())
	e.commit(append(cloneAll(e.draft), el))
	e.selected = []string{el.ID}
	return el.clone(), nil
}

// UpdateItem shallow-merges p into the element with id. Unknown ids are a
// no-op that still marks the draft dirty.
func (e *Editor) UpdateItem(id string, p Patch) error {
	return e.UpdateMany([]string{id}, p)
}

// UpdateMany shallow-merges p into every element in ids.
func (e *Editor) UpdateMany(ids []string, p Patch) error {
	if err := e.mutable(); err != nil {
		return err
	}
	e.commit(e.patched(ids, p))
	return nil
}

func (e *Editor) patched(ids []string, p Patch) []Element {
	next := cloneAll(e.draft)
	for i, it := range next {
		if slices.Contains(ids, it.ID) {
			next[i] = p.apply(it)
		}
	}
	return next
}

// RemoveMany deletes the elements in ids and drops them from the selection.
func (e *Editor) RemoveMany(ids []string) error {
	if err := e.mutable(); err != nil {
		return err
	}
	next := slices.DeleteFunc(cloneAll(e.draft), func(it Element) bool {
		return slices.Contains(ids, it.ID)
	})
	e.commit(next)
	e.selected = slices.DeleteFunc(e.selected, func(id string) bool {
		return slices.Contains(ids, id)
	})
	return nil
}

// MoveMany translates the unlocked elements in ids by (dx, dy).
func (e *Editor) MoveMany(ids []string, dx, dy float64) error {
	if err := e.mutable(); err != nil {
		return err
	}
	next := cloneAll(e.draft)
	for i, it := range next {
		if !slices.Contains(ids, it.ID) || it.Locked {
			continue
		}
		next[i].X += dx
		next[i].Y += dy
	}
	e.commit(next)
	return nil
}

// Select makes id the only selected element, or with multi toggles its
// membership in the selection.
func (e *Editor) Select(id string, multi bool) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if e.index(id) < 0 {
		return apperr.ErrNotFound
	}
	switch {
	case !multi:
		e.selected = []string{id}
	case e.isSelected(id):
		e.selected = slices.DeleteFunc(e.selected, func(s string) bool { return s == id })
	default:
		e.selected = append(e.selected, id)
	}
	return nil
}

// ClearSelection empties the selection.
func (e *Editor) ClearSelection() {
	e.selected = nil
}

// Save promotes the draft to origin, notifies the owner and ends the session.
func (e *Editor) Save() ([]Element, error) {
	if e.state != StateEditing {
		return nil, apperr.ErrReadOnly
	}
	e.origin = cloneAll(e.draft)
	e.dirty = false
	e.state = StateSaved
	e.selected = nil
	e.drag = nil
	e.owner.OnSave(cloneAll(e.origin))
	return cloneAll(e.origin), nil
}

// Cancel reverts the draft to origin, notifies the owner and ends the
// session.
func (e *Editor) Cancel() error {
	if e.state != StateEditing {
		return apperr.ErrReadOnly
	}
	e.draft = cloneAll(e.origin)
	e.dirty = false
	e.state = StateCancelled
	e.selected = nil
	e.drag = nil
	e.owner.OnCancel(cloneAll(e.origin))
	return nil
}
