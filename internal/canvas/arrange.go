package canvas

import (
	"slices"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/geometry"
)

// Auto-scroll while dragging near the viewport edges.
const (
	AutoScrollBand  = 80
	AutoScrollSpeed = 18
)

// DuplicateOffset is how far copies are shifted from their source.
const DuplicateOffset = 20

// Viewport is the visible band of the scroll container, in the same
// coordinates as the pointer.
type Viewport struct {
	Top    float64
	Bottom float64
}

type dragState struct {
	anchorID string
	start    geometry.Point
	snapshot []geometry.Placement // nil for a single-element drag
}

// BeginDrag starts dragging id. When id is part of a multi-selection the
// whole selection is snapshotted so it can move rigidly.
func (e *Editor) BeginDrag(id string) error {
	if err := e.mutable(); err != nil {
		return err
	}
	i := e.index(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	anchor := e.draft[i]
	if anchor.Locked {
		return ErrLocked
	}

	d := &dragState{anchorID: id, start: geometry.Point{X: anchor.X, Y: anchor.Y}}
	if len(e.selected) >= 2 && e.isSelected(id) {
		for _, it := range e.draft {
			if e.isSelected(it.ID) {
				d.snapshot = append(d.snapshot, geometry.Placement{ID: it.ID, Rect: it.Rect(), Locked: it.Locked})
			}
		}
	}
	e.drag = d
	return nil
}

// Drag reports how far the scroll container should scroll for a pointer at
// pointerY: -AutoScrollSpeed in the top band, +AutoScrollSpeed in the bottom
// band, 0 elsewhere.
func (e *Editor) Drag(pointerY float64, vp Viewport) (float64, error) {
	if err := e.mutable(); err != nil {
		return 0, err
	}
	return geometry.AutoScroll(pointerY, vp.Top, vp.Bottom, AutoScrollBand, AutoScrollSpeed), nil
}

// EndDrag drops id at (x, y). A single element snaps on its own; a
// multi-selection moves rigidly with only the anchor clicking to guides.
// Dropping a locked element is a no-op.
func (e *Editor) EndDrag(id string, x, y float64) error {
	if err := e.mutable(); err != nil {
		return err
	}
	d := e.drag
	e.drag = nil

	i := e.index(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	it := e.draft[i]
	if it.Locked {
		return nil
	}

	if len(e.selected) >= 2 && e.isSelected(id) && d != nil && d.anchorID == id && d.snapshot != nil {
		moved := geometry.TranslateRigid(d.snapshot, id, x-d.start.X, y-d.start.Y, e.others(e.selected...), e.settings.snapOptions())
		next := cloneAll(e.draft)
		for j, el := range next {
			if p, ok := moved[el.ID]; ok && !el.Locked {
				next[j].X, next[j].Y = p.X, p.Y
			}
		}
		e.commit(next)
		return nil
	}

	p := geometry.Snap(x, y, it.W, it.H, e.others(id), e.settings.snapOptions())
	e.commit(e.patched([]string{id}, Patch{X: &p.X, Y: &p.Y}))
	return nil
}

// EndResize commits a resize of id to (w, h) at (x, y), snapping the
// position like a drag.
func (e *Editor) EndResize(id string, x, y, w, h float64) error {
	if err := e.mutable(); err != nil {
		return err
	}
	e.drag = nil
	i := e.index(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	if e.draft[i].Locked {
		return nil
	}
	p := geometry.Snap(x, y, w, h, e.others(id), e.settings.snapOptions())
	e.commit(e.patched([]string{id}, Patch{X: &p.X, Y: &p.Y, W: &w, H: &h}))
	return nil
}

// others returns the boxes of every element not in exclude.
func (e *Editor) others(exclude ...string) []geometry.Rect {
	out := make([]geometry.Rect, 0, len(e.draft))
	for _, it := range e.draft {
		if !slices.Contains(exclude, it.ID) {
			out = append(out, it.Rect())
		}
	}
	return out
}

func (e *Editor) selectionMask() []bool {
	mask := make([]bool, len(e.draft))
	for i, it := range e.draft {
		mask[i] = e.isSelected(it.ID)
	}
	return mask
}

// Group tags the selection with a fresh shared group id. The tag is
// informational; dragging follows the selection.
func (e *Editor) Group() (string, error) {
	if err := e.mutable(); err != nil {
		return "", err
	}
	if len(e.selected) < 2 {
		return "", ErrNeedTwo
	}
	gid := "g_" + e.newID()
	e.commit(e.patched(e.selected, Patch{GroupID: &gid}))
	return gid, nil
}

// Ungroup clears the group id of the selection.
func (e *Editor) Ungroup() error {
	return e.updateSelection(Patch{GroupID: Ptr("")})
}

// LockSelected locks the selection.
func (e *Editor) LockSelected() error {
	return e.updateSelection(Patch{Locked: Ptr(true)})
}

// UnlockSelected unlocks the selection.
func (e *Editor) UnlockSelected() error {
	return e.updateSelection(Patch{Locked: Ptr(false)})
}

func (e *Editor) updateSelection(p Patch) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if len(e.selected) == 0 {
		return nil
	}
	e.commit(e.patched(e.selected, p))
	return nil
}

// BringForward raises the selection above every other element, keeping the
// relative order of the selected elements.
func (e *Editor) BringForward() error {
	return e.restack(geometry.BringForward)
}

// SendBackward lowers each selected element by one, floored at 0.
func (e *Editor) SendBackward() error {
	return e.restack(geometry.SendBackward)
}

func (e *Editor) restack(fn func([]int, []bool) []int) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if len(e.selected) == 0 {
		return nil
	}
	z := fn(zs(e.draft), e.selectionMask())
	next := cloneAll(e.draft)
	for i := range next {
		next[i].Z = z[i]
	}
	e.commit(next)
	return nil
}

// Duplicate clones the selection shifted by DuplicateOffset with fresh ids,
// unlocked and stacked on top, and selects the copies.
func (e *Editor) Duplicate() ([]Element, error) {
	if err := e.mutable(); err != nil {
		return nil, err
	}
	if len(e.selected) == 0 {
		return nil, nil
	}
	z := e.nextZ()
	var copies []Element
	for _, it := range e.draft {
		if !e.isSelected(it.ID) {
			continue
		}
		c := it.clone()
		c.ID = e.newID()
		c.X += DuplicateOffset
		c.Y += DuplicateOffset
		z++
		c.Z = z
		c.Locked = false
		copies = append(copies, c)
	}
	e.commit(append(cloneAll(e.draft), copies...))

	e.selected = make([]string, len(copies))
	for i, c := range copies {
		e.selected[i] = c.ID
	}
	return cloneAll(copies), nil
}

// Align lines up the unlocked members of the selection against the
// selection's bounding box. Locked members count towards the bounds but do
// not move.
func (e *Editor) Align(edge geometry.Edge) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if !edge.Valid() {
		return &apperr.ValidationError{Field: "edge"}
	}
	if len(e.selected) < 2 {
		return ErrNeedTwo
	}

	var rects []geometry.Rect
	for _, it := range e.draft {
		if e.isSelected(it.ID) {
			rects = append(rects, it.Rect())
		}
	}
	bounds := geometry.Bounds(rects)

	next := cloneAll(e.draft)
	for i, it := range next {
		if !e.isSelected(it.ID) || it.Locked {
			continue
		}
		p := geometry.Align(it.Rect(), bounds, edge)
		next[i].X, next[i].Y = p.X, p.Y
	}
	e.commit(next)
	return nil
}
