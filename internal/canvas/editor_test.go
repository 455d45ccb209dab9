package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/geometry"
	"github.com/starford/menuboard/internal/localstore"
)

type recorder struct {
	changes  int
	saved    []Element
	canceled []Element
}

func (r *recorder) OnChange([]Element)       { r.changes++ }
func (r *recorder) OnSave(items []Element)   { r.saved = items }
func (r *recorder) OnCancel(items []Element) { r.canceled = items }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newEditing(t *testing.T, items []Element, opts ...Option) (*Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithOwner(rec), WithIDFunc(seqIDs()), WithLang("en")}, opts...)
	e := New(items, opts...)
	e.BeginEdit()
	return e, rec
}

func find(t *testing.T, items []Element, id string) Element {
	t.Helper()
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("element %s not found", id)
	return Element{}
}

func TestReadOnlyOutsideEditMode(t *testing.T) {
	e := New(nil)
	if _, err := e.AddText(RoleName); !errors.Is(err, apperr.ErrReadOnly) {
		t.Fatalf("viewing AddText err = %v, want ErrReadOnly", err)
	}

	e.BeginEdit()
	if err := e.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddText(RolePrice); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("preview AddText err = %v", err)
	}
	if err := e.MoveMany([]string{"x"}, 1, 1); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("preview MoveMany err = %v", err)
	}
	if handled, _ := e.HandleKey(Key{Name: "Delete"}); handled {
		t.Error("keys must be inert in preview")
	}
}

func TestAddTextDefaults(t *testing.T) {
	e, rec := newEditing(t, nil)

	name, err := e.AddText(RoleName)
	if err != nil {
		t.Fatal(err)
	}
	price, _ := e.AddText(RolePrice)

	if name.Text != "Item Name" || name.X != 60 || name.Y != 80 || name.W != 520 || name.H != 90 || name.Size != 52 {
		t.Errorf("name defaults = %+v", name)
	}
	if price.Text != "$9.99" || price.Y != 180 || price.W != 320 || price.Size != 46 {
		t.Errorf("price defaults = %+v", price)
	}
	if name.Z != 1 || price.Z != 2 {
		t.Errorf("z = %d, %d; want 1, 2", name.Z, price.Z)
	}
	if diff := cmp.Diff([]string{price.ID}, e.Selection()); diff != "" {
		t.Errorf("selection (-want +got):\n%s", diff)
	}
	if !e.Dirty() || rec.changes != 2 {
		t.Errorf("dirty=%v changes=%d", e.Dirty(), rec.changes)
	}
}

func TestAddPhoto(t *testing.T) {
	e, _ := newEditing(t, nil)
	el, err := e.AddPhoto(context.Background(), bytes.NewReader([]byte("GIF89a......")), "image/gif")
	if err != nil {
		t.Fatal(err)
	}
	if el.Type != TypeImage || el.Shape != ShapeRounded || el.Radius != 18 || el.Fit != FitContain {
		t.Errorf("image defaults = %+v", el)
	}
	if !strings.HasPrefix(el.Src, "data:image/gif;base64,") {
		t.Errorf("src = %q", el.Src)
	}
}

// Dragging a text box to within 8px of another box's right edge lands
// exactly on that edge.
func TestDragSnapsToNeighbourRightEdge(t *testing.T) {
	e, _ := newEditing(t, nil)
	name, _ := e.AddText(RoleName)
	price, _ := e.AddText(RolePrice) // right edge at 60+320 = 380

	if err := e.Select(name.ID, false); err != nil {
		t.Fatal(err)
	}
	if err := e.BeginDrag(name.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.EndDrag(name.ID, 384, 500); err != nil {
		t.Fatal(err)
	}

	got := find(t, e.Items(), name.ID)
	if got.X != price.X+price.W {
		t.Errorf("x = %v, want %v", got.X, price.X+price.W)
	}
	if got.Y != 500 {
		t.Errorf("y = %v, want 500", got.Y)
	}
}

func TestMultiDragMovesRigidly(t *testing.T) {
	items := []Element{
		{ID: "a", Type: TypeText, X: 0, Y: 0, W: 100, H: 50},
		{ID: "b", Type: TypeText, X: 200, Y: 40, W: 100, H: 50},
		{ID: "c", Type: TypeText, X: 400, Y: 400, W: 10, H: 10, Locked: true},
		{ID: "guide", Type: TypeText, X: 1000, Y: 1000, W: 20, H: 20},
	}
	e, _ := newEditing(t, items)
	for _, id := range []string{"a", "b", "c"} {
		if err := e.Select(id, true); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.BeginDrag("a"); err != nil {
		t.Fatal(err)
	}
	// 5px short of the guide's left edge; anchor clicks to 1000.
	if err := e.EndDrag("a", 995, 10); err != nil {
		t.Fatal(err)
	}

	got := e.Items()
	a, b, c := find(t, got, "a"), find(t, got, "b"), find(t, got, "c")
	if a.X != 1000 || a.Y != 10 {
		t.Errorf("anchor = (%v,%v), want (1000,10)", a.X, a.Y)
	}
	if b.X-200 != a.X-0 || b.Y-40 != a.Y-0 {
		t.Errorf("b displaced (%v,%v), anchor (%v,%v)", b.X-200, b.Y-40, a.X, a.Y)
	}
	if c.X != 400 || c.Y != 400 {
		t.Errorf("locked member moved to (%v,%v)", c.X, c.Y)
	}
}

func TestMultiDragIgnoresSelectedGuides(t *testing.T) {
	items := []Element{
		{ID: "a", Type: TypeText, X: 0, Y: 0, W: 100, H: 50},
		{ID: "b", Type: TypeText, X: 200, Y: 300, W: 100, H: 50},
		{ID: "guide", Type: TypeText, X: 1000, Y: 1000, W: 20, H: 20},
	}
	e, _ := newEditing(t, items)
	for _, id := range []string{"a", "b"} {
		if err := e.Select(id, true); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.BeginDrag("a"); err != nil {
		t.Fatal(err)
	}
	// 3px short of b's left edge. b moves with the anchor, so its lines are
	// not guides.
	if err := e.EndDrag("a", 197, 0); err != nil {
		t.Fatal(err)
	}
	a, b := find(t, e.Items(), "a"), find(t, e.Items(), "b")
	if a.X != 197 || a.Y != 0 {
		t.Errorf("anchor = (%v,%v), want (197,0)", a.X, a.Y)
	}
	if b.X != 397 || b.Y != 300 {
		t.Errorf("b = (%v,%v), want (397,300)", b.X, b.Y)
	}
}

func TestBeginDragLocked(t *testing.T) {
	e, _ := newEditing(t, []Element{{ID: "a", Locked: true}})
	if err := e.BeginDrag("a"); !errors.Is(err, ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", err)
	}
}

func TestDragAutoScroll(t *testing.T) {
	e, _ := newEditing(t, nil)
	vp := Viewport{Top: 100, Bottom: 900}
	for _, tt := range []struct{ y, want float64 }{{120, -18}, {500, 0}, {850, 18}} {
		got, err := e.Drag(tt.y, vp)
		if err != nil || got != tt.want {
			t.Errorf("Drag(%v) = %v, %v; want %v", tt.y, got, err, tt.want)
		}
	}
}

func TestEndResizeSnaps(t *testing.T) {
	items := []Element{
		{ID: "a", X: 0, Y: 0, W: 100, H: 100},
		{ID: "b", X: 500, Y: 500, W: 100, H: 100},
	}
	e, _ := newEditing(t, items)
	if err := e.EndResize("a", 497, 300, 150, 60); err != nil {
		t.Fatal(err)
	}
	a := find(t, e.Items(), "a")
	if a.X != 500 || a.W != 150 || a.H != 60 {
		t.Errorf("resized = %+v", a)
	}
}

func TestSelectToggle(t *testing.T) {
	e, _ := newEditing(t, []Element{{ID: "a"}, {ID: "b"}})
	_ = e.Select("a", false)
	_ = e.Select("b", true)
	if diff := cmp.Diff([]string{"a", "b"}, e.Selection()); diff != "" {
		t.Errorf("after multi select (-want +got):\n%s", diff)
	}
	_ = e.Select("a", true)
	if diff := cmp.Diff([]string{"b"}, e.Selection()); diff != "" {
		t.Errorf("after toggle (-want +got):\n%s", diff)
	}
	_ = e.Select("a", false)
	if diff := cmp.Diff([]string{"a"}, e.Selection()); diff != "" {
		t.Errorf("after plain select (-want +got):\n%s", diff)
	}
	if err := e.Select("zzz", false); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown id err = %v", err)
	}
}

func TestLockedRejectsGeometry(t *testing.T) {
	e, _ := newEditing(t, []Element{{ID: "a", X: 10, Text: "x", Locked: true}})

	if err := e.UpdateItem("a", Patch{X: Ptr(99.0), Text: Ptr("y"), Z: Ptr(4)}); err != nil {
		t.Fatal(err)
	}
	a := find(t, e.Items(), "a")
	if a.X != 10 || a.Text != "x" || a.Z != 4 {
		t.Errorf("locked element = %+v", a)
	}

	if err := e.UpdateItem("a", Patch{Locked: Ptr(false), X: Ptr(99.0)}); err != nil {
		t.Fatal(err)
	}
	if a := find(t, e.Items(), "a"); a.X != 99 || a.Locked {
		t.Errorf("unlocked element = %+v", a)
	}
}

func TestMoveManySkipsLocked(t *testing.T) {
	e, _ := newEditing(t, []Element{{ID: "a"}, {ID: "b", Locked: true}})
	if err := e.MoveMany([]string{"a", "b"}, 5, -5); err != nil {
		t.Fatal(err)
	}
	got := e.Items()
	if a := find(t, got, "a"); a.X != 5 || a.Y != -5 {
		t.Errorf("a = %+v", a)
	}
	if b := find(t, got, "b"); b.X != 0 || b.Y != 0 {
		t.Errorf("b moved: %+v", b)
	}
}

func TestGroupAndUngroup(t *testing.T) {
	e, _ := newEditing(t, []Element{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	_ = e.Select("a", false)
	if _, err := e.Group(); !errors.Is(err, ErrNeedTwo) {
		t.Fatalf("single group err = %v", err)
	}
	_ = e.Select("b", true)
	gid, err := e.Group()
	if err != nil {
		t.Fatal(err)
	}
	got := e.Items()
	if a := find(t, got, "a"); a.GroupID == nil || *a.GroupID != gid {
		t.Errorf("a group = %v", a.GroupID)
	}
	if c := find(t, got, "c"); c.GroupID != nil {
		t.Errorf("c should be ungrouped")
	}

	if err := e.Ungroup(); err != nil {
		t.Fatal(err)
	}
	if a := find(t, e.Items(), "a"); a.GroupID != nil {
		t.Errorf("ungroup left %v", *a.GroupID)
	}
}

func TestZOrderAndDuplicate(t *testing.T) {
	e, _ := newEditing(t, []Element{
		{ID: "a", Z: 1, X: 10, Y: 10, Locked: true},
		{ID: "b", Z: 3},
		{ID: "c", Z: 2},
	})
	_ = e.Select("a", false)
	_ = e.Select("c", true)

	if err := e.BringForward(); err != nil {
		t.Fatal(err)
	}
	got := e.Items()
	if find(t, got, "a").Z != 5 || find(t, got, "c").Z != 6 || find(t, got, "b").Z != 3 {
		t.Errorf("z after BringForward = %d %d %d", find(t, got, "a").Z, find(t, got, "b").Z, find(t, got, "c").Z)
	}

	copies, err := e.Duplicate()
	if err != nil {
		t.Fatal(err)
	}
	if len(copies) != 2 {
		t.Fatalf("copies = %d", len(copies))
	}
	ca := copies[0]
	if ca.ID == "a" || ca.X != 30 || ca.Y != 30 || ca.Locked || ca.Z != 8 {
		t.Errorf("copy of a = %+v", ca)
	}
	if copies[1].Z != 9 {
		t.Errorf("second copy z = %d", copies[1].Z)
	}
	if diff := cmp.Diff([]string{copies[0].ID, copies[1].ID}, e.Selection()); diff != "" {
		t.Errorf("selection (-want +got):\n%s", diff)
	}

	if err := e.SendBackward(); err != nil {
		t.Fatal(err)
	}
	if got := find(t, e.Items(), copies[0].ID).Z; got != 7 {
		t.Errorf("z after SendBackward = %d", got)
	}
}

func TestAlignSkipsLocked(t *testing.T) {
	e, _ := newEditing(t, []Element{
		{ID: "a", X: 50, Y: 0, W: 100, H: 10},
		{ID: "b", X: 10, Y: 100, W: 40, H: 10, Locked: true},
		{ID: "c", X: 300, Y: 200, W: 60, H: 10},
	})
	for _, id := range []string{"a", "b", "c"} {
		_ = e.Select(id, true)
	}
	if err := e.Align(geometry.AlignLeft); err != nil {
		t.Fatal(err)
	}
	got := e.Items()
	if find(t, got, "a").X != 10 || find(t, got, "c").X != 10 {
		t.Errorf("left align: a=%v c=%v", find(t, got, "a").X, find(t, got, "c").X)
	}
	if find(t, got, "b").X != 10 {
		t.Errorf("locked member moved")
	}

	if err := e.Align(geometry.AlignRight); err != nil {
		t.Fatal(err)
	}
	got = e.Items()
	// Bounds after left align: x 10..110.
	if find(t, got, "a").X != 10 || find(t, got, "c").X != 50 || find(t, got, "b").X != 10 {
		t.Errorf("right align: %v %v %v", find(t, got, "a").X, find(t, got, "b").X, find(t, got, "c").X)
	}

	_ = e.Select("a", false)
	if err := e.Align(geometry.AlignTop); !errors.Is(err, ErrNeedTwo) {
		t.Errorf("single align err = %v", err)
	}
}

func TestKeyboard(t *testing.T) {
	e, _ := newEditing(t, []Element{{ID: "a"}, {ID: "b"}})
	_ = e.Select("a", false)

	if ok, err := e.HandleKey(Key{Name: "ArrowRight"}); !ok || err != nil {
		t.Fatalf("ArrowRight = %v, %v", ok, err)
	}
	if ok, _ := e.HandleKey(Key{Name: "ArrowDown", Fast: true}); !ok {
		t.Fatal("ArrowDown not handled")
	}
	if a := find(t, e.Items(), "a"); a.X != 2 || a.Y != 10 {
		t.Errorf("nudged a = (%v,%v)", a.X, a.Y)
	}

	if ok, _ := e.HandleKey(Key{Name: "Backspace"}); !ok {
		t.Fatal("Backspace not handled")
	}
	if len(e.Items()) != 1 || len(e.Selection()) != 0 {
		t.Errorf("after delete items=%d selection=%v", len(e.Items()), e.Selection())
	}

	if ok, _ := e.HandleKey(Key{Name: "x"}); ok {
		t.Error("unbound key handled")
	}
	if ok, err := e.HandleKey(Key{Name: "Escape"}); !ok || err != nil {
		t.Fatalf("Escape = %v, %v", ok, err)
	}
	if e.State() != StateCancelled || len(e.Items()) != 2 {
		t.Errorf("after escape state=%v items=%d", e.State(), len(e.Items()))
	}
}

func TestSaveAndCancel(t *testing.T) {
	e, rec := newEditing(t, []Element{{ID: "a"}})
	_, _ = e.AddText(RoleName)

	saved, err := e.Save()
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 || len(rec.saved) != 2 || e.Dirty() || e.State() != StateSaved {
		t.Fatalf("save: saved=%d owner=%d dirty=%v state=%v", len(saved), len(rec.saved), e.Dirty(), e.State())
	}

	e.BeginEdit()
	_ = e.RemoveMany([]string{"a"})
	if err := e.Cancel(); err != nil {
		t.Fatal(err)
	}
	if len(e.Items()) != 2 || len(rec.canceled) != 2 {
		t.Errorf("cancel restored %d, owner got %d", len(e.Items()), len(rec.canceled))
	}
	if err := e.Cancel(); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("second cancel err = %v", err)
	}
}

func TestSyncIgnoredWhileDirty(t *testing.T) {
	e, _ := newEditing(t, nil)
	if !e.Sync([]Element{{ID: "x"}}) {
		t.Fatal("clean editor should accept sync")
	}
	_, _ = e.AddText(RoleName)
	if e.Sync(nil) {
		t.Error("dirty editor must ignore sync")
	}
	if len(e.Items()) != 2 {
		t.Errorf("items = %d", len(e.Items()))
	}
}

func TestSettingsClampGridSize(t *testing.T) {
	e := New(nil, WithSettings(Settings{Grid: true, GridSize: 500}))
	if e.Settings().GridSize != MaxGridSize {
		t.Errorf("GridSize = %d", e.Settings().GridSize)
	}
	e.SetSettings(Settings{GridSize: 1})
	if e.Settings().GridSize != MinGridSize {
		t.Errorf("GridSize = %d", e.Settings().GridSize)
	}
	if !DefaultSettings().Snap || DefaultSettings().Grid {
		t.Error("default settings should snap without grid")
	}
}

func newPresetStore(t *testing.T) *PresetStore {
	t.Helper()
	dir := t.TempDir()
	db, err := localstore.Open(filepath.Join(dir, "presets.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	blobs, err := localstore.NewBlobDir(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatal(err)
	}
	return NewPresetStore(localstore.NewScoped(db, blobs, "user-1"))
}

// A preset survives later draft edits and reloads under fresh ids.
func TestPresetSnapshotIsIndependent(t *testing.T) {
	e, _ := newEditing(t, nil, WithPresets(newPresetStore(t)))
	for _, r := range []Role{RoleName, RolePrice, RoleName} {
		if _, err := e.AddText(r); err != nil {
			t.Fatal(err)
		}
	}

	p, err := e.SavePreset("Lunch")
	if err != nil {
		t.Fatal(err)
	}
	draftIDs := map[string]bool{}
	for _, it := range e.Items() {
		draftIDs[it.ID] = true
	}

	if err := e.RemoveMany([]string{e.Items()[0].ID}); err != nil {
		t.Fatal(err)
	}
	if len(e.Items()) != 2 {
		t.Fatalf("draft after delete = %d", len(e.Items()))
	}

	if err := e.LoadPreset(p.ID); err != nil {
		t.Fatal(err)
	}
	got := e.Items()
	if len(got) != 3 {
		t.Fatalf("reloaded = %d, want 3", len(got))
	}
	seen := map[string]bool{}
	for _, it := range got {
		if draftIDs[it.ID] || seen[it.ID] {
			t.Errorf("id %s collides", it.ID)
		}
		seen[it.ID] = true
	}

	stored, err := e.Presets()
	if err != nil || len(stored) != 1 || len(stored[0].Items) != 3 {
		t.Fatalf("stored presets = %+v, %v", stored, err)
	}
	if stored[0].Items[0].ID != p.Items[0].ID {
		t.Error("loading must not rewrite the stored preset")
	}
}

func TestPresetDeleteNeedsConfirm(t *testing.T) {
	e, _ := newEditing(t, nil, WithPresets(newPresetStore(t)))
	p, err := e.SavePreset("  ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "My Menu Preset" {
		t.Errorf("default name = %q", p.Name)
	}
	if err := e.DeletePreset(p.ID, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("unconfirmed err = %v", err)
	}
	if err := e.DeletePreset(p.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := e.DeletePreset(p.ID, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if err := e.LoadPreset(p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("load deleted err = %v", err)
	}
}

func TestPresetsWithoutStore(t *testing.T) {
	e, _ := newEditing(t, nil)
	if _, err := e.SavePreset("x"); !errors.Is(err, ErrNoPresetStore) {
		t.Errorf("err = %v", err)
	}
}
