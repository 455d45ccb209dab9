package canvas

import (
	"github.com/starford/menuboard/internal/geometry"
)

// ElementType distinguishes text boxes from photos.
type ElementType string

// Element types.
const (
	TypeText  ElementType = "text"
	TypeImage ElementType = "image"
)

// Role is the purpose of a text element.
type Role string

// Text roles.
const (
	RoleName  Role = "name"
	RolePrice Role = "price"
)

// Image shapes.
const (
	ShapeRect     = "rect"
	ShapeRounded  = "rounded"
	ShapeCircle   = "circle"
	ShapeTriangle = "triangle"
	ShapeDiamond  = "diamond"
)

// Image fit modes.
const (
	FitContain = "contain"
	FitCover   = "cover"
)

// Font stacks offered by the editor. The first one is the default.
var Fonts = []string{
	"Pretendard, system-ui, -apple-system, Segoe UI, Roboto, sans-serif",
	`"Noto Sans KR", system-ui, -apple-system, Segoe UI, Roboto, sans-serif`,
	`Georgia, "Times New Roman", serif`,
	`ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace`,
}

// Element is one freely placed item on the canvas. Coordinates are in the
// 1080-wide design space.
type Element struct {
	ID      string      `json:"id"`
	Type    ElementType `json:"type"`
	Role    Role        `json:"role,omitempty"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	W       float64     `json:"w"`
	H       float64     `json:"h"`
	Z       int         `json:"z"`
	Locked  bool        `json:"locked"`
	GroupID *string     `json:"groupId"`
	Opacity float64     `json:"opacity"`

	// text
	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Size       float64 `json:"size,omitempty"`
	Color      string  `json:"color,omitempty"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Align      string  `json:"align,omitempty"`

	// image
	Src    string  `json:"src,omitempty"`
	Shape  string  `json:"shape,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Fit    string  `json:"fit,omitempty"`
}

// Rect returns the element's box.
func (e Element) Rect() geometry.Rect {
	return geometry.Rect{X: e.X, Y: e.Y, W: e.W, H: e.H}
}

func (e Element) clone() Element {
	if e.GroupID != nil {
		g := *e.GroupID
		e.GroupID = &g
	}
	return e
}

func cloneAll(items []Element) []Element {
	out := make([]Element, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

func zs(items []Element) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Z
	}
	return out
}

func newText(id string, role Role, lang string, z int) Element {
	e := Element{
		ID:         id,
		Type:       TypeText,
		Role:       role,
		Z:          z,
		Opacity:    1,
		FontFamily: Fonts[0],
		Color:      "#ffffff",
		Bold:       true,
		Align:      "left",
	}
	t := textsFor(lang)
	if role == RolePrice {
		e.X, e.Y, e.W, e.H = 60, 180, 320, 70
		e.Size = 46
		e.Text = t.priceDefault
		return e
	}
	e.Role = RoleName
	e.X, e.Y, e.W, e.H = 60, 80, 520, 90
	e.Size = 52
	e.Text = t.nameDefault
	return e
}

func newImage(id, src string, z int) Element {
	return Element{
		ID:      id,
		Type:    TypeImage,
		X:       80,
		Y:       120,
		W:       320,
		H:       240,
		Z:       z,
		Opacity: 1,
		Src:     src,
		Shape:   ShapeRounded,
		Radius:  18,
		Fit:     FitContain,
	}
}

// Patch is a shallow update. Nil fields are left alone. A non-nil GroupID
// pointing at "" clears the group.
//
// A locked element only accepts Locked, GroupID and Z; every other field is
// ignored unless the same patch unlocks it.
type Patch struct {
	X, Y, W, H *float64
	Z          *int
	Locked     *bool
	GroupID    *string
	Opacity    *float64

	Text       *string
	FontFamily *string
	Size       *float64
	Color      *string
	Bold       *bool
	Italic     *bool
	Align      *string

	Src    *string
	Shape  *string
	Radius *float64
	Fit    *string
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T { return &v }

func (p Patch) apply(e Element) Element {
	if p.Locked != nil {
		e.Locked = *p.Locked
	}
	if p.GroupID != nil {
		if *p.GroupID == "" {
			e.GroupID = nil
		} else {
			g := *p.GroupID
			e.GroupID = &g
		}
	}
	if p.Z != nil {
		e.Z = max(0, *p.Z)
	}
	if e.Locked {
		return e
	}

	set(&e.X, p.X)
	set(&e.Y, p.Y)
	set(&e.W, p.W)
	set(&e.H, p.H)
	set(&e.Opacity, p.Opacity)
	set(&e.Text, p.Text)
	set(&e.FontFamily, p.FontFamily)
	set(&e.Size, p.Size)
	set(&e.Color, p.Color)
	set(&e.Bold, p.Bold)
	set(&e.Italic, p.Italic)
	set(&e.Align, p.Align)
	set(&e.Src, p.Src)
	set(&e.Shape, p.Shape)
	set(&e.Radius, p.Radius)
	set(&e.Fit, p.Fit)
	return e
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
