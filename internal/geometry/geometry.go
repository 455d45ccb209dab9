// Package geometry holds the pure spatial helpers behind the free-form
// canvas: grid quantisation, edge/centre snapping, rigid multi-element
// translation, z-order bumps and selection bounds.
//
// All functions are total over well-formed input. NaN or negative sizes are
// not rejected; callers supply sane geometry.
package geometry

import "math"

// SnapThreshold is the maximum distance in virtual pixels at which a
// coordinate clicks to a guide.
const SnapThreshold = 8

// Rect is an axis-aligned box in the virtual canvas space.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Point is a position in the virtual canvas space.
type Point struct {
	X, Y float64
}

// SnapOptions controls Snap and TranslateRigid.
type SnapOptions struct {
	Snap      bool    // snap to other elements' edges and centres
	Grid      bool    // quantise to GridSize
	GridSize  float64 // ignored unless Grid
	Threshold float64 // 0 means SnapThreshold
}

func (o SnapOptions) threshold() float64 {
	if o.Threshold > 0 {
		return o.Threshold
	}
	return SnapThreshold
}

// Quantize rounds v to the nearest multiple of grid. A non-positive grid
// returns v unchanged.
func Quantize(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// SnapBest returns the candidate closest to v within threshold. Ties keep the
// first candidate found. With no candidate in range v is returned.
func SnapBest(v float64, candidates []float64, threshold float64) float64 {
	best, _ := snapNearest(v, candidates, threshold)
	return best
}

func snapNearest(v float64, candidates []float64, threshold float64) (float64, bool) {
	best, found := v, false
	bestDist := threshold + 1
	for _, c := range candidates {
		d := math.Abs(v - c)
		if d <= threshold && d < bestDist {
			best, found = c, true
			bestDist = d
		}
	}
	return best, found
}

// Snap computes the resting position of a box of size (w, h) dropped at
// (x, y) among others.
//
// With Grid on the position is quantised first. With Snap on, the x axis is
// then snapped to the other boxes' left, right and centre lines, followed by
// the same lines offset by -w and -w/2 so the moving box's right edge and
// centre can click too; y works the same way with h. An axis that snapped is
// rounded to whole pixels; an axis with no line in range is left as it was.
func Snap(x, y, w, h float64, others []Rect, opts SnapOptions) Point {
	if opts.Grid {
		x = Quantize(x, opts.GridSize)
		y = Quantize(y, opts.GridSize)
	}
	if !opts.Snap {
		return Point{X: x, Y: y}
	}

	xs := make([]float64, 0, len(others)*3)
	ys := make([]float64, 0, len(others)*3)
	for _, o := range others {
		xs = append(xs, o.X, o.Right(), o.X+o.W/2)
		ys = append(ys, o.Y, o.Bottom(), o.Y+o.H/2)
	}

	th := opts.threshold()
	if sx, ok := snapNearest(x, expand(xs, w), th); ok {
		x = math.Round(sx)
	}
	if sy, ok := snapNearest(y, expand(ys, h), th); ok {
		y = math.Round(sy)
	}
	return Point{X: x, Y: y}
}

// expand returns lines, then lines-size, then lines-size/2.
func expand(lines []float64, size float64) []float64 {
	out := make([]float64, 0, len(lines)*3)
	out = append(out, lines...)
	for _, c := range lines {
		out = append(out, c-size)
	}
	for _, c := range lines {
		out = append(out, c-size/2)
	}
	return out
}

// Placement is one member of a pre-drag selection snapshot.
type Placement struct {
	ID     string
	Rect   Rect
	Locked bool
}

// TranslateRigid moves a snapshotted selection as one rigid body.
//
// Every unlocked member is displaced from its snapshot position by the same
// vector: the drag delta (dx, dy) plus the correction the anchor needs to rest
// on the grid and snap guides computed from others. Locked members and
// members missing from the result keep their place. If the anchor is not in
// the snapshot the result is empty.
func TranslateRigid(snapshot []Placement, anchorID string, dx, dy float64, others []Rect, opts SnapOptions) map[string]Point {
	var anchor *Placement
	for i := range snapshot {
		if snapshot[i].ID == anchorID {
			anchor = &snapshot[i]
			break
		}
	}
	if anchor == nil {
		return map[string]Point{}
	}

	ax := anchor.Rect.X + dx
	ay := anchor.Rect.Y + dy
	rest := Snap(ax, ay, anchor.Rect.W, anchor.Rect.H, others, opts)
	mx := dx + (rest.X - ax)
	my := dy + (rest.Y - ay)

	out := make(map[string]Point, len(snapshot))
	for _, p := range snapshot {
		if p.Locked {
			continue
		}
		out[p.ID] = Point{X: p.Rect.X + mx, Y: p.Rect.Y + my}
	}
	return out
}

// MaxZ returns the largest z in zs, or 0 for an empty slice.
func MaxZ(zs []int) int {
	m := 0
	for _, z := range zs {
		if z > m {
			m = z
		}
	}
	return m
}

// BringForward returns the z values after raising the selected entries above
// everything else. Selected entries get MaxZ+2, MaxZ+3, … in slice order so
// their relative order within the batch is stable.
func BringForward(zs []int, selected []bool) []int {
	out := make([]int, len(zs))
	copy(out, zs)
	z := MaxZ(zs) + 1
	for i := range out {
		if i < len(selected) && selected[i] {
			z++
			out[i] = z
		}
	}
	return out
}

// SendBackward returns the z values after lowering each selected entry by
// one, floored at 0. Collisions are allowed.
func SendBackward(zs []int, selected []bool) []int {
	out := make([]int, len(zs))
	copy(out, zs)
	for i := range out {
		if i < len(selected) && selected[i] {
			out[i] = max(0, out[i]-1)
		}
	}
	return out
}

// Bounds returns the smallest box containing all rects. Empty input yields
// the zero Rect.
func Bounds(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Edge names an alignment target.
type Edge string

// Alignment edges.
const (
	AlignLeft   Edge = "left"
	AlignRight  Edge = "right"
	AlignCenter Edge = "center"
	AlignTop    Edge = "top"
	AlignBottom Edge = "bottom"
	AlignMiddle Edge = "middle"
)

// Valid reports whether e is a known edge.
func (e Edge) Valid() bool {
	switch e {
	case AlignLeft, AlignRight, AlignCenter, AlignTop, AlignBottom, AlignMiddle:
		return true
	}
	return false
}

// Align returns where r goes when aligned to edge e of bounds. Only the axis
// the edge acts on changes. Centre and middle are rounded to whole pixels.
func Align(r Rect, bounds Rect, e Edge) Point {
	p := Point{X: r.X, Y: r.Y}
	switch e {
	case AlignLeft:
		p.X = bounds.X
	case AlignRight:
		p.X = bounds.Right() - r.W
	case AlignCenter:
		p.X = math.Round(bounds.X + bounds.W/2 - r.W/2)
	case AlignTop:
		p.Y = bounds.Y
	case AlignBottom:
		p.Y = bounds.Bottom() - r.H
	case AlignMiddle:
		p.Y = math.Round(bounds.Y + bounds.H/2 - r.H/2)
	}
	return p
}

// AutoScroll returns the scroll delta for a pointer at pointerY inside a
// viewport spanning [top, bottom]: -speed inside the top band, +speed inside
// the bottom band, 0 otherwise.
func AutoScroll(pointerY, top, bottom, band, speed float64) float64 {
	switch {
	case pointerY < top+band:
		return -speed
	case pointerY > bottom-band:
		return speed
	}
	return 0
}
