// Package pagination flows an unbounded list of menu rows, photo blocks or
// grid cells into fixed-height pages.
//
// Heights are estimates in the 1080-wide design space. They grow linearly
// with the line-spacing multiplier, so tighter spacing never fits fewer rows
// than looser spacing.
package pagination

import (
	"fmt"
	"math"
)

// Design-space constants.
const (
	DesignWidth         = 1080
	DefaultRowHeight    = 92
	DefaultHeaderHeight = 210
	PagePaddingTop      = 70
	PagePaddingX        = 70
	PageBottomReserve   = 80
	DefaultPageHeight   = 2200
	DefaultPageGap      = 40
	DefaultRowGap       = 14
	DefaultLineSpacing  = 1.12

	minLineSpacing = 0.9
	maxLineSpacing = 1.6
)

// ClampNum clamps v to [lo, hi]. Non-finite values map to lo.
func ClampNum(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// EstimateRowHeight returns the height of one list row at line spacing ls.
func EstimateRowHeight(ls float64) int {
	ls = ClampNum(ls, minLineSpacing, maxLineSpacing)
	return int(math.Round(DefaultRowHeight * (0.9 + (ls-0.9)*0.8)))
}

// EstimateHeaderHeight returns the height of the page header at line
// spacing ls.
func EstimateHeaderHeight(ls float64) int {
	ls = ClampNum(ls, minLineSpacing, maxLineSpacing)
	return int(math.Round(DefaultHeaderHeight * (0.95 + (ls-0.9)*0.35)))
}

// UsableHeight is the vertical space left on a page after padding.
func UsableHeight(pageHeight float64) float64 {
	return pageHeight - PagePaddingTop - PageBottomReserve
}

func rowGapOrDefault(rowGap float64) float64 {
	if rowGap == 0 || math.IsNaN(rowGap) || math.IsInf(rowGap, 0) {
		return DefaultRowGap
	}
	return rowGap
}

// ItemsPerPage returns how many list rows fit under the header, at least 1.
// A zero or non-finite rowGap uses DefaultRowGap.
func ItemsPerPage(pageHeight, ls, rowGap float64) int {
	avail := UsableHeight(pageHeight) - float64(EstimateHeaderHeight(ls))
	per := math.Floor(avail / (float64(EstimateRowHeight(ls)) + rowGapOrDefault(rowGap)))
	if math.IsNaN(per) || math.IsInf(per, 0) || per < 1 {
		return 1
	}
	return int(per)
}

// Chunk splits items into consecutive groups of size. An empty input yields
// exactly one empty group. A size below 1 is treated as 1.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	if len(items) == 0 {
		return [][]T{{}}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end:end])
	}
	return out
}

// Frame describes the page stack a template is flowed into.
type Frame struct {
	PageHeight  float64
	PageGap     float64
	LineSpacing float64
	RowGap      float64
}

// DefaultFrame returns the frame used when the caller supplies none.
func DefaultFrame() Frame {
	return Frame{
		PageHeight:  DefaultPageHeight,
		PageGap:     DefaultPageGap,
		LineSpacing: DefaultLineSpacing,
		RowGap:      DefaultRowGap,
	}
}

func (f Frame) withDefaults() Frame {
	if f.PageHeight <= 0 || math.IsNaN(f.PageHeight) || math.IsInf(f.PageHeight, 0) {
		f.PageHeight = DefaultPageHeight
	}
	if f.PageGap < 0 || math.IsNaN(f.PageGap) || math.IsInf(f.PageGap, 0) {
		f.PageGap = DefaultPageGap
	}
	return f
}

// Variant is the cosmetic layout suffix of a template id.
type Variant string

// Known variants.
const (
	VariantA Variant = "A"
	VariantB Variant = "B"
	VariantC Variant = "C"
)

// Page is one fixed-height slice of a rendered template.
type Page[T any] struct {
	Index     int        `json:"index"`
	Top       float64    `json:"top"`
	Continued bool       `json:"continued"`
	Banner    string     `json:"banner,omitempty"`
	Items     []T        `json:"items,omitempty"`
	Blocks    []Block[T] `json:"blocks,omitempty"`
}

// Block is a group of rows paired with one photo on a photo list page.
// Photo is empty when no photo was uploaded; Placeholder then carries the
// caption to show instead.
type Block[T any] struct {
	Rows        []T    `json:"rows"`
	Photo       string `json:"photo,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Banner returns the continuation banner for the zero-based page index, or
// "" for the first page.
func Banner(index int) string {
	if index == 0 {
		return ""
	}
	return fmt.Sprintf("Continued · Page %d", index+1)
}

func newPage[T any](i int, f Frame) Page[T] {
	return Page[T]{
		Index:     i,
		Top:       float64(i) * (f.PageHeight + f.PageGap),
		Continued: i > 0,
		Banner:    Banner(i),
	}
}

// ListLayout is the result of flowing a plain list.
type ListLayout[T any] struct {
	RowHeight    int       `json:"rowHeight"`
	HeaderHeight int       `json:"headerHeight"`
	PerPage      int       `json:"perPage"`
	Pages        []Page[T] `json:"pages"`
}

// ListPages flows rows one per line.
func ListPages[T any](rows []T, f Frame) ListLayout[T] {
	f = f.withDefaults()
	per := ItemsPerPage(f.PageHeight, f.LineSpacing, f.RowGap)
	chunks := Chunk(rows, per)

	pages := make([]Page[T], len(chunks))
	for i, c := range chunks {
		pages[i] = newPage[T](i, f)
		pages[i].Items = c
	}
	return ListLayout[T]{
		RowHeight:    EstimateRowHeight(f.LineSpacing),
		HeaderHeight: EstimateHeaderHeight(f.LineSpacing),
		PerPage:      per,
		Pages:        pages,
	}
}

// Photo list constants.
const (
	MaxPhotos             = 8
	targetBlocksPerPage   = 3.5
	minPhotoListAvailable = 400
	photoListHeaderMargin = 24
)

// ItemsPerBlock returns how many rows share one photo.
func ItemsPerBlock(v Variant) int {
	if v == VariantB {
		return 3
	}
	return 4
}

func blockGap(v Variant) int {
	switch v {
	case VariantA:
		return 18
	case VariantB:
		return 16
	default:
		return 20
	}
}

// PhotoListLayout is the result of flowing a photo list.
type PhotoListLayout[T any] struct {
	BlockHeight   int       `json:"blockHeight"`
	BlockGap      int       `json:"blockGap"`
	BlocksPerPage int       `json:"blocksPerPage"`
	ItemsPerBlock int       `json:"itemsPerBlock"`
	Pages         []Page[T] `json:"pages"`
}

// PhotoListPages groups rows into blocks, pairs every block with a photo and
// flows three or four blocks per page.
//
// Photos are assigned round-robin over the non-empty entries of photos by
// global block index. With no photos every block carries caption as its
// placeholder.
func PhotoListPages[T any](rows []T, photos []string, caption string, v Variant, f Frame) PhotoListLayout[T] {
	f = f.withDefaults()

	header := float64(EstimateHeaderHeight(f.LineSpacing))
	available := math.Max(minPhotoListAvailable, UsableHeight(f.PageHeight)-header-photoListHeaderMargin)
	gap := blockGap(v)
	blockH := int(math.Floor((available - float64(gap)*(math.Ceil(targetBlocksPerPage)-1)) / targetBlocksPerPage))
	perPage := int(ClampNum(math.Floor((available+float64(gap))/float64(blockH+gap)), 3, 4))

	var pool []string
	for _, p := range photos {
		if p != "" {
			pool = append(pool, p)
		}
	}

	perBlock := ItemsPerBlock(v)
	blocks := Chunk(rows, perBlock)
	chunks := Chunk(blocks, perPage)

	pages := make([]Page[T], len(chunks))
	for pi, c := range chunks {
		pages[pi] = newPage[T](pi, f)
		pages[pi].Blocks = make([]Block[T], 0, len(c))
		for bi, blockRows := range c {
			b := Block[T]{Rows: blockRows}
			if len(pool) == 0 {
				b.Placeholder = caption
			} else {
				b.Photo = pool[(pi*perPage+bi)%len(pool)]
			}
			pages[pi].Blocks = append(pages[pi].Blocks, b)
		}
	}

	return PhotoListLayout[T]{
		BlockHeight:   blockH,
		BlockGap:      gap,
		BlocksPerPage: perPage,
		ItemsPerBlock: perBlock,
		Pages:         pages,
	}
}

// ClampColumns forces a grid column count into [2, 3]. Zero means 2.
func ClampColumns(c int) int {
	if c == 0 {
		return 2
	}
	return max(2, min(3, c))
}

func cardMetrics(v Variant) (height, gap int) {
	switch v {
	case VariantA:
		return 172, 18
	case VariantB:
		return 160, 14
	default:
		return 188, 22
	}
}

// GridLayout is the result of flowing a grid.
type GridLayout[T any] struct {
	Columns     int       `json:"columns"`
	CardHeight  int       `json:"cardHeight"`
	Gap         int       `json:"gap"`
	RowsPerPage int       `json:"rowsPerPage"`
	PerPage     int       `json:"perPage"`
	Pages       []Page[T] `json:"pages"`
}

// GridPages flows cells into columns and chunks them by rows that fit times
// columns.
func GridPages[T any](cells []T, columns int, v Variant, f Frame) GridLayout[T] {
	f = f.withDefaults()
	col := ClampColumns(columns)
	cardH, gap := cardMetrics(v)

	header := float64(EstimateHeaderHeight(f.LineSpacing))
	rows := max(1, int(math.Floor((UsableHeight(f.PageHeight)-header)/float64(cardH+gap))))
	per := rows * col

	chunks := Chunk(cells, per)
	pages := make([]Page[T], len(chunks))
	for i, c := range chunks {
		pages[i] = newPage[T](i, f)
		pages[i].Items = c
	}
	return GridLayout[T]{
		Columns:     col,
		CardHeight:  cardH,
		Gap:         gap,
		RowsPerPage: rows,
		PerPage:     per,
		Pages:       pages,
	}
}
