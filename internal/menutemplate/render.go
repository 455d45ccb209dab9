package menutemplate

import (
	"math"
	"strings"

	"github.com/starford/menuboard/internal/pagination"
)

// RenderOptions sizes the rendered page stack. Zero values use the defaults.
type RenderOptions struct {
	PageHeight     float64 `json:"pageHeight"`
	PageGap        float64 `json:"pageGap"`
	ContainerWidth float64 `json:"containerWidth"`
}

// Header is what every page shows above its content.
type Header struct {
	RestaurantName string  `json:"restaurantName"`
	Title          string  `json:"title"`
	LogoSrc        *string `json:"logoSrc"`
	Chip           string  `json:"chip"`
}

// Line is a row ready for display, with its price formatted.
type Line struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// View is a rendered template: one of List, PhotoList and Grid is set.
type View struct {
	TemplateID string  `json:"templateId"`
	Name       string  `json:"name"`
	Scale      float64 `json:"scale"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PageCount  int     `json:"pageCount"`
	Header     Header  `json:"header"`
	Style      Style   `json:"style"`

	List      *pagination.ListLayout[Line]      `json:"list,omitempty"`
	PhotoList *pagination.PhotoListLayout[Line] `json:"photoList,omitempty"`
	Grid      *pagination.GridLayout[Line]      `json:"grid,omitempty"`
}

// Scale returns containerWidth over the design width, or 1 when the width is
// not positive.
func Scale(containerWidth float64) float64 {
	s := containerWidth / pagination.DesignWidth
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	return s
}

// Render paginates doc. A nil document renders nothing and returns nil.
func Render(doc *Document, opts RenderOptions) *View {
	if doc == nil {
		return nil
	}

	frame := pagination.DefaultFrame()
	if opts.PageHeight > 0 {
		frame.PageHeight = opts.PageHeight
	}
	if opts.PageGap > 0 {
		frame.PageGap = opts.PageGap
	}
	frame.LineSpacing = doc.Style.LineSpacing
	frame.RowGap = doc.Style.RowGap

	v := &View{
		TemplateID: doc.Template.String(),
		Name:       doc.Template.DisplayName(doc.Lang),
		Scale:      Scale(opts.ContainerWidth),
		Width:      pagination.DesignWidth,
		Header:     header(doc),
		Style:      doc.Style,
	}

	currency := doc.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	lines := func(rows []Row) []Line {
		out := make([]Line, len(rows))
		for i, r := range rows {
			out[i] = Line{Name: r.Name, Price: pagination.FormatPrice(r.Price, currency, doc.Style.ForceTwoDecimals)}
		}
		return out
	}

	switch {
	case doc.List != nil:
		l := pagination.ListPages(lines(doc.List.Rows), frame)
		v.List = &l
		v.PageCount = len(l.Pages)
	case doc.PhotoList != nil:
		photos := make([]string, 0, len(doc.PhotoList.Photos))
		for _, p := range doc.PhotoList.Photos {
			if p != nil {
				photos = append(photos, *p)
			}
		}
		l := pagination.PhotoListPages(lines(doc.PhotoList.Rows), photos, doc.PhotoList.Caption, doc.Template.Variant, frame)
		v.PhotoList = &l
		v.PageCount = len(l.Pages)
	case doc.Grid != nil:
		l := pagination.GridPages(lines(doc.Grid.Cells), doc.Grid.Columns, doc.Template.Variant, frame)
		v.Grid = &l
		v.PageCount = len(l.Pages)
	}

	if v.PageCount > 0 {
		v.Height = float64(v.PageCount)*frame.PageHeight + float64(v.PageCount-1)*frame.PageGap
	}
	return v
}

func header(doc *Document) Header {
	name := strings.TrimSpace(doc.RestaurantName)
	if name == "" {
		name = pick(doc.Lang, "한소반", "Hansoban")
	}
	title := doc.Title
	if title == "" {
		title = "Menu"
	}
	var chip string
	switch doc.Template.Variant {
	case pagination.VariantA:
		chip = "Classic"
	case pagination.VariantB:
		chip = "Bold"
	default:
		chip = "Modern"
	}
	return Header{RestaurantName: name, Title: title, LogoSrc: doc.LogoSrc, Chip: chip}
}
