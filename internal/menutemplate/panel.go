package menutemplate

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/starford/menuboard/internal/dataurl"
	"github.com/starford/menuboard/internal/pagination"
)

// Panel input bounds.
const (
	MaxCurrencyRunes = 3
	MinLineSpacing   = 0.9
	MaxLineSpacing   = 1.6
	MinRowGap        = 6
	MaxRowGap        = 26
)

// StylePatch is a shallow style update; nil fields are left alone.
type StylePatch struct {
	FontFamily       *string  `json:"fontFamily,omitempty"`
	TextColor        *string  `json:"textColor,omitempty"`
	AccentColor      *string  `json:"accentColor,omitempty"`
	LineSpacing      *float64 `json:"lineSpacing,omitempty"`
	RowGap           *float64 `json:"rowGap,omitempty"`
	ForceTwoDecimals *bool    `json:"forceTwoDecimals,omitempty"`
}

// RowPatch is a shallow row update.
type RowPatch struct {
	Name  *string `json:"name,omitempty"`
	Price *string `json:"price,omitempty"`
}

// Panel edits a document field by field. Every edit hands the full next
// document to the replace callback; the panel keeps no draft of its own
// beyond the last document it emitted. Out-of-range indices and edits that
// do not apply to the document's family are no-ops.
type Panel struct {
	doc     *Document
	replace func(*Document)
}

// NewPanel returns a panel over doc. replace receives a fresh copy after
// every edit.
func NewPanel(doc *Document, replace func(*Document)) *Panel {
	if replace == nil {
		replace = func(*Document) {}
	}
	return &Panel{doc: doc.Clone(), replace: replace}
}

// Document returns a copy of the current document.
func (p *Panel) Document() *Document { return p.doc.Clone() }

func (p *Panel) edit(fn func(d *Document) bool) {
	if p.doc == nil {
		return
	}
	next := p.doc.Clone()
	if !fn(next) {
		return
	}
	p.doc = next
	p.replace(next.Clone())
}

// SetRestaurantName replaces the header name.
func (p *Panel) SetRestaurantName(name string) {
	p.edit(func(d *Document) bool { d.RestaurantName = name; return true })
}

// SetTitle replaces the header title.
func (p *Panel) SetTitle(title string) {
	p.edit(func(d *Document) bool { d.Title = title; return true })
}

// SetCurrency replaces the currency symbol, truncated to MaxCurrencyRunes.
func (p *Panel) SetCurrency(c string) {
	if utf8.RuneCountInString(c) > MaxCurrencyRunes {
		c = string([]rune(c)[:MaxCurrencyRunes])
	}
	p.edit(func(d *Document) bool { d.Currency = c; return true })
}

// SetLogo converts r to a data URL and sets it as the header logo.
func (p *Panel) SetLogo(ctx context.Context, r io.Reader, mime string) error {
	src, err := dataurl.Encode(ctx, r, mime)
	if err != nil {
		return err
	}
	p.edit(func(d *Document) bool { d.LogoSrc = &src; return true })
	return nil
}

// RemoveLogo clears the header logo.
func (p *Panel) RemoveLogo() {
	p.edit(func(d *Document) bool { d.LogoSrc = nil; return true })
}

// SetStyle merges patch into the style. Line spacing and row gap are kept
// inside the panel's slider bounds.
func (p *Panel) SetStyle(patch StylePatch) {
	p.edit(func(d *Document) bool {
		s := &d.Style
		if patch.FontFamily != nil {
			s.FontFamily = *patch.FontFamily
		}
		if patch.TextColor != nil {
			s.TextColor = *patch.TextColor
		}
		if patch.AccentColor != nil {
			s.AccentColor = *patch.AccentColor
		}
		if patch.LineSpacing != nil {
			s.LineSpacing = pagination.ClampNum(*patch.LineSpacing, MinLineSpacing, MaxLineSpacing)
		}
		if patch.RowGap != nil {
			s.RowGap = pagination.ClampNum(*patch.RowGap, MinRowGap, MaxRowGap)
		}
		if patch.ForceTwoDecimals != nil {
			s.ForceTwoDecimals = *patch.ForceTwoDecimals
		}
		return true
	})
}

func rowsOf(d *Document) *[]Row {
	switch {
	case d.List != nil:
		return &d.List.Rows
	case d.PhotoList != nil:
		return &d.PhotoList.Rows
	}
	return nil
}

func cellsOf(d *Document) *[]Row {
	if d.Grid != nil {
		return &d.Grid.Cells
	}
	return nil
}

func addBlank(rows *[]Row) bool {
	if rows == nil {
		return false
	}
	*rows = append(*rows, Row{})
	return true
}

func patchAt(rows *[]Row, idx int, patch RowPatch) bool {
	if rows == nil || idx < 0 || idx >= len(*rows) {
		return false
	}
	r := &(*rows)[idx]
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Price != nil {
		r.Price = *patch.Price
	}
	return true
}

func removeAt(rows *[]Row, idx int) bool {
	if rows == nil || idx < 0 || idx >= len(*rows) {
		return false
	}
	*rows = append((*rows)[:idx], (*rows)[idx+1:]...)
	return true
}

// AddRow appends a blank row to a list or photo list.
func (p *Panel) AddRow() {
	p.edit(func(d *Document) bool { return addBlank(rowsOf(d)) })
}

// UpdateRow patches the row at idx.
func (p *Panel) UpdateRow(idx int, patch RowPatch) {
	p.edit(func(d *Document) bool { return patchAt(rowsOf(d), idx, patch) })
}

// RemoveRow deletes the row at idx.
func (p *Panel) RemoveRow(idx int) {
	p.edit(func(d *Document) bool { return removeAt(rowsOf(d), idx) })
}

// AddCell appends a blank grid cell.
func (p *Panel) AddCell() {
	p.edit(func(d *Document) bool { return addBlank(cellsOf(d)) })
}

// UpdateCell patches the grid cell at idx.
func (p *Panel) UpdateCell(idx int, patch RowPatch) {
	p.edit(func(d *Document) bool { return patchAt(cellsOf(d), idx, patch) })
}

// RemoveCell deletes the grid cell at idx.
func (p *Panel) RemoveCell(idx int) {
	p.edit(func(d *Document) bool { return removeAt(cellsOf(d), idx) })
}

// SetColumns sets the grid column count, clamped to [2, 3].
func (p *Panel) SetColumns(n int) {
	p.edit(func(d *Document) bool {
		if d.Grid == nil {
			return false
		}
		d.Grid.Columns = pagination.ClampColumns(n)
		return true
	})
}

// SetCaption replaces the photo placeholder caption.
func (p *Panel) SetCaption(c string) {
	p.edit(func(d *Document) bool {
		if d.PhotoList == nil {
			return false
		}
		d.PhotoList.Caption = c
		return true
	})
}

// SetPhoto converts r to a data URL and stores it in slot idx. The slot is
// only written once conversion succeeds.
func (p *Panel) SetPhoto(ctx context.Context, idx int, r io.Reader, mime string) error {
	if idx < 0 || idx >= pagination.MaxPhotos {
		return nil
	}
	src, err := dataurl.Encode(ctx, r, mime)
	if err != nil {
		return err
	}
	p.edit(func(d *Document) bool {
		if d.PhotoList == nil {
			return false
		}
		d.PhotoList.Photos[idx] = &src
		d.PhotoList.syncPhotoSrc()
		return true
	})
	return nil
}

// RemovePhoto clears slot idx.
func (p *Panel) RemovePhoto(idx int) {
	p.edit(func(d *Document) bool {
		if d.PhotoList == nil || idx < 0 || idx >= pagination.MaxPhotos {
			return false
		}
		d.PhotoList.Photos[idx] = nil
		d.PhotoList.syncPhotoSrc()
		return true
	})
}
