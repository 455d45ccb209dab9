package menutemplate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/menuboard/internal/pagination"
)

// Style defaults.
const (
	DefaultFontFamily  = "system-ui"
	DefaultTextColor   = "#ffffff"
	DefaultAccentColor = "rgba(255,255,255,0.65)"
	DefaultCurrency    = "$"
)

// DefaultStyle returns the style applied under any missing style field.
func DefaultStyle() Style {
	return Style{
		FontFamily:       DefaultFontFamily,
		TextColor:        DefaultTextColor,
		AccentColor:      DefaultAccentColor,
		LineSpacing:      pagination.DefaultLineSpacing,
		RowGap:           pagination.DefaultRowGap,
		ForceTwoDecimals: true,
	}
}

// rawDocument is the loose stored shape. Every field is optional and numbers
// may arrive as strings.
type rawDocument struct {
	RestaurantName *string         `json:"restaurantName"`
	LogoSrc        *string         `json:"logoSrc"`
	Title          *string         `json:"title"`
	Currency       *string         `json:"currency"`
	Style          *rawStyle       `json:"style"`
	Rows           json.RawMessage `json:"rows"`
	Cells          json.RawMessage `json:"cells"`
	Photos         json.RawMessage `json:"photos"`
	PhotoSrc       *string         `json:"photoSrc"`
	Caption        *string         `json:"caption"`
	Columns        json.RawMessage `json:"columns"`
}

type rawStyle struct {
	FontFamily       *string         `json:"fontFamily"`
	TextColor        *string         `json:"textColor"`
	AccentColor      *string         `json:"accentColor"`
	LineSpacing      json.RawMessage `json:"lineSpacing"`
	RowGap           json.RawMessage `json:"rowGap"`
	ForceTwoDecimals *bool           `json:"forceTwoDecimals"`
}

type rawRow struct {
	Name  json.RawMessage `json:"name"`
	Price json.RawMessage `json:"price"`
}

// Normalize parses raw template data for templateID and fills every missing
// field with the family and language defaults. Empty or null raw yields a
// nil document and no error. The caller's bytes are never modified.
func Normalize(templateID string, raw []byte, lang string) (*Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	id, err := ParseTemplateID(templateID)
	if err != nil {
		return nil, err
	}
	var in rawDocument
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, fmt.Errorf("menutemplate: decode document: %w", err)
	}
	return fromRaw(id, &in, lang), nil
}

func fromRaw(id TemplateID, in *rawDocument, lang string) *Document {
	d := &Document{
		Template:       id,
		Lang:           lang,
		RestaurantName: deref(in.RestaurantName, pick(lang, "한소반", "Hansoban")),
		LogoSrc:        nonEmpty(in.LogoSrc),
		Currency:       deref(in.Currency, DefaultCurrency),
		Style:          normalizeStyle(in.Style),
	}

	switch id.Family {
	case FamilyList:
		d.Title = deref(in.Title, pick(lang, "오늘의 메뉴", "Today’s Menu"))
		d.List = &ListPayload{Rows: rows(in.Rows)}

	case FamilyPhotoList:
		d.Title = deref(in.Title, pick(lang, "추천 메뉴", "Featured"))
		p := &PhotoListPayload{
			Rows:    rows(in.Rows),
			Caption: deref(in.Caption, pick(lang, "사진을 업로드하세요", "Upload photos")),
		}
		var photos []*string
		switch {
		case json.Unmarshal(in.Photos, &photos) == nil && photos != nil:
			for i := 0; i < len(photos) && i < len(p.Photos); i++ {
				p.Photos[i] = nonEmpty(photos[i])
			}
		case in.PhotoSrc != nil:
			p.Photos[0] = nonEmpty(in.PhotoSrc)
		}
		p.syncPhotoSrc()
		d.PhotoList = p

	case FamilyGrid:
		d.Title = deref(in.Title, pick(lang, "메뉴", "Menu"))
		cols := 2
		if n, ok := looseNumber(in.Columns); ok {
			cols = int(pagination.ClampNum(n, 2, 3))
		}
		d.Grid = &GridPayload{Cells: rows(in.Cells), Columns: cols}
	}
	return d
}

func normalizeStyle(in *rawStyle) Style {
	s := DefaultStyle()
	if in == nil {
		return s
	}
	s.FontFamily = deref(in.FontFamily, s.FontFamily)
	s.TextColor = deref(in.TextColor, s.TextColor)
	s.AccentColor = deref(in.AccentColor, s.AccentColor)
	if n, ok := looseNumber(in.LineSpacing); ok {
		s.LineSpacing = n
	}
	if n, ok := looseNumber(in.RowGap); ok {
		s.RowGap = n
	}
	if in.ForceTwoDecimals != nil {
		s.ForceTwoDecimals = *in.ForceTwoDecimals
	}
	return s
}

// syncPhotoSrc keeps the legacy single-photo mirror on the first filled slot.
func (p *PhotoListPayload) syncPhotoSrc() {
	p.PhotoSrc = nil
	for _, ph := range p.Photos {
		if ph != nil {
			p.PhotoSrc = clonePtr(ph)
			return
		}
	}
}

// rows decodes an array of rows. Anything that is not an array yields no
// rows.
func rows(raw json.RawMessage) []Row {
	var in []rawRow
	if err := json.Unmarshal(raw, &in); err != nil {
		return []Row{}
	}
	out := make([]Row, 0, len(in))
	for _, r := range in {
		out = append(out, Row{Name: looseString(r.Name), Price: looseString(r.Price)})
	}
	return out
}

func deref(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return clonePtr(s)
}

// looseString renders a JSON scalar as text: strings as is, numbers in their
// literal form, anything else as "".
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// looseNumber reads a JSON number or numeric string.
func looseNumber(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(looseString(raw))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type wireDocument struct {
	TemplateID     string                         `json:"templateId"`
	RestaurantName string                         `json:"restaurantName"`
	LogoSrc        *string                        `json:"logoSrc"`
	Title          string                         `json:"title"`
	Currency       string                         `json:"currency"`
	Style          Style                          `json:"style"`
	Rows           []Row                          `json:"rows,omitempty"`
	Photos         *[pagination.MaxPhotos]*string `json:"photos,omitempty"`
	PhotoSrc       *string                        `json:"photoSrc,omitempty"`
	Caption        *string                        `json:"caption,omitempty"`
	Cells          []Row                          `json:"cells,omitempty"`
	Columns        int                            `json:"columns,omitempty"`
}

// MarshalJSON writes the flat stored shape that Normalize reads back.
func (d *Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{
		TemplateID:     d.Template.String(),
		RestaurantName: d.RestaurantName,
		LogoSrc:        d.LogoSrc,
		Title:          d.Title,
		Currency:       d.Currency,
		Style:          d.Style,
	}
	switch {
	case d.List != nil:
		w.Rows = d.List.Rows
	case d.PhotoList != nil:
		w.Rows = d.PhotoList.Rows
		w.Photos = &d.PhotoList.Photos
		w.PhotoSrc = d.PhotoList.PhotoSrc
		w.Caption = &d.PhotoList.Caption
	case d.Grid != nil:
		w.Cells = d.Grid.Cells
		w.Columns = d.Grid.Columns
	}
	return json.Marshal(w)
}
