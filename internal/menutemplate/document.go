// Package menutemplate renders the three structured menu template families
// (list, photo list and grid) into paginated views and hosts the property
// panel that edits them.
//
// Template documents arrive as loose JSON. Normalize turns them into a
// Document, a tagged union with exactly one family payload set, once at the
// boundary; everything downstream works on the typed form.
package menutemplate

import (
	"fmt"
	"strings"

	"github.com/starford/menuboard/internal/pagination"
)

// Family is the structural layout selected by a template id prefix.
type Family string

// Template families.
const (
	FamilyList      Family = "T1"
	FamilyPhotoList Family = "T2"
	FamilyGrid      Family = "T3"
)

// TemplateID is a parsed template identifier such as "T2B".
type TemplateID struct {
	Family  Family
	Variant pagination.Variant
}

func (id TemplateID) String() string {
	return string(id.Family) + string(id.Variant)
}

// ParseTemplateID splits an id into family and variant. The variant defaults
// to A.
func ParseTemplateID(s string) (TemplateID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 || len(s) > 3 {
		return TemplateID{}, fmt.Errorf("menutemplate: invalid template id %q", s)
	}
	id := TemplateID{Family: Family(s[:2]), Variant: pagination.VariantA}
	switch id.Family {
	case FamilyList, FamilyPhotoList, FamilyGrid:
	default:
		return TemplateID{}, fmt.Errorf("menutemplate: unknown template family %q", s[:2])
	}
	if len(s) == 3 {
		id.Variant = pagination.Variant(s[2:])
		switch id.Variant {
		case pagination.VariantA, pagination.VariantB, pagination.VariantC:
		default:
			return TemplateID{}, fmt.Errorf("menutemplate: unknown variant %q", s[2:])
		}
	}
	return id, nil
}

// DisplayName returns a human label such as "Photo + List · B".
func (id TemplateID) DisplayName(lang string) string {
	var base string
	switch id.Family {
	case FamilyList:
		base = pick(lang, "리스트형", "List")
	case FamilyPhotoList:
		base = pick(lang, "사진 + 리스트", "Photo + List")
	default:
		base = pick(lang, "그리드형", "Grid")
	}
	return base + " · " + string(id.Variant)
}

// Row is one menu line or grid cell. Price is free text.
type Row struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Style carries the visual parameters shared by every family.
type Style struct {
	FontFamily       string  `json:"fontFamily"`
	TextColor        string  `json:"textColor"`
	AccentColor      string  `json:"accentColor"`
	LineSpacing      float64 `json:"lineSpacing"`
	RowGap           float64 `json:"rowGap"`
	ForceTwoDecimals bool    `json:"forceTwoDecimals"`
}

// ListPayload is the T1 payload.
type ListPayload struct {
	Rows []Row `json:"rows"`
}

// PhotoListPayload is the T2 payload. Photos has a fixed number of slots;
// PhotoSrc mirrors the first filled slot for older readers.
type PhotoListPayload struct {
	Rows     []Row                         `json:"rows"`
	Photos   [pagination.MaxPhotos]*string `json:"photos"`
	PhotoSrc *string                       `json:"photoSrc"`
	Caption  string                        `json:"caption"`
}

// GridPayload is the T3 payload.
type GridPayload struct {
	Cells   []Row `json:"cells"`
	Columns int   `json:"columns"`
}

// Document is a normalised template document. Exactly one of List,
// PhotoList and Grid is set, matching Template.Family.
type Document struct {
	Template       TemplateID `json:"-"`
	Lang           string     `json:"-"`
	RestaurantName string     `json:"restaurantName"`
	LogoSrc        *string    `json:"logoSrc"`
	Title          string     `json:"title"`
	Currency       string     `json:"currency"`
	Style          Style      `json:"style"`

	List      *ListPayload      `json:"-"`
	PhotoList *PhotoListPayload `json:"-"`
	Grid      *GridPayload      `json:"-"`
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.LogoSrc = clonePtr(d.LogoSrc)
	if d.List != nil {
		l := ListPayload{Rows: cloneRows(d.List.Rows)}
		c.List = &l
	}
	if d.PhotoList != nil {
		p := *d.PhotoList
		p.Rows = cloneRows(d.PhotoList.Rows)
		for i := range p.Photos {
			p.Photos[i] = clonePtr(d.PhotoList.Photos[i])
		}
		p.PhotoSrc = clonePtr(d.PhotoList.PhotoSrc)
		c.PhotoList = &p
	}
	if d.Grid != nil {
		g := GridPayload{Cells: cloneRows(d.Grid.Cells), Columns: d.Grid.Columns}
		c.Grid = &g
	}
	return &c
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func pick(lang, ko, en string) string {
	if lang == "ko" {
		return ko
	}
	return en
}
