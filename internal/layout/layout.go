// Package layout turns a document snapshot into a fixed-coordinate page
// description. It knows nothing about the output format.
package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// A4 page size in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Style describes how a block is drawn.
type Style struct {
	Size    float64 // font size, pt
	Bold    bool
	Gray    int     // 0 (black) .. 255 (white)
	Opacity float64 // 0 means fully opaque
	Angle   float64 // counter-clockwise rotation in degrees around (X, Y)
}

// Block is one piece of text placed at an absolute baseline position.
type Block struct {
	Role  string
	Text  string
	X, Y  float64
	Style Style
}

// Page is an ordered list of blocks on a single page.
type Page struct {
	Width, Height float64
	Title         string
	Blocks        []Block
}

// Block roles.
const (
	RoleWatermark = "watermark"
	RoleTitle     = "title"
	RoleIssuer    = "issuer"
	RoleIssuedBy  = "issued_by"
	RoleBillTo    = "bill_to"
	RoleHeader    = "table_header"
	RoleRow       = "table_row"
	RoleTotals    = "totals"
	RoleFooter    = "footer"
)

// Issuer is the owner of the site, printed top-left and as the watermark.
type Issuer struct {
	Name      string
	Lines     []string
	Watermark string
	Footer    string
}

// WatermarkText returns the configured watermark or the upper-cased name.
func (i Issuer) WatermarkText() string {
	if i.Watermark != "" {
		return i.Watermark
	}
	return strings.ToUpper(i.Name)
}

// Input is everything Compose needs.
type Input struct {
	Issuer   Issuer
	IssuedBy *models.Contact
	Draft    document.Snapshot
}

// Column x positions of the item table.
const (
	colDescription = 40
	colQty         = 360
	colPrice       = 420
	colAmount      = 500
)

var (
	bodyStyle  = Style{Size: 12, Gray: 30}
	boldStyle  = Style{Size: 12, Gray: 30, Bold: true}
	titleStyle = Style{Size: 22, Gray: 30, Bold: true}
)

// Compose lays out the document.
func Compose(in Input) Page {
	p := Page{Width: A4Width, Height: A4Height, Title: string(in.Draft.Kind)}
	add := func(role, text string, x, y float64, st Style) {
		p.Blocks = append(p.Blocks, Block{Role: role, Text: text, X: x, Y: y, Style: st})
	}

	if wm := in.Issuer.WatermarkText(); wm != "" {
		add(RoleWatermark, wm, 70, 400, Style{Size: 60, Gray: 230, Opacity: 0.2, Angle: 30})
	}

	add(RoleTitle, string(in.Draft.Kind), 40, 60, titleStyle)

	for i, line := range in.Issuer.Lines {
		add(RoleIssuer, line, 40, 90+float64(i)*16, bodyStyle)
	}

	if c := in.IssuedBy; c != nil {
		add(RoleIssuedBy, "Issued By:", 380, 60, boldStyle)
		add(RoleIssuedBy, c.Name, 380, 78, bodyStyle)
		add(RoleIssuedBy, c.Phone, 380, 94, bodyStyle)
		add(RoleIssuedBy, c.Email, 380, 110, bodyStyle)
	}

	add(RoleBillTo, "Bill To:", 40, 160, boldStyle)
	for i, f := range in.Draft.Recipient.Fields() {
		add(RoleBillTo, f, 40, 178+float64(i)*16, bodyStyle)
	}

	const startY = 240
	add(RoleHeader, "Description", colDescription, startY, boldStyle)
	add(RoleHeader, "Qty", colQty, startY, boldStyle)
	add(RoleHeader, "Price", colPrice, startY, boldStyle)
	add(RoleHeader, "Amount", colAmount, startY, boldStyle)

	y := float64(startY + 18)
	for i, it := range in.Draft.Items {
		desc := it.Description
		if desc == "" {
			desc = fmt.Sprintf("Item %d", i+1)
		}
		add(RoleRow, desc, colDescription, y, bodyStyle)
		add(RoleRow, formatPlain(it.Quantity), colQty, y, bodyStyle)
		add(RoleRow, formatPlain(it.UnitPrice), colPrice, y, bodyStyle)
		add(RoleRow, formatMoney(it.Amount()), colAmount, y, bodyStyle)
		y += 18
	}

	t := in.Draft.Totals
	y += 10
	add(RoleTotals, "Subtotal:", colPrice, y, boldStyle)
	add(RoleTotals, formatMoney(t.Subtotal), colAmount, y, boldStyle)
	y += 16
	add(RoleTotals, "Tax:", colPrice, y, bodyStyle)
	add(RoleTotals, formatMoney(t.Tax), colAmount, y, bodyStyle)
	y += 16
	add(RoleTotals, "Total:", colPrice, y, boldStyle)
	add(RoleTotals, formatMoney(t.Total), colAmount, y, boldStyle)

	if in.Issuer.Footer != "" {
		add(RoleFooter, in.Issuer.Footer, 40, 790, Style{Size: 10, Gray: 30})
	}
	return p
}

// ByRole returns the blocks with the given role, in page order.
func (p Page) ByRole(role string) []Block {
	var out []Block
	for _, b := range p.Blocks {
		if b.Role == role {
			out = append(out, b)
		}
	}
	return out
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatPlain prints the shortest representation, e.g. 2, 2.5, 100.
func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
