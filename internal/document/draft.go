// Package document holds the editable state of an Invoice/Quotation draft
// and derives its totals.
package document

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// Recipient fields accepted by UpdateRecipient.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldAddress = "address"
)

// Item fields accepted by UpdateItem. FieldUnitPriceJSON is the spelling
// used in JSON responses and draft files.
const (
	FieldDescription   = "description"
	FieldQuantity      = "quantity"
	FieldUnitPrice     = "unitPrice"
	FieldUnitPriceJSON = "unit_price"
)

// BlankItem is the row appended by AddItem and present in every new draft.
var BlankItem = models.LineItem{Description: "", Quantity: 1, UnitPrice: 0}

// Snapshot is an immutable copy of a draft with freshly computed totals.
type Snapshot struct {
	Kind      models.Kind       `json:"kind"`
	Recipient models.Recipient  `json:"recipient"`
	Items     []models.LineItem `json:"items"`
	Totals    models.Totals     `json:"totals"`
}

// Draft is the builder state of one operator. It is safe for concurrent use.
type Draft struct {
	mu        sync.Mutex
	taxRate   float64
	strict    bool
	kind      models.Kind
	recipient models.Recipient
	items     []models.LineItem
}

// DraftOption configures a Draft.
type DraftOption func(*Draft)

// WithStrictNumbers makes UpdateItem reject non-numeric or negative input
// instead of coercing it to zero.
func WithStrictNumbers() DraftOption {
	return func(d *Draft) { d.strict = true }
}

// NewDraft returns an Invoice draft with one blank item.
func NewDraft(taxRate float64, opts ...DraftOption) *Draft {
	d := &Draft{
		taxRate: taxRate,
		kind:    models.KindInvoice,
		items:   []models.LineItem{BlankItem},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetKind re-labels the draft. Entered data is kept.
func (d *Draft) SetKind(kind models.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidKind, kind)
	}
	d.mu.Lock()
	d.kind = kind
	d.mu.Unlock()
	return nil
}

// UpdateRecipient assigns one recipient field. Values are not validated.
func (d *Draft) UpdateRecipient(field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch field {
	case FieldName:
		d.recipient.Name = value
	case FieldPhone:
		d.recipient.Phone = value
	case FieldEmail:
		d.recipient.Email = value
	case FieldAddress:
		d.recipient.Address = value
	default:
		return fmt.Errorf("%w: recipient %q", apperr.ErrInvalidField, field)
	}
	return nil
}

// AddItem appends one blank item and returns its index.
func (d *Draft) AddItem() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, BlankItem)
	return len(d.items) - 1
}

// UpdateItem replaces a single field of the item at index. The item list is
// rebuilt so snapshots handed out earlier never observe the change.
func (d *Draft) UpdateItem(index int, field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.items) {
		return fmt.Errorf("%w: %d", apperr.ErrItemIndex, index)
	}

	if field == FieldUnitPriceJSON {
		field = FieldUnitPrice
	}
	item := d.items[index]
	switch field {
	case FieldDescription:
		item.Description = value
	case FieldQuantity, FieldUnitPrice:
		n, err := d.number(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if field == FieldQuantity {
			item.Quantity = n
		} else {
			item.UnitPrice = n
		}
	default:
		return fmt.Errorf("%w: item %q", apperr.ErrInvalidField, field)
	}

	items := make([]models.LineItem, len(d.items))
	copy(items, d.items)
	items[index] = item
	d.items = items
	return nil
}

// Kind returns the current document kind.
func (d *Draft) Kind() models.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kind
}

// Totals recomputes subtotal, tax and total from the current items.
func (d *Draft) Totals() models.Totals {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ComputeTotals(d.items, d.taxRate)
}

// Snapshot returns a copy of the draft state.
func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := make([]models.LineItem, len(d.items))
	copy(items, d.items)
	return Snapshot{
		Kind:      d.kind,
		Recipient: d.recipient,
		Items:     items,
		Totals:    ComputeTotals(items, d.taxRate),
	}
}

func (d *Draft) number(raw string) (float64, error) {
	if !d.strict {
		return ParseNumber(raw), nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidNumber, raw)
	}
	return n, nil
}

// ComputeTotals sums item amounts and applies the tax rate. Tax is rounded
// to a whole currency unit.
func ComputeTotals(items []models.LineItem, taxRate float64) models.Totals {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Amount()
	}
	tax := math.Round(subtotal * taxRate)
	return models.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// ParseNumber coerces free-text input into a non-negative number. Anything
// that does not parse becomes 0.
func ParseNumber(raw string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Filename returns the download name of a rendered document.
func Filename(kind models.Kind, at time.Time) string {
	return fmt.Sprintf("%s_%d.pdf", whitespaceRe.ReplaceAllString(string(kind), "_"), at.UnixMilli())
}
