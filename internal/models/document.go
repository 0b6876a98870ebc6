// Package models defines the domain types shared across folio packages.
package models

import "time"

// Kind is the type of billable document.
type Kind string

const (
	KindInvoice   Kind = "Invoice"
	KindQuotation Kind = "Quotation"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	return k == KindInvoice || k == KindQuotation
}

// Contact is the contact block attached to a directory entry.
type Contact struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

// Recipient is the "Bill To" profile of a document. All fields are optional.
type Recipient struct {
	Name    string `json:"name" yaml:"name"`
	Phone   string `json:"phone" yaml:"phone"`
	Email   string `json:"email" yaml:"email"`
	Address string `json:"address" yaml:"address"`
}

// Fields returns the non-blank recipient fields in render order.
func (r Recipient) Fields() []string {
	var out []string
	for _, v := range []string{r.Name, r.Phone, r.Email, r.Address} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LineItem is one row of a billable document.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Amount is quantity times unit price. It is never stored.
func (li LineItem) Amount() float64 {
	return li.Quantity * li.UnitPrice
}

// Totals are derived from a list of line items.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// DocumentRecord describes an archived rendered document.
type DocumentRecord struct {
	Filename  string    `json:"filename"`
	Kind      Kind      `json:"kind"`
	IssuedBy  string    `json:"issued_by"`
	Recipient string    `json:"recipient"`
	Total     float64   `json:"total"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// FileMetadata is a lightweight representation of a stored file.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
