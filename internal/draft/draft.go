// Package draft reads builder drafts from YAML files.
//
// A draft file looks like:
//
//	kind: Quotation
//	bill_to:
//	  name: Acme Co
//	items:
//	  - description: Design
//	    quantity: 2
//	    unit_price: 100
//
// Numeric values are kept as raw text and replayed through the builder, so
// a file is subject to the same coercion rules as interactive edits.
package draft

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// ErrEmpty is returned for a file with no YAML content.
var ErrEmpty = errors.New("draft: empty document")

// File is the on-disk shape of a draft.
type File struct {
	Kind   string           `yaml:"kind"`
	BillTo models.Recipient `yaml:"bill_to"`
	Items  []Item           `yaml:"items"`
}

// Item keeps quantity and unit price as the text written in the file.
type Item struct {
	Description string `yaml:"description"`
	Quantity    string `yaml:"quantity"`
	UnitPrice   string `yaml:"unit_price"`
}

// Options controls how a file is turned into a builder draft.
type Options struct {
	TaxRate float64
	Strict  bool
}

// Decode unmarshals a draft file without building it.
func Decode(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("draft: decode: %w", err)
	}
	return &f, nil
}

// Parse decodes data and replays it onto a fresh builder draft.
func Parse(data []byte, opts Options) (*document.Draft, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Build(opts)
}

// Build replays the file onto a fresh builder draft. A missing kind means
// Invoice; an empty item list keeps the builder's blank row.
func (f *File) Build(opts Options) (*document.Draft, error) {
	var dopts []document.DraftOption
	if opts.Strict {
		dopts = append(dopts, document.WithStrictNumbers())
	}
	d := document.NewDraft(opts.TaxRate, dopts...)

	if k := strings.TrimSpace(f.Kind); k != "" {
		if err := d.SetKind(models.Kind(k)); err != nil {
			return nil, err
		}
	}

	recipient := []struct{ field, value string }{
		{document.FieldName, f.BillTo.Name},
		{document.FieldPhone, f.BillTo.Phone},
		{document.FieldEmail, f.BillTo.Email},
		{document.FieldAddress, f.BillTo.Address},
	}
	for _, r := range recipient {
		if err := d.UpdateRecipient(r.field, r.value); err != nil {
			return nil, err
		}
	}

	for i, it := range f.Items {
		if i > 0 {
			d.AddItem()
		}
		if err := d.UpdateItem(i, document.FieldDescription, it.Description); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if it.Quantity != "" {
			if err := d.UpdateItem(i, document.FieldQuantity, it.Quantity); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
		}
		if it.UnitPrice != "" {
			if err := d.UpdateItem(i, document.FieldUnitPrice, it.UnitPrice); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
		}
	}
	return d, nil
}
