// Package render encodes a layout.Page into a document file.
package render

import (
	"io"

	"github.com/f2023065371-lang/fazal-portfolio/internal/layout"
)

// Renderer writes a composed page in some document format.
type Renderer interface {
	// Render encodes page into w. Implementations must not write to w
	// unless encoding has fully succeeded.
	Render(page layout.Page, w io.Writer) error
	// ContentType is the MIME type of the produced file.
	ContentType() string
}

// Loader initialises a Renderer. It is called for every render so that a
// failed initialisation can be retried once the environment is fixed.
type Loader func() (Renderer, error)

// Static returns a Loader that always yields r.
func Static(r Renderer) Loader {
	return func() (Renderer, error) { return r, nil }
}

// Unavailable returns a Loader that always fails with err.
func Unavailable(err error) Loader {
	return func() (Renderer, error) { return nil, err }
}
