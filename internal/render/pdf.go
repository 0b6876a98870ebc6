package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/layout"
)

const (
	coreFamily = "Helvetica"
	utf8Family = "folio"
)

// PDFOptions configures the gofpdf renderer.
type PDFOptions struct {
	// FontPath optionally points to a UTF-8 TrueType font. When empty the
	// core Helvetica font with cp1252 translation is used.
	FontPath     string
	BoldFontPath string
	Creator      string
	Author       string
	// Now fixes the document creation date, mostly for tests.
	Now func() time.Time
}

// hyphens maps Unicode hyphens missing from cp1252 to ASCII.
var hyphens = strings.NewReplacer("\u2010", "-", "\u2011", "-")

// PDF renders pages with gofpdf.
type PDF struct {
	opts PDFOptions
	// uncompressed leaves content streams readable in tests.
	uncompressed bool
}

// NewPDFLoader returns a Loader that checks the configured fonts before
// handing out a PDF renderer.
func NewPDFLoader(opts PDFOptions) Loader {
	return func() (Renderer, error) {
		return NewPDF(opts)
	}
}

// NewPDF validates opts and returns a renderer.
func NewPDF(opts PDFOptions) (*PDF, error) {
	for _, p := range []string{opts.FontPath, opts.BoldFontPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: font %s cannot be loaded (install it or unset render.font_path): %v",
				apperr.ErrRendererUnavailable, p, err)
		}
	}
	if opts.BoldFontPath != "" && opts.FontPath == "" {
		return nil, fmt.Errorf("%w: render.bold_font_path requires render.font_path", apperr.ErrRendererUnavailable)
	}
	if opts.FontPath != "" {
		if err := addFonts(gofpdf.New("P", "pt", "A4", ""), opts); err != nil {
			return nil, fmt.Errorf("%w: font %s cannot be loaded: %v",
				apperr.ErrRendererUnavailable, opts.FontPath, err)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PDF{opts: opts}, nil
}

// addFonts registers the regular and bold TrueType fonts. Each file is
// loaded from its own directory since gofpdf joins names onto the font
// location. gofpdf panics on truncated font files.
func addFonts(pdf *gofpdf.Fpdf, opts PDFOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse font: %v", r)
		}
	}()
	bold := opts.BoldFontPath
	if bold == "" {
		bold = opts.FontPath
	}
	for _, f := range []struct{ style, path string }{{"", opts.FontPath}, {"B", bold}} {
		pdf.SetFontLocation(filepath.Dir(f.path))
		pdf.AddUTF8Font(utf8Family, f.style, filepath.Base(f.path))
	}
	return pdf.Error()
}

// ContentType implements Renderer.
func (p *PDF) ContentType() string { return "application/pdf" }

// Render implements Renderer.
func (p *PDF) Render(page layout.Page, w io.Writer) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	if p.uncompressed {
		pdf.SetCompression(false)
	}
	pdf.SetCreationDate(p.opts.Now())
	pdf.SetTitle(page.Title, true)
	if p.opts.Creator != "" {
		pdf.SetCreator(p.opts.Creator, true)
	}
	if p.opts.Author != "" {
		pdf.SetAuthor(p.opts.Author, true)
	}

	family := coreFamily
	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string { return cp1252(hyphens.Replace(s)) }
	if p.opts.FontPath != "" {
		family = utf8Family
		tr = func(s string) string { return s }
		if err := addFonts(pdf, p.opts); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrRendererUnavailable, err)
		}
	}

	pdf.AddPage()
	for _, b := range page.Blocks {
		drawBlock(pdf, family, tr, b)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render: encode pdf: %w", err)
	}
	if buf.Len() == 0 {
		return errors.New("render: empty pdf output")
	}
	_, err := buf.WriteTo(w)
	return err
}

func drawBlock(pdf *gofpdf.Fpdf, family string, tr func(string) string, b layout.Block) {
	style := ""
	if b.Style.Bold {
		style = "B"
	}
	pdf.SetFont(family, style, b.Style.Size)
	pdf.SetTextColor(b.Style.Gray, b.Style.Gray, b.Style.Gray)

	transformed := b.Style.Angle != 0 || b.Style.Opacity > 0
	if transformed {
		pdf.TransformBegin()
		if b.Style.Opacity > 0 {
			pdf.SetAlpha(b.Style.Opacity, "Normal")
		}
		if b.Style.Angle != 0 {
			pdf.TransformRotate(b.Style.Angle, b.X, b.Y)
		}
	}
	pdf.Text(b.X, b.Y, tr(b.Text))
	if transformed {
		if b.Style.Opacity > 0 {
			pdf.SetAlpha(1, "Normal")
		}
		pdf.TransformEnd()
	}
}
