package docservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/layout"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
	"github.com/f2023065371-lang/fazal-portfolio/internal/render"
	"github.com/f2023065371-lang/fazal-portfolio/internal/session"
	"github.com/f2023065371-lang/fazal-portfolio/internal/testutil"
)

// textRenderer writes one line per block so tests can inspect the layout.
type textRenderer struct{}

func (textRenderer) Render(page layout.Page, w io.Writer) error {
	for _, b := range page.Blocks {
		if _, err := fmt.Fprintf(w, "%s|%s\n", b.Role, b.Text); err != nil {
			return err
		}
	}
	return nil
}

func (textRenderer) ContentType() string { return "text/plain" }

type failingRenderer struct{}

func (failingRenderer) Render(layout.Page, io.Writer) error { return errors.New("boom") }
func (failingRenderer) ContentType() string                 { return "application/pdf" }

var (
	fixedTime = time.UnixMilli(1714564800123)
	saqib     = models.Contact{Name: "Saqib", Phone: "+92 3xx xxxxxxx", Email: "saqib@example.com"}
	issuer    = layout.Issuer{Name: "Fazal Raheem", Footer: "Thank you!"}
)

func quotationDraft(t *testing.T) *document.Draft {
	t.Helper()
	d := document.NewDraft(0)
	require.NoError(t, d.SetKind(models.KindQuotation))
	require.NoError(t, d.UpdateRecipient(document.FieldName, "Acme Co"))
	require.NoError(t, d.UpdateItem(0, document.FieldDescription, "Design"))
	require.NoError(t, d.UpdateItem(0, document.FieldQuantity, "2"))
	require.NoError(t, d.UpdateItem(0, document.FieldUnitPrice, "100"))
	return d
}

func TestRender_Workspace(t *testing.T) {
	var events []string
	svc := New(render.Static(textRenderer{}), issuer,
		WithClock(func() time.Time { return fixedTime }),
		WithEvents(func(kind, name string) { events = append(events, kind+":"+name) }))

	ws := &session.Workspace{Contact: saqib, Draft: quotationDraft(t)}
	out, err := svc.Render(context.Background(), ws)
	require.NoError(t, err)

	assert.Equal(t, "Quotation_1714564800123.pdf", out.Filename)
	assert.Equal(t, models.KindQuotation, out.Kind)
	assert.Equal(t, 200.0, out.Totals.Total)
	assert.False(t, out.Archived)
	assert.Contains(t, string(out.Data), "issued_by|Saqib\n")
	assert.Contains(t, string(out.Data), "bill_to|Acme Co\n")
	assert.NotEmpty(t, out.Checksum)
	assert.Equal(t, []string{"rendered:Quotation_1714564800123.pdf"}, events)
}

func TestRenderDraft_WithoutIssuer(t *testing.T) {
	svc := New(render.Static(textRenderer{}), issuer)
	out, err := svc.RenderDraft(context.Background(), nil, document.NewDraft(0))
	require.NoError(t, err)
	assert.NotContains(t, string(out.Data), "issued_by|")
	assert.Contains(t, string(out.Data), "title|Invoice\n")
}

func TestRender_RendererUnavailable(t *testing.T) {
	store, db := testutil.TestArchive(t)
	svc := New(render.Unavailable(errors.New("font missing")), issuer, WithArchive(store, db))

	d := quotationDraft(t)
	before := d.Snapshot()

	_, err := svc.RenderDraft(context.Background(), &saqib, d)
	require.ErrorIs(t, err, apperr.ErrRendererUnavailable)
	assert.Equal(t, before, d.Snapshot())

	files, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRender_EncodeFailureProducesNothing(t *testing.T) {
	store, db := testutil.TestArchive(t)
	called := false
	svc := New(render.Static(failingRenderer{}), issuer, WithArchive(store, db),
		WithEvents(func(string, string) { called = true }))

	_, err := svc.RenderDraft(context.Background(), &saqib, quotationDraft(t))
	require.Error(t, err)
	assert.False(t, called)
	files, _ := store.List()
	assert.Empty(t, files)
}

func TestRender_CancelledContext(t *testing.T) {
	svc := New(render.Static(textRenderer{}), issuer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.RenderDraft(ctx, nil, document.NewDraft(0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArchive_RoundTrip(t *testing.T) {
	store, db := testutil.TestArchive(t)
	svc := New(render.Static(textRenderer{}), issuer, WithArchive(store, db),
		WithClock(func() time.Time { return fixedTime }))
	ctx := context.Background()

	out, err := svc.RenderDraft(ctx, &saqib, quotationDraft(t))
	require.NoError(t, err)
	require.True(t, out.Archived)

	list, total, err := svc.ListDocuments(ctx, 10, 0, "")
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, out.Filename, list[0].Filename)
	assert.Equal(t, "Saqib", list[0].IssuedBy)
	assert.Equal(t, "Acme Co", list[0].Recipient)
	assert.Equal(t, 200.0, list[0].Total)

	hits, err := svc.Search(ctx, "Design", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, out.Filename, hits[0].Filename)

	data, rec, err := svc.ReadDocument(ctx, out.Filename)
	require.NoError(t, err)
	assert.Equal(t, out.Data, data)
	assert.Equal(t, out.Checksum, rec.Checksum)

	_, _, err = svc.ReadDocument(ctx, "../index.db")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, _, err = svc.ReadDocument(ctx, "Invoice_1.pdf")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestArchive_SameMillisecondKeepsBoth(t *testing.T) {
	store, db := testutil.TestArchive(t)
	svc := New(render.Static(textRenderer{}), issuer, WithArchive(store, db),
		WithClock(func() time.Time { return fixedTime }))
	ctx := context.Background()

	first, err := svc.RenderDraft(ctx, &saqib, quotationDraft(t))
	require.NoError(t, err)
	other := quotationDraft(t)
	require.NoError(t, other.UpdateRecipient(document.FieldName, "Globex"))
	second, err := svc.RenderDraft(ctx, &saqib, other)
	require.NoError(t, err)

	require.True(t, first.Archived)
	require.True(t, second.Archived)
	assert.Equal(t, "Quotation_1714564800123.pdf", first.Filename)
	assert.Equal(t, "Quotation_1714564800124.pdf", second.Filename)
	assert.Equal(t, fixedTime.Add(time.Millisecond).UTC(), second.CreatedAt)

	_, total, err := svc.ListDocuments(ctx, 10, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	for _, out := range []*Rendered{first, second} {
		data, rec, err := svc.ReadDocument(ctx, out.Filename)
		require.NoError(t, err)
		assert.Equal(t, out.Data, data)
		assert.Equal(t, out.Checksum, rec.Checksum)
	}
}

func TestArchive_Disabled(t *testing.T) {
	svc := New(render.Static(textRenderer{}), issuer)
	ctx := context.Background()

	_, _, err := svc.ListDocuments(ctx, 10, 0, "")
	assert.ErrorIs(t, err, ErrArchiveDisabled)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Search(ctx, "x", 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, _, err = svc.ReadDocument(ctx, "Invoice_1.pdf")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
