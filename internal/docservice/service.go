// Package docservice turns builder drafts into downloadable documents and
// keeps the optional archive in step.
package docservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/checksum"
	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/index"
	"github.com/f2023065371-lang/fazal-portfolio/internal/layout"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
	"github.com/f2023065371-lang/fazal-portfolio/internal/render"
	"github.com/f2023065371-lang/fazal-portfolio/internal/session"
	"github.com/f2023065371-lang/fazal-portfolio/internal/storage"
)

// ErrArchiveDisabled is returned by archive operations when no archive is
// configured. It matches apperr.ErrNotFound.
var ErrArchiveDisabled = fmt.Errorf("archive disabled: %w", apperr.ErrNotFound)

// Rendered is a finished document ready for download.
type Rendered struct {
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Kind        models.Kind   `json:"kind"`
	Totals      models.Totals `json:"totals"`
	Checksum    string        `json:"checksum"`
	CreatedAt   time.Time     `json:"created_at"`
	Archived    bool          `json:"archived"`
	Data        []byte        `json:"-"`
}

// EventFunc receives document lifecycle notifications.
type EventFunc func(kind, filename string)

// Service coordinates layout, rendering, storage and index operations.
type Service struct {
	loader render.Loader
	issuer layout.Issuer
	store  storage.Provider
	db     index.DocumentIndex
	now    func() time.Time
	logger *slog.Logger
	events EventFunc

	// archiveMu serialises name allocation with the index upsert.
	archiveMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithArchive stores every rendered document in store and catalogues it in db.
func WithArchive(store storage.Provider, db index.DocumentIndex) Option {
	return func(s *Service) {
		s.store = store
		s.db = db
	}
}

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for best-effort archive failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents registers a callback for rendered documents.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.events = fn }
}

// New creates a document service.
func New(loader render.Loader, issuer layout.Issuer, opts ...Option) *Service {
	s := &Service{
		loader: loader,
		issuer: issuer,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Archived reports whether an archive is configured.
func (s *Service) Archived() bool {
	return s.store != nil && s.db != nil
}

// Render produces the document for a session workspace, issued by the
// workspace's contact.
func (s *Service) Render(ctx context.Context, ws *session.Workspace) (*Rendered, error) {
	contact := ws.Contact
	return s.RenderDraft(ctx, &contact, ws.Draft)
}

// RenderDraft produces the document for d. issuedBy may be nil, in which
// case the "Issued By" block is left out. The draft itself is never
// modified, and nothing is produced unless encoding succeeds.
func (s *Service) RenderDraft(ctx context.Context, issuedBy *models.Contact, d *document.Draft) (*Rendered, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := d.Snapshot()
	page := layout.Compose(layout.Input{Issuer: s.issuer, IssuedBy: issuedBy, Draft: snap})

	r, err := s.loader()
	if err != nil {
		if !errors.Is(err, apperr.ErrRendererUnavailable) {
			err = fmt.Errorf("%w: %v", apperr.ErrRendererUnavailable, err)
		}
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.Render(page, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", snap.Kind, err)
	}

	at := s.now()
	out := &Rendered{
		Filename:    document.Filename(snap.Kind, at),
		ContentType: r.ContentType(),
		Kind:        snap.Kind,
		Totals:      snap.Totals,
		Checksum:    checksum.Sum(buf.Bytes()),
		CreatedAt:   at.UTC(),
		Data:        buf.Bytes(),
	}

	if s.Archived() {
		s.archiveMu.Lock()
		out.Filename, out.CreatedAt = s.freeName(snap.Kind, at)
		out.Archived = s.archive(out, issuedBy, snap)
		s.archiveMu.Unlock()
	}
	if s.events != nil {
		s.events("rendered", out.Filename)
	}
	return out, nil
}

// freeName returns the first archive name at or after at that is not
// already catalogued. Names carry millisecond timestamps, so two renders of
// one kind within the same millisecond would otherwise overwrite each other.
func (s *Service) freeName(kind models.Kind, at time.Time) (string, time.Time) {
	for i := 0; i < maxNameAttempts; i++ {
		name := document.Filename(kind, at)
		_, err := s.db.GetDocument(name)
		if errors.Is(err, apperr.ErrNotFound) {
			return name, at.UTC()
		}
		if err != nil {
			s.logger.Warn("archive: name lookup failed", slog.String("file", name), slog.String("error", err.Error()))
			return name, at.UTC()
		}
		s.logger.Warn("archive: name taken, shifting timestamp", slog.String("file", name))
		at = at.Add(time.Millisecond)
	}
	return document.Filename(kind, at), at.UTC()
}

const maxNameAttempts = 1000

// archive stores a rendered document. The row is written before the file
// so the watcher sees a known checksum; failures only cost the archive copy.
func (s *Service) archive(out *Rendered, issuedBy *models.Contact, snap document.Snapshot) bool {
	rec := models.DocumentRecord{
		Filename:  out.Filename,
		Kind:      out.Kind,
		Recipient: snap.Recipient.Name,
		Total:     out.Totals.Total,
		Checksum:  out.Checksum,
		CreatedAt: out.CreatedAt,
	}
	if issuedBy != nil {
		rec.IssuedBy = issuedBy.Name
	}
	descriptions := make([]string, 0, len(snap.Items))
	for _, it := range snap.Items {
		if it.Description != "" {
			descriptions = append(descriptions, it.Description)
		}
	}

	if err := s.db.UpsertDocument(rec, descriptions); err != nil {
		s.logger.Warn("archive: index failed", slog.String("file", out.Filename), slog.String("error", err.Error()))
		return false
	}
	if err := s.store.Write(out.Filename, out.Data); err != nil {
		s.logger.Warn("archive: write failed", slog.String("file", out.Filename), slog.String("error", err.Error()))
		_ = s.db.DeleteDocument(out.Filename)
		return false
	}
	s.logger.Info("archive: stored", slog.String("file", out.Filename), slog.String("kind", string(out.Kind)))
	return true
}

// ListDocuments returns a page of archived documents.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, kind models.Kind) ([]models.DocumentRecord, int, error) {
	if !s.Archived() {
		return nil, 0, ErrArchiveDisabled
	}
	return s.db.ListDocuments(limit, offset, kind)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if !s.Archived() {
		return nil, ErrArchiveDisabled
	}
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// ReadDocument returns an archived file and its catalogue entry.
func (s *Service) ReadDocument(_ context.Context, filename string) ([]byte, *models.DocumentRecord, error) {
	if !s.Archived() {
		return nil, nil, ErrArchiveDisabled
	}
	data, err := s.store.Read(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidName) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, err
	}
	rec, err := s.db.GetDocument(filename)
	if errors.Is(err, apperr.ErrNotFound) {
		// On disk but not yet seen by the watcher.
		rec = &models.DocumentRecord{Filename: filename, Checksum: checksum.Sum(data)}
		if kind, at, ok := index.ParseFilename(filename); ok {
			rec.Kind, rec.CreatedAt = kind, at
		}
	} else if err != nil {
		return nil, nil, err
	}
	return data, rec, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
