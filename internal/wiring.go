package internal

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/f2023065371-lang/fazal-portfolio/internal/directory"
	"github.com/f2023065371-lang/fazal-portfolio/internal/docservice"
	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/index"
	"github.com/f2023065371-lang/fazal-portfolio/internal/render"
	"github.com/f2023065371-lang/fazal-portfolio/internal/session"
	"github.com/f2023065371-lang/fazal-portfolio/internal/storage"
)

// newApplication applies options and fills defaults.
func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", stdout: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.loader == nil {
		app.loader = render.NewPDFLoader(app.config.PDFOptions())
	}
	return app, nil
}

// newLogger builds the JSON logger used by every command.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// services are the components shared by the serve, render and mcp commands.
type services struct {
	dir   *directory.Directory
	docs  *docservice.Service
	store *storage.FS
	db    *index.DB
}

func (s *services) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// newServices opens the directory, the optional archive and the document
// service. events may be nil.
func newServices(app *application, logger *slog.Logger, events docservice.EventFunc) (*services, error) {
	cfg := app.config

	dir, err := directory.New(cfg.Directory.Entries()...)
	if err != nil {
		return nil, fmt.Errorf("init directory: %w", err)
	}

	svc := &services{dir: dir}
	opts := []docservice.Option{docservice.WithLogger(logger)}
	if events != nil {
		opts = append(opts, docservice.WithEvents(events))
	}

	if cfg.Archive.Enabled {
		store, err := storage.NewFS(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		db, err := index.Open(cfg.Archive.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		if err := index.Sync(db, store, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		svc.store, svc.db = store, db
		opts = append(opts, docservice.WithArchive(store, db))
	}

	svc.docs = docservice.New(app.loader, cfg.LayoutIssuer(), opts...)
	return svc, nil
}

// newSessionManager creates the session store. An empty secret is replaced
// by a random per-process key.
func newSessionManager(cfg *Config) (*session.Manager, error) {
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}

	var draftOpts []document.DraftOption
	if cfg.Document.StrictNumbers {
		draftOpts = append(draftOpts, document.WithStrictNumbers())
	}
	taxRate := cfg.Document.TaxRate
	return session.NewManager(secret, cfg.Auth.SessionTTL, func() *document.Draft {
		return document.NewDraft(taxRate, draftOpts...)
	}), nil
}
