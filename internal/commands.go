package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/f2023065371-lang/fazal-portfolio/internal/draft"
	"github.com/f2023065371-lang/fazal-portfolio/internal/mcpserver"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
	"github.com/f2023065371-lang/fazal-portfolio/internal/storage"
)

// RenderRequest describes a one-shot render from a draft file.
type RenderRequest struct {
	// DraftPath is the YAML draft to render.
	DraftPath string
	// Out is a directory (the generated filename is used) or a file path.
	// Empty means the current directory.
	Out string
	// Username selects the "Issued By" contact from the directory.
	Username string
}

// RenderFile renders a draft file to disk and returns the written path.
// Documents are also archived when the archive is enabled.
func RenderFile(ctx context.Context, req RenderRequest, opts ...Option) (string, error) {
	app, err := newApplication(opts)
	if err != nil {
		return "", err
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	data, err := os.ReadFile(req.DraftPath)
	if err != nil {
		return "", fmt.Errorf("read draft: %w", err)
	}
	d, err := draft.Parse(data, cfg.Document.DraftOptions())
	if err != nil {
		return "", fmt.Errorf("parse draft %s: %w", req.DraftPath, err)
	}

	svc, err := newServices(app, logger, nil)
	if err != nil {
		return "", err
	}
	defer svc.Close()

	var issuedBy *models.Contact
	if req.Username != "" {
		c, ok := svc.dir.Lookup(req.Username)
		if !ok {
			return "", fmt.Errorf("unknown user %q", req.Username)
		}
		issuedBy = &c
	}

	out, err := svc.docs.RenderDraft(ctx, issuedBy, d)
	if err != nil {
		return "", err
	}

	path, err := outputPath(req.Out, out.Filename)
	if err != nil {
		return "", err
	}
	if err := storage.WriteFile(path, out.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	_, _ = fmt.Fprintln(app.stdout, path)
	return path, nil
}

func outputPath(out, filename string) (string, error) {
	if out == "" {
		return filename, nil
	}
	info, err := os.Stat(out)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(out, filename), nil
	case err == nil, errors.Is(err, os.ErrNotExist):
		return out, nil
	default:
		return "", fmt.Errorf("stat %s: %w", out, err)
	}
}

// ServeMCP runs the MCP server on stdio. Logs go to stderr because stdout
// carries the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	svc, err := newServices(app, logger, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Info("Starting MCP server", slog.String("version", app.version))
	srv := mcpserver.New(svc.docs, svc.dir, cfg.Document.DraftOptions(), app.version)
	return srv.ServeStdio()
}
