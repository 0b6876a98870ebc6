package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/f2023065371-lang/fazal-portfolio/internal/checksum"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// Ext is the only file extension the archive stores.
const Ext = ".pdf"

// ErrInvalidName is returned for names that are not plain .pdf file names.
var ErrInvalidName = errors.New("storage: invalid file name")

// FS implements Provider backed by a local directory.
type FS struct {
	root string // absolute path to archive directory
}

// NewFS creates a provider rooted at dir, creating it when missing.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute archive directory.
func (f *FS) Root() string { return f.root }

// IsDocument reports whether name looks like an archived document.
func IsDocument(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext) && !strings.HasPrefix(name, ".")
}

// safePath resolves name inside the archive root. Anything other than a
// plain .pdf file name is rejected, which also blocks traversal.
func (f *FS) safePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || !IsDocument(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	abs := filepath.Join(f.root, name)
	if filepath.Dir(abs) != f.root {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return abs, nil
}

// List returns metadata for every document in the archive root.
func (f *FS) List() ([]models.FileMetadata, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []models.FileMetadata
	for _, e := range entries {
		if e.IsDir() || !IsDocument(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, models.FileMetadata{
			Path:      e.Name(),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the raw bytes of an archived document.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically writes content. A reader never sees a partially
// written document.
func (f *FS) Write(name string, content []byte) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	return WriteFile(abs, content, 0o644)
}

// WriteFile writes content to path through a temp file in the same
// directory: tmp file → fsync → rename. On error the target is untouched.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".folio-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a document from the archive.
func (f *FS) Delete(name string) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}
