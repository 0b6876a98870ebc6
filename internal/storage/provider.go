// Package storage defines the document archive file-system abstraction.
package storage

import "github.com/f2023065371-lang/fazal-portfolio/internal/models"

// Provider is the interface for archive file operations. Names are plain
// file names; the archive is flat.
type Provider interface {
	// List returns metadata for every .pdf file in the archive.
	List() ([]models.FileMetadata, error)
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Write atomically stores content under name.
	Write(name string, content []byte) error
	// Delete removes the named file.
	Delete(name string) error
}
