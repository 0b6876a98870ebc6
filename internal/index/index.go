package index

import "github.com/f2023065371-lang/fazal-portfolio/internal/models"

// DocumentIndex defines the interface for archive catalogue operations.
// Consumers depend on this interface rather than the concrete *DB type.
type DocumentIndex interface {
	UpsertDocument(rec models.DocumentRecord, descriptions []string) error
	DeleteDocument(filename string) error
	GetDocument(filename string) (*models.DocumentRecord, error)
	ListDocuments(limit, offset int, kind models.Kind) ([]models.DocumentRecord, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
