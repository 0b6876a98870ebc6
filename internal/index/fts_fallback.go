//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the documents table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string) error {
	// Descriptions are already stored in the documents table.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT filename, kind, recipient, substr(descriptions, 1, 200)
		FROM documents
		WHERE filename LIKE ? OR issued_by LIKE ? OR recipient LIKE ? OR descriptions LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var kind string
		if err := rows.Scan(&r.Filename, &kind, &r.Recipient, &r.Snippet); err != nil {
			return nil, err
		}
		r.Kind = models.Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}
