//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			filename UNINDEXED,
			issued_by,
			recipient,
			descriptions,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, filename, issuedBy, recipient, descriptions string) error {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE filename = ?`, filename)
	_, err := tx.Exec(`INSERT INTO documents_fts (filename, issued_by, recipient, descriptions) VALUES (?, ?, ?, ?)`,
		filename, issuedBy, recipient, descriptions)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, filename string) {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE filename = ?`, filename)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT documents_fts.filename,
		       d.kind,
		       d.recipient,
		       snippet(documents_fts, 3, '<b>', '</b>', '...', 32)
		FROM documents_fts
		JOIN documents d ON d.filename = documents_fts.filename
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
