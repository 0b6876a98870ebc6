package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Filename  string      `json:"filename"`
	Kind      models.Kind `json:"kind"`
	Recipient string      `json:"recipient"`
	Snippet   string      `json:"snippet"`
}

const selectColumns = `filename, kind, issued_by, recipient, total, checksum, created_at`

// UpsertDocument inserts or replaces a document row and its FTS entry
// within a transaction.
func (db *DB) UpsertDocument(rec models.DocumentRecord, descriptions []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	body := strings.Join(descriptions, "\n")
	_, err = tx.Exec(`
		INSERT INTO documents (filename, kind, issued_by, recipient, descriptions, total, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			kind         = excluded.kind,
			issued_by    = excluded.issued_by,
			recipient    = excluded.recipient,
			descriptions = excluded.descriptions,
			total        = excluded.total,
			checksum     = excluded.checksum,
			created_at   = excluded.created_at
	`, rec.Filename, string(rec.Kind), rec.IssuedBy, rec.Recipient, body, rec.Total, rec.Checksum, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// No-op when the FTS5 tag is absent.
	if err := ftsUpsert(tx, rec.Filename, rec.IssuedBy, rec.Recipient, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(filename string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, filename)
	if _, err := tx.Exec(`DELETE FROM documents WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// SetChecksum refreshes the checksum of an existing row.
func (db *DB) SetChecksum(filename, cs string) error {
	if _, err := db.conn.Exec(`UPDATE documents SET checksum = ? WHERE filename = ?`, cs, filename); err != nil {
		return fmt.Errorf("index: set checksum: %w", err)
	}
	return nil
}

// GetDocument returns one row, or apperr.ErrNotFound.
func (db *DB) GetDocument(filename string) (*models.DocumentRecord, error) {
	row := db.conn.QueryRow(`SELECT `+selectColumns+` FROM documents WHERE filename = ?`, filename)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return rec, nil
}

// ListDocuments returns a page of documents, newest first, together with
// the total number of matching rows. An empty kind matches every kind.
func (db *DB) ListDocuments(limit, offset int, kind models.Kind) ([]models.DocumentRecord, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	var args []any
	if kind != "" {
		where = ` WHERE kind = ?`
		args = append(args, string(kind))
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+selectColumns+` FROM documents`+where+
		` ORDER BY created_at DESC, filename DESC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	out := []models.DocumentRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rec)
	}
	return out, total, rows.Err()
}

// AllChecksums returns filename → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT filename, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	var kind string
	if err := s.Scan(&rec.Filename, &kind, &rec.IssuedBy, &rec.Recipient, &rec.Total, &rec.Checksum, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Kind = models.Kind(kind)
	return &rec, nil
}
