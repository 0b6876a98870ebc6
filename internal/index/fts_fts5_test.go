//go:build sqlite_fts5

package index

import (
	"testing"
	"time"

	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count); err != nil {
		t.Fatalf("documents_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	rec := record("Invoice_1.pdf", models.KindInvoice, time.Now())
	if err := db.UpsertDocument(rec, []string{"Responsive portfolio website redesign"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	results, err := db.Search("portfolio", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Filename != "Invoice_1.pdf" || results[0].Kind != models.KindInvoice {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(record("Invoice_2.pdf", models.KindInvoice, time.Now()), []string{"vanishing content"})
	_ = db.DeleteDocument("Invoice_2.pdf")

	results, _ := db.Search("vanishing", 10)
	if len(results) != 0 {
		t.Errorf("deleted document still in FTS index: %+v", results)
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	rec := record("Invoice_3.pdf", models.KindInvoice, time.Now())
	_ = db.UpsertDocument(rec, []string{"original text"})
	_ = db.UpsertDocument(rec, []string{"replacement text"})

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 {
		t.Errorf("FTS not updated: %+v", results)
	}
}
