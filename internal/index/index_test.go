package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func record(name string, kind models.Kind, at time.Time) models.DocumentRecord {
	return models.DocumentRecord{
		Filename:  name,
		Kind:      kind,
		IssuedBy:  "Saqib",
		Recipient: "Acme Co",
		Total:     250,
		Checksum:  "cs-" + name,
		CreatedAt: at,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	at := time.UnixMilli(1714564800000).UTC()
	if err := db.UpsertDocument(record("Invoice_1714564800000.pdf", models.KindInvoice, at), []string{"Design"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	got, err := db.GetDocument("Invoice_1714564800000.pdf")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Kind != models.KindInvoice || got.IssuedBy != "Saqib" || got.Total != 250 {
		t.Errorf("record = %+v", got)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, at)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDocument("missing.pdf"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	rec := record("Invoice_1.pdf", models.KindInvoice, time.Now())
	_ = db.UpsertDocument(rec, []string{"old"})
	rec.Checksum = "2"
	rec.Recipient = "Globex"
	_ = db.UpsertDocument(rec, []string{"new"})

	checksums, _ := db.AllChecksums()
	if checksums["Invoice_1.pdf"] != "2" {
		t.Errorf("checksum = %q, want %q", checksums["Invoice_1.pdf"], "2")
	}
	got, _ := db.GetDocument("Invoice_1.pdf")
	if got.Recipient != "Globex" {
		t.Errorf("recipient = %q", got.Recipient)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(record("Quotation_1.pdf", models.KindQuotation, time.Now()), nil)
	if err := db.DeleteDocument("Quotation_1.pdf"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	checksums, _ := db.AllChecksums()
	if len(checksums) != 0 {
		t.Errorf("expected empty index, got %v", checksums)
	}
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_ = db.UpsertDocument(record("Invoice_1.pdf", models.KindInvoice, base), nil)
	_ = db.UpsertDocument(record("Quotation_2.pdf", models.KindQuotation, base.Add(time.Hour)), nil)
	_ = db.UpsertDocument(record("Invoice_3.pdf", models.KindInvoice, base.Add(2*time.Hour)), nil)

	all, total, err := db.ListDocuments(10, 0, "")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total = %d, len = %d, want 3", total, len(all))
	}
	if all[0].Filename != "Invoice_3.pdf" {
		t.Errorf("first = %q, want newest first", all[0].Filename)
	}

	invoices, total, _ := db.ListDocuments(1, 1, models.KindInvoice)
	if total != 2 || len(invoices) != 1 || invoices[0].Filename != "Invoice_1.pdf" {
		t.Errorf("invoices page = %+v (total %d)", invoices, total)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(record("Invoice_1.pdf", models.KindInvoice, time.Now()), []string{"uniqueword consulting"})
	_ = db.UpsertDocument(record("Invoice_2.pdf", models.KindInvoice, time.Now()), []string{"hosting"})

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Filename != "Invoice_1.pdf" {
		t.Errorf("search results = %+v, want 1 hit for Invoice_1.pdf", results)
	}
}

func TestParseFilename(t *testing.T) {
	kind, at, ok := ParseFilename("Quotation_1714564800123.pdf")
	if !ok || kind != models.KindQuotation || at.UnixMilli() != 1714564800123 {
		t.Errorf("got %q %v %v", kind, at, ok)
	}
	if _, _, ok := ParseFilename("scan.pdf"); ok {
		t.Error("foreign name should not parse")
	}
}
