package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/f2023065371-lang/fazal-portfolio/internal/directory"
	"github.com/f2023065371-lang/fazal-portfolio/internal/docservice"
	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/layout"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
	"github.com/f2023065371-lang/fazal-portfolio/internal/render"
	"github.com/f2023065371-lang/fazal-portfolio/internal/session"
	"github.com/f2023065371-lang/fazal-portfolio/internal/testutil"
)

type envOptions struct {
	loader   render.Loader
	archived bool
}

// testEnv builds the router with the two demo users, a real PDF renderer
// unless overridden, and an optional temp archive.
func testEnv(t *testing.T, o envOptions) http.Handler {
	t.Helper()

	dir, err := directory.New(
		directory.Entry{Username: "jamshed", Password: "jimmy@123", Contact: models.Contact{Name: "Jamshed", Phone: "+92 3xx xxxxxxx", Email: "jamshed@example.com"}},
		directory.Entry{Username: "saqib", Password: "saqib@123", Contact: models.Contact{Name: "Saqib", Phone: "+92 3xx xxxxxxx", Email: "saqib@example.com"}},
	)
	if err != nil {
		t.Fatalf("directory: %v", err)
	}

	sessions := session.NewManager([]byte("test-secret"), time.Hour, func() *document.Draft { return document.NewDraft(0) })

	loader := o.loader
	if loader == nil {
		loader = render.NewPDFLoader(render.PDFOptions{Creator: "folio-test"})
	}
	var opts []docservice.Option
	if o.archived {
		store, db := testutil.TestArchive(t)
		opts = append(opts, docservice.WithArchive(store, db))
	}
	issuer := layout.Issuer{Name: "Fazal Raheem", Lines: []string{"Lahore, Pakistan"}, Footer: "Thank you!"}
	docs := docservice.New(loader, issuer, opts...)

	return NewRouter(docs, dir, sessions, nil)
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, h http.Handler, user, pass string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/session", "", LoginRequest{Username: user, Password: pass})
	if w.Code != http.StatusCreated {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Token
}

func draftOf(t *testing.T, w *httptest.ResponseRecorder) DraftResponse {
	t.Helper()
	var d DraftResponse
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode draft: %v (%s)", err, w.Body.String())
	}
	return d
}

func TestQuotationFlow(t *testing.T) {
	router := testEnv(t, envOptions{})
	token := login(t, router, "saqib", "saqib@123")

	w := do(t, router, http.MethodGet, "/session", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "saqib@example.com") {
		t.Fatalf("session = %d %s", w.Code, w.Body.String())
	}

	if w = do(t, router, http.MethodPut, "/draft/kind", token, KindRequest{Kind: models.KindQuotation}); w.Code != http.StatusOK {
		t.Fatalf("set kind = %d", w.Code)
	}
	if w = do(t, router, http.MethodPatch, "/draft/recipient", token, FieldRequest{Field: "name", Value: "Acme Co"}); w.Code != http.StatusOK {
		t.Fatalf("recipient = %d", w.Code)
	}
	for _, f := range []FieldRequest{{"description", "Design"}, {"quantity", "2"}, {"unitPrice", "100"}} {
		if w = do(t, router, http.MethodPatch, "/draft/items/0", token, f); w.Code != http.StatusOK {
			t.Fatalf("item 0 %s = %d %s", f.Field, w.Code, w.Body.String())
		}
	}

	w = do(t, router, http.MethodPost, "/draft/items", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add item = %d", w.Code)
	}
	var added AddItemResponse
	_ = json.Unmarshal(w.Body.Bytes(), &added)
	if added.Index != 1 || added.Draft.Items[1].Quantity != 1 {
		t.Errorf("added = %+v", added)
	}
	_ = do(t, router, http.MethodPatch, "/draft/items/1", token, FieldRequest{Field: "unit_price", Value: "50"})

	d := draftOf(t, do(t, router, http.MethodGet, "/draft", token, nil))
	if d.Kind != models.KindQuotation || d.Recipient.Name != "Acme Co" {
		t.Errorf("draft = %+v", d)
	}
	if d.Items[0].Amount != 200 || d.Totals.Subtotal != 250 || d.Totals.Tax != 0 || d.Totals.Total != 250 {
		t.Errorf("totals = %+v items = %+v", d.Totals, d.Items)
	}

	w = do(t, router, http.MethodPost, "/draft/render", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("render = %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="Quotation_`) {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	router := testEnv(t, envOptions{})
	for _, c := range []LoginRequest{{"saqib", "wrong"}, {"nobody", "saqib@123"}, {"", ""}} {
		w := do(t, router, http.MethodPost, "/session", "", c)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%+v: status = %d, want 401", c, w.Code)
		}
		if !strings.Contains(w.Body.String(), "invalid credentials") {
			t.Errorf("%+v: body = %s", c, w.Body.String())
		}
	}
}

func TestLoginInvalidJSON(t *testing.T) {
	router := testEnv(t, envOptions{})
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUnauthorized(t *testing.T) {
	router := testEnv(t, envOptions{})
	routes := []struct{ method, path string }{
		{http.MethodGet, "/session"},
		{http.MethodGet, "/draft"},
		{http.MethodPost, "/draft/render"},
		{http.MethodGet, "/documents"},
	}
	for _, rt := range routes {
		for _, tok := range []string{"", "not-a-jwt"} {
			w := do(t, router, rt.method, rt.path, tok, nil)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("%s %s token=%q: status = %d, want 401", rt.method, rt.path, tok, w.Code)
			}
		}
	}
}

func TestLogoutDestroysDraft(t *testing.T) {
	router := testEnv(t, envOptions{})
	token := login(t, router, "jamshed", "jimmy@123")
	_ = do(t, router, http.MethodPatch, "/draft/recipient", token, FieldRequest{Field: "name", Value: "Acme"})

	if w := do(t, router, http.MethodDelete, "/session", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/draft", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("draft after logout = %d, want 401", w.Code)
	}

	token = login(t, router, "jamshed", "jimmy@123")
	d := draftOf(t, do(t, router, http.MethodGet, "/draft", token, nil))
	if d.Recipient.Name != "" || d.Kind != models.KindInvoice || len(d.Items) != 1 {
		t.Errorf("new session should start blank, got %+v", d)
	}
}

func TestRenderUnavailable(t *testing.T) {
	loader := render.Unavailable(errors.New("gofpdf font directory missing"))
	router := testEnv(t, envOptions{loader: loader})
	token := login(t, router, "saqib", "saqib@123")
	_ = do(t, router, http.MethodPatch, "/draft/recipient", token, FieldRequest{Field: "name", Value: "Acme"})
	before := do(t, router, http.MethodGet, "/draft", token, nil).Body.String()

	w := do(t, router, http.MethodPost, "/draft/render", token, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "font directory missing") {
		t.Errorf("message should be actionable: %s", w.Body.String())
	}

	after := do(t, router, http.MethodGet, "/draft", token, nil).Body.String()
	if before != after {
		t.Errorf("draft changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestDraftValidation(t *testing.T) {
	router := testEnv(t, envOptions{})
	token := login(t, router, "saqib", "saqib@123")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown kind", http.MethodPut, "/draft/kind", KindRequest{Kind: "Receipt"}, http.StatusBadRequest},
		{"unknown recipient field", http.MethodPatch, "/draft/recipient", FieldRequest{Field: "fax", Value: "1"}, http.StatusBadRequest},
		{"unknown item field", http.MethodPatch, "/draft/items/0", FieldRequest{Field: "colour", Value: "red"}, http.StatusBadRequest},
		{"index out of range", http.MethodPatch, "/draft/items/3", FieldRequest{Field: "quantity", Value: "1"}, http.StatusNotFound},
		{"non-numeric index", http.MethodPatch, "/draft/items/x", FieldRequest{Field: "quantity", Value: "1"}, http.StatusNotFound},
	}
	for _, c := range cases {
		w := do(t, router, c.method, c.path, token, c.body)
		if w.Code != c.want {
			t.Errorf("%s: status = %d, want %d (%s)", c.name, w.Code, c.want, w.Body.String())
		}
	}
}

func TestPermissiveNumbers(t *testing.T) {
	router := testEnv(t, envOptions{})
	token := login(t, router, "saqib", "saqib@123")

	w := do(t, router, http.MethodPatch, "/draft/items/0", token, FieldRequest{Field: "quantity", Value: "abc"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if d := draftOf(t, w); d.Items[0].Quantity != 0 {
		t.Errorf("quantity = %v, want 0", d.Items[0].Quantity)
	}
}

func TestDocumentsArchive(t *testing.T) {
	router := testEnv(t, envOptions{archived: true})
	token := login(t, router, "saqib", "saqib@123")
	_ = do(t, router, http.MethodPatch, "/draft/recipient", token, FieldRequest{Field: "name", Value: "Globex"})
	_ = do(t, router, http.MethodPatch, "/draft/items/0", token, FieldRequest{Field: "description", Value: "Consulting"})

	w := do(t, router, http.MethodPost, "/draft/render", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("render = %d", w.Code)
	}
	rendered := w.Body.Bytes()

	w = do(t, router, http.MethodGet, "/documents?kind=Invoice", token, nil)
	var list DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || list.Total != 1 || list.Documents[0].Recipient != "Globex" {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}
	name := list.Documents[0].Filename

	w = do(t, router, http.MethodGet, "/documents/search?q=Consulting", token, nil)
	if !strings.Contains(w.Body.String(), name) {
		t.Errorf("search = %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/documents/"+name, token, nil)
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), rendered) {
		t.Errorf("download = %d, %d bytes", w.Code, w.Body.Len())
	}

	for _, bad := range []string{"/documents/..%2Findex.db", "/documents/Invoice_1.pdf", "/documents/notes.txt"} {
		if w := do(t, router, http.MethodGet, bad, token, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", bad, w.Code)
		}
	}

	if w := do(t, router, http.MethodGet, "/documents?kind=Receipt", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad kind filter = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/documents/search", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestDocumentsArchiveDisabled(t *testing.T) {
	router := testEnv(t, envOptions{})
	token := login(t, router, "saqib", "saqib@123")
	for _, p := range []string{"/documents", "/documents/search?q=x", "/documents/Invoice_1.pdf"} {
		if w := do(t, router, http.MethodGet, p, token, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", p, w.Code)
		}
	}
}

func TestAccessTokenQueryOnlyForGet(t *testing.T) {
	router := testEnv(t, envOptions{})
	token := login(t, router, "saqib", "saqib@123")

	req := httptest.NewRequest(http.MethodGet, "/draft?access_token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET with access_token = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/draft/items?access_token="+token, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST with access_token = %d, want 401", w.Code)
	}
}
