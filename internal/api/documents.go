package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// Render handles POST /api/draft/render and streams the document as an
// attachment. The draft is left as it was, whatever the outcome.
//
//	@Summary		Render the current draft
//	@Tags			draft
//	@Produce		application/pdf
//	@Success		200	{file}		binary
//	@Failure		503	{object}	errResponse	"Renderer unavailable; the message names what to install"
//	@Security		BearerAuth
//	@Router			/draft/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	out, err := h.docs.Render(r.Context(), ws)
	if err != nil {
		writeError(w, "render", err)
		return
	}
	writeAttachment(w, out.Filename, out.ContentType, out.Checksum, out.Data)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List archived documents, newest first
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			kind	query		string	false	"Filter by kind"	Enums(Invoice, Quotation)
//	@Success		200		{object}	DocumentListResponse
//	@Failure		404		{object}	errResponse	"Archive disabled"
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	kind := models.Kind(q.Get("kind"))
	if kind != "" && !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("kind must be Invoice or Quotation"))
		return
	}

	docs, total, err := h.docs.ListDocuments(r.Context(), limit, offset, kind)
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: total})
}

// SearchDocuments handles GET /api/documents/search.
//
//	@Summary		Full-text search over archived documents
//	@Tags			documents
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Maximum results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse	"Archive disabled"
//	@Security		BearerAuth
//	@Router			/documents/search [get]
func (h *Handler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.docs.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search documents", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// DownloadDocument handles GET /api/documents/{filename}. Names are
// resolved by the archive store, which rejects anything but a plain file name.
//
//	@Summary		Download an archived document
//	@Tags			documents
//	@Produce		application/pdf
//	@Param			filename	path		string	true	"Archived file name"
//	@Success		200			{file}		binary
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{filename} [get]
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	data, rec, err := h.docs.ReadDocument(r.Context(), name)
	if err != nil {
		writeError(w, "download document", err)
		return
	}
	writeAttachment(w, rec.Filename, "application/pdf", rec.Checksum, data)
}

func writeAttachment(w http.ResponseWriter, filename, contentType, checksum string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("ETag", `"`+checksum+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
