package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/directory"
	"github.com/f2023065371-lang/fazal-portfolio/internal/docservice"
	"github.com/f2023065371-lang/fazal-portfolio/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	docs     *docservice.Service
	dir      *directory.Directory
	sessions *session.Manager
}

// NewHandler creates a new Handler.
func NewHandler(docs *docservice.Service, dir *directory.Directory, sessions *session.Manager) *Handler {
	return &Handler{docs: docs, dir: dir, sessions: sessions}
}

// Login handles POST /api/session.
//
//	@Summary		Open a builder session
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		201		{object}	SessionResponse
//	@Failure		401		{object}	errResponse
//	@Router			/session [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	contact, err := h.dir.Authenticate(req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", slog.String("username", req.Username), slog.String("remote", r.RemoteAddr))
		writeError(w, "login", err)
		return
	}
	token, ws, err := h.sessions.Open(contact)
	if err != nil {
		writeError(w, "open session", err)
		return
	}
	slog.Info("session opened", slog.String("session", ws.ID), slog.String("contact", contact.Name))
	writeJSON(w, http.StatusCreated, SessionResponse{Token: token, Contact: contact, ExpiresAt: ws.ExpiresAt})
}

// CurrentSession handles GET /api/session.
//
//	@Summary		Contact and expiry of the current session
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	ContactResponse
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, ContactResponse{Contact: ws.Contact, ExpiresAt: ws.ExpiresAt})
}

// Logout handles DELETE /api/session. The draft is discarded with the session.
//
//	@Summary		Close the session and discard its draft
//	@Tags			session
//	@Success		204	"Session closed"
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session [delete]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(tokenFrom(r.Context())); err != nil {
		writeError(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDraft handles GET /api/draft.
//
//	@Summary		Current builder state with totals
//	@Tags			draft
//	@Produce		json
//	@Success		200	{object}	DraftResponse
//	@Security		BearerAuth
//	@Router			/draft [get]
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, newDraftResponse(ws.Draft.Snapshot()))
}

// SetKind handles PUT /api/draft/kind.
//
//	@Summary		Choose Invoice or Quotation
//	@Tags			draft
//	@Accept			json
//	@Produce		json
//	@Param			body	body		KindRequest	true	"Document kind"
//	@Success		200		{object}	DraftResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/draft/kind [put]
func (h *Handler) SetKind(w http.ResponseWriter, r *http.Request) {
	var req KindRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ws := workspaceFrom(r.Context())
	if err := ws.Draft.SetKind(req.Kind); err != nil {
		writeError(w, "set kind", err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(ws.Draft.Snapshot()))
}

// UpdateRecipient handles PATCH /api/draft/recipient.
//
//	@Summary		Assign one Bill To field
//	@Tags			draft
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FieldRequest	true	"Field and value"
//	@Success		200		{object}	DraftResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/draft/recipient [patch]
func (h *Handler) UpdateRecipient(w http.ResponseWriter, r *http.Request) {
	var req FieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ws := workspaceFrom(r.Context())
	if err := ws.Draft.UpdateRecipient(req.Field, req.Value); err != nil {
		writeError(w, "update recipient", err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(ws.Draft.Snapshot()))
}

// AddItem handles POST /api/draft/items.
//
//	@Summary		Append a blank line item
//	@Tags			draft
//	@Produce		json
//	@Success		201	{object}	AddItemResponse
//	@Security		BearerAuth
//	@Router			/draft/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	idx := ws.Draft.AddItem()
	writeJSON(w, http.StatusCreated, AddItemResponse{Index: idx, Draft: newDraftResponse(ws.Draft.Snapshot())})
}

// UpdateItem handles PATCH /api/draft/items/{index}.
//
//	@Summary		Assign one field of a line item
//	@Description	Numeric fields take raw text. Invalid numbers become 0 unless strict numbers are enabled.
//	@Tags			draft
//	@Accept			json
//	@Produce		json
//	@Param			index	path		int				true	"Zero-based item index"
//	@Param			body	body		FieldRequest	true	"Field and value"
//	@Success		200		{object}	DraftResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/draft/items/{index} [patch]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, "update item", apperr.ErrItemIndex)
		return
	}
	var req FieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ws := workspaceFrom(r.Context())
	if err := ws.Draft.UpdateItem(idx, req.Field, req.Value); err != nil {
		writeError(w, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(ws.Draft.Snapshot()))
}
