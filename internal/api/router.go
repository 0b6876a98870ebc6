package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/f2023065371-lang/fazal-portfolio/internal/directory"
	"github.com/f2023065371-lang/fazal-portfolio/internal/docservice"
	"github.com/f2023065371-lang/fazal-portfolio/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// events, if non-nil, is mounted at GET /events behind the session check.
func NewRouter(docs *docservice.Service, dir *directory.Directory, sessions *session.Manager, events http.Handler) chi.Router {
	h := NewHandler(docs, dir, sessions)

	r := chi.NewRouter()

	r.Post("/session", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(sessions))

		r.Get("/session", h.CurrentSession)
		r.Delete("/session", h.Logout)

		// Builder.
		r.Get("/draft", h.GetDraft)
		r.Put("/draft/kind", h.SetKind)
		r.Patch("/draft/recipient", h.UpdateRecipient)
		r.Post("/draft/items", h.AddItem)
		r.Patch("/draft/items/{index}", h.UpdateItem)
		r.Post("/draft/render", h.Render)

		// Archive.
		r.Get("/documents", h.ListDocuments)
		r.Get("/documents/search", h.SearchDocuments)
		r.Get("/documents/{filename}", h.DownloadDocument)

		if events != nil {
			r.Get("/events", events.ServeHTTP)
		}
	})

	return r
}
