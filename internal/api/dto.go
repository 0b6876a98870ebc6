package api

import (
	"time"

	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/index"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// LoginRequest is the request body for opening a session.
type LoginRequest struct {
	Username string `json:"username" example:"saqib" validate:"required"`
	Password string `json:"password" example:"saqib@123" validate:"required"`
}

// SessionResponse is returned after a successful login.
type SessionResponse struct {
	Token     string         `json:"token" validate:"required"`
	Contact   models.Contact `json:"contact" validate:"required"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ContactResponse describes the signed-in operator.
type ContactResponse struct {
	Contact   models.Contact `json:"contact" validate:"required"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// KindRequest switches the document kind.
type KindRequest struct {
	Kind models.Kind `json:"kind" example:"Quotation" validate:"required"`
}

// FieldRequest assigns one recipient or item field. Value is raw text.
type FieldRequest struct {
	Field string `json:"field" example:"quantity" validate:"required"`
	Value string `json:"value" example:"2"`
}

// ItemDTO is a line item with its derived amount.
type ItemDTO struct {
	Index       int     `json:"index"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// DraftResponse is the full builder state.
type DraftResponse struct {
	Kind      models.Kind      `json:"kind" example:"Invoice"`
	Recipient models.Recipient `json:"recipient"`
	Items     []ItemDTO        `json:"items"`
	Totals    models.Totals    `json:"totals"`
}

// AddItemResponse is returned after appending a line item.
type AddItemResponse struct {
	Index int           `json:"index"`
	Draft DraftResponse `json:"draft"`
}

// DocumentListResponse wraps paginated archive listings.
type DocumentListResponse struct {
	Documents []models.DocumentRecord `json:"documents" validate:"required"`
	Total     int                     `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps archive search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

func newDraftResponse(s document.Snapshot) DraftResponse {
	items := make([]ItemDTO, len(s.Items))
	for i, it := range s.Items {
		items[i] = ItemDTO{
			Index:       i,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount(),
		}
	}
	return DraftResponse{Kind: s.Kind, Recipient: s.Recipient, Items: items, Totals: s.Totals}
}
