package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartService defines the cart operations required by CartHandler.
type CartService interface {
	Cart(ctx context.Context) ([]models.CartLine, error)
	AddToCart(ctx context.Context, itemID string) (*models.CartItem, error)
	RemoveFromCart(ctx context.Context, id string) (*models.CartItem, error)
}

// CartHandler handles cart requests.
type CartHandler struct {
	CartService CartService
	Log         *zap.Logger
}

// Cart handles GET /api/cart.
func (h *CartHandler) Cart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.CartService.Cart(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// Add handles POST /api/cart/{itemID}.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	c, err := h.CartService.AddToCart(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Remove handles DELETE /api/cart/{id}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	c, err := h.CartService.RemoveFromCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
