package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderService defines the checkout and order operations required by
// OrderHandler.
type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*models.Order, error)
	Order(ctx context.Context, id string) (*models.Order, error)
	Orders(ctx context.Context) ([]models.Order, error)
}

// OrderHandler handles checkout and order history requests.
type OrderHandler struct {
	OrderService OrderService
	Log          *zap.Logger
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	o, err := h.OrderService.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// List handles GET /api/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.Orders(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
