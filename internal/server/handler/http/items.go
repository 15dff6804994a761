package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/atinyakov/storefront/internal/apperr"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemService defines the catalog operations required by ItemHandler.
type ItemService interface {
	List(ctx context.Context, q service.ItemsQuery) ([]models.Item, error)
	Connection(ctx context.Context) (*service.ItemsConnection, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	Create(ctx context.Context, in service.ItemInput) (*models.Item, error)
	Update(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error)
	Delete(ctx context.Context, id string) (*models.Item, error)
}

// ItemHandler handles catalog requests.
type ItemHandler struct {
	ItemService ItemService
	Log         *zap.Logger
}

// List handles GET /api/items?skip=&first=&orderBy=.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := service.ItemsQuery{OrderBy: r.URL.Query().Get("orderBy")}
	var err error
	if q.Skip, err = intParam(r, "skip"); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if q.First, err = intParam(r, "first"); err != nil {
		writeError(w, h.Log, err)
		return
	}

	items, err := h.ItemService.List(r.Context(), q)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Count handles GET /api/items/count.
func (h *ItemHandler) Count(w http.ResponseWriter, r *http.Request) {
	conn, err := h.ItemService.Connection(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// Get handles GET /api/items/{id}.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.ItemService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Create handles POST /api/items.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	it, err := h.ItemService.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.ItemUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	it, err := h.ItemService.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Delete handles DELETE /api/items/{id} and returns the removed item.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	it, err := h.ItemService.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// intParam parses an optional integer query parameter; absent means zero.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return n, nil
}
