package service

import (
	"context"
	"errors"

	"github.com/atinyakov/storefront/internal/apperr"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the number of items per page when none is requested.
	DefaultPageSize = 4
	// MaxPageSize caps the requested page size.
	MaxPageSize = 100
)

// ItemInput is the payload of createItem.
type ItemInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image"`
	LargeImage  string `json:"largeImage"`
	Price       int64  `json:"price" validate:"gte=0,lte=100000000"`
}

// ItemsQuery selects a page of the catalog.
type ItemsQuery struct {
	Skip    int
	First   int
	OrderBy string
}

// ItemsConnection carries catalog aggregates used for pagination.
type ItemsConnection struct {
	Count int64 `json:"count"`
}

// ItemService implements the catalog operations.
type ItemService struct {
	items    ItemRepository
	users    UserRepository
	validate *validator.Validate
	log      *zap.Logger
}

// NewItemService constructs an ItemService.
func NewItemService(items ItemRepository, users UserRepository, log *zap.Logger) *ItemService {
	return &ItemService{items: items, users: users, validate: validator.New(), log: log}
}

// List returns one page of items.
func (s *ItemService) List(ctx context.Context, q ItemsQuery) ([]models.Item, error) {
	if q.Skip < 0 {
		return nil, apperr.Validation("skip must not be negative")
	}
	switch {
	case q.First <= 0:
		q.First = DefaultPageSize
	case q.First > MaxPageSize:
		q.First = MaxPageSize
	}
	if q.OrderBy != "" && !repository.ValidItemOrder(q.OrderBy) {
		return nil, apperr.Validation("unsupported orderBy %q", q.OrderBy)
	}

	items, err := s.items.List(ctx, q.Skip, q.First, q.OrderBy)
	if err != nil {
		return nil, apperr.Upstream(err, "list items")
	}
	return items, nil
}

// Connection returns the catalog size.
func (s *ItemService) Connection(ctx context.Context) (*ItemsConnection, error) {
	n, err := s.items.Count(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "count items")
	}
	return &ItemsConnection{Count: n}, nil
}

// Get returns item id.
func (s *ItemService) Get(ctx context.Context, id string) (*models.Item, error) {
	it, err := s.items.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("item %s not found", id)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load item")
	}
	return it, nil
}

// Create lists a new item owned by the signed-in user.
func (s *ItemService) Create(ctx context.Context, in ItemInput) (*models.Item, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	it := &models.Item{
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		LargeImage:  in.LargeImage,
		Price:       in.Price,
		UserID:      userID,
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, apperr.Upstream(err, "create item")
	}
	s.log.Info("item created", zap.String("item_id", it.ID), zap.String("user_id", userID))
	return it, nil
}

// Update edits item id. Requires ownership or ADMIN/ITEMUPDATE.
func (s *ItemService) Update(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error) {
	if _, err := s.authorizeItem(ctx, id, models.PermissionAdmin, models.PermissionItemUpdate); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, upd); err != nil {
		return nil, err
	}
	if upd.Title != nil && *upd.Title == "" {
		return nil, apperr.Validation("title must not be empty")
	}

	it, err := s.items.Update(ctx, id, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("item %s not found", id)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "update item")
	}
	return it, nil
}

// Delete removes item id and returns it. Requires ownership or
// ADMIN/ITEMDELETE.
func (s *ItemService) Delete(ctx context.Context, id string) (*models.Item, error) {
	it, err := s.authorizeItem(ctx, id, models.PermissionAdmin, models.PermissionItemDelete)
	if err != nil {
		return nil, err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("item %s not found", id)
		}
		return nil, apperr.Upstream(err, "delete item")
	}
	s.log.Info("item deleted", zap.String("item_id", id))
	return it, nil
}

// authorizeItem loads item id and checks that the signed-in user owns it or
// holds one of perms.
func (s *ItemService) authorizeItem(ctx context.Context, id string, perms ...models.Permission) (*models.Item, error) {
	me, err := currentUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.UserID == me.ID {
		return it, nil
	}
	if !models.HasPermission(me.Permissions, perms...) {
		return nil, apperr.Authorization("you don't have permission to do that")
	}
	return it, nil
}
