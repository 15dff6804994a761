package service

import (
	"context"
	"errors"

	"github.com/atinyakov/storefront/internal/apperr"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
	"go.uber.org/zap"
)

// CartService implements the cart operations.
type CartService struct {
	cart  CartRepository
	items ItemRepository
	users UserRepository
	log   *zap.Logger
}

// NewCartService constructs a CartService.
func NewCartService(cart CartRepository, items ItemRepository, users UserRepository, log *zap.Logger) *CartService {
	return &CartService{cart: cart, items: items, users: users, log: log}
}

// Cart returns the signed-in user's cart lines joined with their items.
func (s *CartService) Cart(ctx context.Context) ([]models.CartLine, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err, "load cart")
	}
	return lines, nil
}

// AddToCart puts one unit of itemID in the signed-in user's cart. An existing
// line for the item has its quantity incremented instead.
func (s *CartService) AddToCart(ctx context.Context, itemID string) (*models.CartItem, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("item %s not found", itemID)
		}
		return nil, apperr.Upstream(err, "load item")
	}

	existing, err := s.cart.FindByUserAndItem(ctx, userID, itemID)
	switch {
	case err == nil:
		return s.increment(ctx, existing.ID)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Upstream(err, "find cart item")
	}

	created, err := s.cart.Create(ctx, userID, itemID)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Upstream(err, "create cart item")
	}

	// A concurrent add created the line first.
	s.log.Debug("cart insert raced, incrementing", zap.String("user_id", userID), zap.String("item_id", itemID))
	existing, err = s.cart.FindByUserAndItem(ctx, userID, itemID)
	if err != nil {
		return nil, apperr.Upstream(err, "find cart item")
	}
	return s.increment(ctx, existing.ID)
}

func (s *CartService) increment(ctx context.Context, id string) (*models.CartItem, error) {
	c, err := s.cart.IncrementQuantity(ctx, id)
	if err != nil {
		return nil, apperr.Upstream(err, "increment cart item")
	}
	return c, nil
}

// RemoveFromCart deletes cart line id and returns it. The line must belong to
// the signed-in user unless they hold ADMIN.
func (s *CartService) RemoveFromCart(ctx context.Context, id string) (*models.CartItem, error) {
	me, err := currentUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	c, err := s.cart.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("no cart item found")
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load cart item")
	}
	if c.UserID != me.ID && !models.HasPermission(me.Permissions, models.PermissionAdmin) {
		return nil, apperr.Authorization("that cart item is not yours")
	}
	if err := s.cart.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no cart item found")
		}
		return nil, apperr.Upstream(err, "delete cart item")
	}
	return c, nil
}
