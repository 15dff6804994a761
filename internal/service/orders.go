package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/storefront/internal/apperr"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/payment"
	"github.com/atinyakov/storefront/internal/repository"
	"go.uber.org/zap"
)

// CreateOrderInput is the payload of createOrder.
type CreateOrderInput struct {
	// Token is the client-side payment token.
	Token string `json:"token"`
}

// OrderService implements checkout and order history.
type OrderService struct {
	orders   OrderRepository
	cart     CartRepository
	users    UserRepository
	gateway  payment.Gateway
	currency string
	log      *zap.Logger
}

// NewOrderService constructs an OrderService charging in currency.
func NewOrderService(
	orders OrderRepository,
	cart CartRepository,
	users UserRepository,
	gateway payment.Gateway,
	currency string,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		cart:     cart,
		users:    users,
		gateway:  gateway,
		currency: currency,
		log:      log,
	}
}

// CreateOrder charges the signed-in user for their cart, records the order
// and empties the cart. Nothing is written when the charge fails. Clearing the
// cart after the order is stored is best effort.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	me, err := currentUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if in.Token == "" {
		return nil, apperr.Validation("payment token is required")
	}

	lines, err := s.cart.ListByUser(ctx, me.ID)
	if err != nil {
		return nil, apperr.Upstream(err, "load cart")
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("your cart is empty")
	}
	total, err := models.CartTotal(lines)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, apperr.Validation("your cart total must be greater than zero")
	}

	ch, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		Amount:      total,
		Currency:    s.currency,
		Token:       in.Token,
		Description: fmt.Sprintf("order for %s", me.Email),
	})
	if err != nil {
		s.log.Warn("charge failed", zap.String("user_id", me.ID), zap.Int64("amount", total), zap.Error(err))
		if apperr.Kind(err) == apperr.KindInternal {
			return nil, apperr.Payment(err, "payment failed: %v", err)
		}
		return nil, err
	}
	s.log.Info("charge succeeded",
		zap.String("user_id", me.ID),
		zap.String("charge_id", ch.ID),
		zap.Int64("amount", ch.Amount),
		zap.Int64("cart_total", total),
	)

	order := &models.Order{
		Total:  ch.Amount,
		Charge: ch.ID,
		UserID: me.ID,
		Items:  models.OrderItemsFromCart(me.ID, lines),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error("order not recorded after successful charge",
			zap.String("user_id", me.ID),
			zap.String("charge_id", ch.ID),
			zap.Error(err),
		)
		return nil, apperr.Upstream(err, "record order")
	}

	cartIDs := models.CartItemIDs(lines)
	if _, err := s.cart.DeleteMany(ctx, cartIDs); err != nil {
		s.log.Error("failed to clear cart after order",
			zap.String("order_id", order.ID),
			zap.Strings("cart_item_ids", cartIDs),
			zap.Error(err),
		)
	}
	return order, nil
}

// Order returns order id. Only its owner or an ADMIN may view it.
func (s *OrderService) Order(ctx context.Context, id string) (*models.Order, error) {
	me, err := currentUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load order")
	}
	if o.UserID != me.ID && !models.HasPermission(me.Permissions, models.PermissionAdmin) {
		return nil, apperr.Authorization("you don't have permission to view this order")
	}
	return o, nil
}

// Orders lists the signed-in user's orders.
func (s *OrderService) Orders(ctx context.Context) ([]models.Order, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err, "list orders")
	}
	return orders, nil
}
