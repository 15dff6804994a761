// Package service implements the storefront operations, delegating
// persistence to repository interfaces and side effects to the payment
// gateway and mailer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/storefront/internal/apperr"
	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
	"github.com/go-playground/validator/v10"
)

// UserRepository defines the account persistence used by the services.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdatePermissions(ctx context.Context, id string, perms []models.Permission) (*models.User, error)
	SetResetToken(ctx context.Context, id, token string, expiry time.Time) error
	ResetPassword(ctx context.Context, id string, hash []byte) (*models.User, error)
}

// ItemRepository defines the catalog persistence used by the services.
type ItemRepository interface {
	Create(ctx context.Context, it *models.Item) error
	GetByID(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context, skip, first int, orderBy string) ([]models.Item, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error)
	Delete(ctx context.Context, id string) error
}

// CartRepository defines the cart persistence used by the services.
type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.CartLine, error)
	GetByID(ctx context.Context, id string) (*models.CartItem, error)
	FindByUserAndItem(ctx context.Context, userID, itemID string) (*models.CartItem, error)
	Create(ctx context.Context, userID, itemID string) (*models.CartItem, error)
	IncrementQuantity(ctx context.Context, id string) (*models.CartItem, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// OrderRepository defines the order persistence used by the services.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
}

// requireUserID returns the authenticated user id or an AuthenticationError.
func requireUserID(ctx context.Context) (string, error) {
	id := middleware.UserIDFromContext(ctx)
	if id == "" {
		return "", apperr.Authentication("you must be logged in to do that")
	}
	return id, nil
}

// currentUser loads the authenticated user. A session pointing at a removed
// account is treated as no session.
func currentUser(ctx context.Context, users UserRepository) (*models.User, error) {
	id, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Authentication("you must be logged in to do that")
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load current user")
	}
	return u, nil
}

// validateStruct runs the struct tags of s through v and reports the first
// failures as a ValidationError.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid input: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
