package service

import (
	"context"
	"time"

	"github.com/atinyakov/storefront/internal/mail"
	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/payment"
	"github.com/atinyakov/storefront/internal/repository"
)

type mockUserRepo struct {
	CreateFunc            func(ctx context.Context, u *models.User) error
	GetByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc        func(ctx context.Context, email string) (*models.User, error)
	GetByResetTokenFunc   func(ctx context.Context, token string) (*models.User, error)
	ListFunc              func(ctx context.Context) ([]models.User, error)
	UpdatePermissionsFunc func(ctx context.Context, id string, perms []models.Permission) (*models.User, error)
	SetResetTokenFunc     func(ctx context.Context, id, token string, expiry time.Time) error
	ResetPasswordFunc     func(ctx context.Context, id string, hash []byte) (*models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	return m.CreateFunc(ctx, u)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}
func (m *mockUserRepo) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return m.GetByResetTokenFunc(ctx, token)
}
func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	return m.ListFunc(ctx)
}
func (m *mockUserRepo) UpdatePermissions(ctx context.Context, id string, perms []models.Permission) (*models.User, error) {
	return m.UpdatePermissionsFunc(ctx, id, perms)
}
func (m *mockUserRepo) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	return m.SetResetTokenFunc(ctx, id, token, expiry)
}
func (m *mockUserRepo) ResetPassword(ctx context.Context, id string, hash []byte) (*models.User, error) {
	return m.ResetPasswordFunc(ctx, id, hash)
}

// usersByID serves GetByID from a fixed set of accounts.
func usersByID(users ...*models.User) func(ctx context.Context, id string) (*models.User, error) {
	return func(ctx context.Context, id string) (*models.User, error) {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, repository.ErrNotFound
	}
}

type mockItemRepo struct {
	CreateFunc  func(ctx context.Context, it *models.Item) error
	GetByIDFunc func(ctx context.Context, id string) (*models.Item, error)
	ListFunc    func(ctx context.Context, skip, first int, orderBy string) ([]models.Item, error)
	CountFunc   func(ctx context.Context) (int64, error)
	UpdateFunc  func(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *mockItemRepo) Create(ctx context.Context, it *models.Item) error {
	return m.CreateFunc(ctx, it)
}
func (m *mockItemRepo) GetByID(ctx context.Context, id string) (*models.Item, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockItemRepo) List(ctx context.Context, skip, first int, orderBy string) ([]models.Item, error) {
	return m.ListFunc(ctx, skip, first, orderBy)
}
func (m *mockItemRepo) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}
func (m *mockItemRepo) Update(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error) {
	return m.UpdateFunc(ctx, id, upd)
}
func (m *mockItemRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type mockCartRepo struct {
	ListByUserFunc        func(ctx context.Context, userID string) ([]models.CartLine, error)
	GetByIDFunc           func(ctx context.Context, id string) (*models.CartItem, error)
	FindByUserAndItemFunc func(ctx context.Context, userID, itemID string) (*models.CartItem, error)
	CreateFunc            func(ctx context.Context, userID, itemID string) (*models.CartItem, error)
	IncrementQuantityFunc func(ctx context.Context, id string) (*models.CartItem, error)
	DeleteFunc            func(ctx context.Context, id string) error
	DeleteManyFunc        func(ctx context.Context, ids []string) (int64, error)
}

func (m *mockCartRepo) ListByUser(ctx context.Context, userID string) ([]models.CartLine, error) {
	return m.ListByUserFunc(ctx, userID)
}
func (m *mockCartRepo) GetByID(ctx context.Context, id string) (*models.CartItem, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockCartRepo) FindByUserAndItem(ctx context.Context, userID, itemID string) (*models.CartItem, error) {
	return m.FindByUserAndItemFunc(ctx, userID, itemID)
}
func (m *mockCartRepo) Create(ctx context.Context, userID, itemID string) (*models.CartItem, error) {
	return m.CreateFunc(ctx, userID, itemID)
}
func (m *mockCartRepo) IncrementQuantity(ctx context.Context, id string) (*models.CartItem, error) {
	return m.IncrementQuantityFunc(ctx, id)
}
func (m *mockCartRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}
func (m *mockCartRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return m.DeleteManyFunc(ctx, ids)
}

type mockOrderRepo struct {
	CreateFunc     func(ctx context.Context, o *models.Order) error
	GetByIDFunc    func(ctx context.Context, id string) (*models.Order, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]models.Order, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, o *models.Order) error {
	return m.CreateFunc(ctx, o)
}
func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockOrderRepo) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return m.ListByUserFunc(ctx, userID)
}

type mockMailer struct {
	SendFunc func(ctx context.Context, m mail.Message) error
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.SendFunc(ctx, msg)
}

type mockGateway struct {
	ChargeFunc func(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error)
}

func (m *mockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	return m.ChargeFunc(ctx, req)
}

func asUser(id string) context.Context {
	return middleware.WithUserID(context.Background(), id)
}
