package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/session"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	user     *models.User
	users    []models.User
	err      error
	gotPerms []string
	gotID    string
}

func (f *fakeAuthService) Signup(ctx context.Context, in service.SignupInput) (*models.User, error) {
	return f.user, f.err
}
func (f *fakeAuthService) Signin(ctx context.Context, in service.SigninInput) (*models.User, error) {
	return f.user, f.err
}
func (f *fakeAuthService) Me(ctx context.Context) (*models.User, error) {
	if middleware.UserIDFromContext(ctx) == "" {
		return nil, nil
	}
	return f.user, f.err
}
func (f *fakeAuthService) RequestReset(ctx context.Context, in service.RequestResetInput) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{Message: "Thanks!"}, nil
}
func (f *fakeAuthService) ResetPassword(ctx context.Context, in service.ResetPasswordInput) (*models.User, error) {
	return f.user, f.err
}
func (f *fakeAuthService) Users(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}
func (f *fakeAuthService) UpdatePermissions(ctx context.Context, userID string, perms []string) (*models.User, error) {
	f.gotID, f.gotPerms = userID, perms
	return f.user, f.err
}

// fakeItemService implements ItemService for testing.
type fakeItemService struct {
	items    []models.Item
	item     *models.Item
	err      error
	gotQuery service.ItemsQuery
	gotID    string
}

func (f *fakeItemService) List(ctx context.Context, q service.ItemsQuery) ([]models.Item, error) {
	f.gotQuery = q
	return f.items, f.err
}
func (f *fakeItemService) Connection(ctx context.Context) (*service.ItemsConnection, error) {
	return &service.ItemsConnection{Count: int64(len(f.items))}, f.err
}
func (f *fakeItemService) Get(ctx context.Context, id string) (*models.Item, error) {
	f.gotID = id
	return f.item, f.err
}
func (f *fakeItemService) Create(ctx context.Context, in service.ItemInput) (*models.Item, error) {
	return f.item, f.err
}
func (f *fakeItemService) Update(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error) {
	f.gotID = id
	return f.item, f.err
}
func (f *fakeItemService) Delete(ctx context.Context, id string) (*models.Item, error) {
	f.gotID = id
	return f.item, f.err
}

// fakeCartService implements CartService for testing.
type fakeCartService struct {
	lines  []models.CartLine
	item   *models.CartItem
	err    error
	gotCtx context.Context
	gotID  string
}

func (f *fakeCartService) Cart(ctx context.Context) ([]models.CartLine, error) {
	f.gotCtx = ctx
	return f.lines, f.err
}
func (f *fakeCartService) AddToCart(ctx context.Context, itemID string) (*models.CartItem, error) {
	f.gotCtx, f.gotID = ctx, itemID
	return f.item, f.err
}
func (f *fakeCartService) RemoveFromCart(ctx context.Context, id string) (*models.CartItem, error) {
	f.gotCtx, f.gotID = ctx, id
	return f.item, f.err
}

// fakeOrderService implements OrderService for testing.
type fakeOrderService struct {
	order    *models.Order
	orders   []models.Order
	err      error
	gotToken string
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*models.Order, error) {
	f.gotToken = in.Token
	return f.order, f.err
}
func (f *fakeOrderService) Order(ctx context.Context, id string) (*models.Order, error) {
	return f.order, f.err
}
func (f *fakeOrderService) Orders(ctx context.Context) ([]models.Order, error) {
	return f.orders, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	auth   *fakeAuthService
	items  *fakeItemService
	cart   *fakeCartService
	orders *fakeOrderService
	db     *fakePinger
	sess   *session.Manager
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sess, err := session.NewManager(testSecret, false)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	ts := &testServer{
		auth:   &fakeAuthService{},
		items:  &fakeItemService{},
		cart:   &fakeCartService{},
		orders: &fakeOrderService{},
		db:     &fakePinger{},
		sess:   sess,
	}
	log := zap.NewNop()
	ts.router = NewRouter(RouterConfig{
		Auth:          &AuthHandler{AuthService: ts.auth, Sessions: sess, Log: log},
		Items:         &ItemHandler{ItemService: ts.items, Log: log},
		Cart:          &CartHandler{CartService: ts.cart, Log: log},
		Orders:        &OrderHandler{OrderService: ts.orders, Log: log},
		Verifier:      sess,
		DB:            ts.db,
		FrontendURL:   "http://localhost:7777",
		AuthRateLimit: 3,
		Logger:        log,
	})
	return ts
}

// do sends a request, optionally signed in as userID.
func (ts *testServer) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		token, err := ts.sess.Issue(userID)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

var errBoom = errors.New("boom")

func newRequest(method, path, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, path, nil)
	}
	return httptest.NewRequest(method, path, strings.NewReader(body))
}

func serve(ts *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func trimNewline(s string) string {
	return strings.TrimRight(s, "\n")
}
