package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/session"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Title)
}

// Client calls the storefront API, attaching and refreshing the session
// cookie kept in a SessionStore.
type Client struct {
	baseURL string
	http    *http.Client
	store   *SessionStore
}

// New creates a Client for baseURL.
func New(baseURL string, store *SessionStore) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   store,
	}
}

// Credentials are the fields collected for signup and signin.
type Credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// Signup creates an account and stores the new session.
func (c *Client) Signup(ctx context.Context, creds Credentials) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/api/signup", creds, &u); err != nil {
		return nil, err
	}
	return &u, c.store.Set(c.store.Current(), u.Email)
}

// Signin starts a session.
func (c *Client) Signin(ctx context.Context, creds Credentials) (*models.User, error) {
	creds.Name = ""
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/api/signin", creds, &u); err != nil {
		return nil, err
	}
	return &u, c.store.Set(c.store.Current(), u.Email)
}

// Signout ends the session locally and on the server.
func (c *Client) Signout(ctx context.Context) error {
	var msg models.Message
	err := c.do(ctx, http.MethodPost, "/api/signout", nil, &msg)
	if clearErr := c.store.Clear(); err == nil {
		err = clearErr
	}
	return err
}

// Me returns the signed-in user, or nil when signed out.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u *models.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return u, nil
}

// Items lists one page of the catalog.
func (c *Client) Items(ctx context.Context, skip, first int) ([]models.Item, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("first", strconv.Itoa(first))
	var items []models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart adds one unit of itemID to the cart.
func (c *Client) AddToCart(ctx context.Context, itemID string) (*models.CartItem, error) {
	var ci models.CartItem
	if err := c.do(ctx, http.MethodPost, "/api/cart/"+url.PathEscape(itemID), nil, &ci); err != nil {
		return nil, err
	}
	return &ci, nil
}

// RemoveFromCart removes cart line id.
func (c *Client) RemoveFromCart(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(id), nil, nil)
}

// Cart returns the cart lines.
func (c *Client) Cart(ctx context.Context) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Checkout pays for the cart with a payment token.
func (c *Client) Checkout(ctx context.Context, token string) (*models.Order, error) {
	var o models.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", map[string]string{"token": token}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Orders lists past orders.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Current(); token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := c.captureSession(resp); err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// captureSession persists a session cookie set or cleared by the server.
func (c *Client) captureSession(resp *http.Response) error {
	for _, ck := range resp.Cookies() {
		if ck.Name != session.CookieName {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			return c.store.Clear()
		}
		c.store.mu.Lock()
		email := c.store.Email
		c.store.mu.Unlock()
		return c.store.Set(ck.Value, email)
	}
	return nil
}
