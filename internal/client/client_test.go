package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *SessionStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	return New(srv.URL, store), store
}

func TestSignin_PersistsSession(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/signin" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var creds Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "wes@example.com" || creds.Password != "secret1" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "signed-token", Path: "/", MaxAge: 3600})
		_ = json.NewEncoder(w).Encode(models.User{ID: "u1", Email: "wes@example.com"})
	})

	u, err := c.Signin(context.Background(), Credentials{Email: "wes@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signin failed: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("user = %+v", u)
	}

	reloaded := NewSessionStore(store.path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if reloaded.Current() != "signed-token" || reloaded.Email != "wes@example.com" {
		t.Errorf("persisted session = %q/%q", reloaded.Current(), reloaded.Email)
	}
}

func TestRequestsCarrySessionCookie(t *testing.T) {
	var gotToken string
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = session.TokenFromRequest(r)
		_ = json.NewEncoder(w).Encode([]models.CartLine{{CartItem: models.CartItem{ID: "c1", Quantity: 2}}})
	})
	if err := store.Set("tok", "wes@example.com"); err != nil {
		t.Fatal(err)
	}

	lines, err := c.Cart(context.Background())
	if err != nil {
		t.Fatalf("Cart failed: %v", err)
	}
	if gotToken != "tok" {
		t.Errorf("server saw token %q; want tok", gotToken)
	}
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Errorf("lines = %+v", lines)
	}
}

func TestSignout_ClearsSession(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "", Path: "/", MaxAge: -1})
		_ = json.NewEncoder(w).Encode(models.Message{Message: "Goodbye!"})
	})
	_ = store.Set("tok", "wes@example.com")

	if err := c.Signout(context.Background()); err != nil {
		t.Fatalf("Signout failed: %v", err)
	}
	if store.Current() != "" {
		t.Errorf("token = %q; want cleared", store.Current())
	}
}

func TestAPIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"title":"Payment Failed","status":402,"detail":"payment failed: Your card was declined."}`))
	})

	_, err := c.Checkout(context.Background(), "tok_chargeDeclined")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusPaymentRequired || apiErr.Detail != "payment failed: Your card was declined." {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestMe_Anonymous(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null\n"))
	})
	u, err := c.Me(context.Background())
	if err != nil || u != nil {
		t.Fatalf("Me = %v, %v; want nil, nil", u, err)
	}
}

func TestItems_QueryString(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("skip") != "4" || r.URL.Query().Get("first") != "4" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]models.Item{{ID: "i1"}})
	})
	items, err := c.Items(context.Background(), 4, 4)
	if err != nil || len(items) != 1 {
		t.Fatalf("Items = %v, %v", items, err)
	}
}
