// Package session issues and verifies the signed session token carried in
// the HTTP-only session cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "token"
	// CookieMaxAge keeps the session for one year.
	CookieMaxAge = 365 * 24 * time.Hour

	userIDClaim = "userId"
)

// ErrNoUser is returned when a verified token carries no user id.
var ErrNoUser = errors.New("session: token has no user id")

// Manager signs and verifies HS256 session tokens and writes the session
// cookie.
type Manager struct {
	secret []byte
	secure bool
}

// NewManager creates a Manager. secret must not be empty.
func NewManager(secret string, secureCookie bool) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session: secret is required")
	}
	return &Manager{secret: []byte(secret), secure: secureCookie}, nil
}

// sameSite is None for secure cookies so a cross-site frontend can send the
// session on credentialed requests. Browsers reject None without Secure.
func (m *Manager) sameSite() http.SameSite {
	if m.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Issue returns a signed token whose only claim is the user id.
func (m *Manager) Issue(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{userIDClaim: userID})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature (and exp, when present) and returns the user id.
func (m *Manager) Verify(tokenString string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("session: verify: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("session: unsupported claim type %T", tok.Claims)
	}
	userID, _ := claims[userIDClaim].(string)
	if userID == "" {
		return "", ErrNoUser
	}
	return userID, nil
}

// SetCookie issues a token for userID and writes it as a persistent
// HTTP-only cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, userID string) error {
	token, err := m.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(CookieMaxAge / time.Second),
		Expires:  time.Now().Add(CookieMaxAge),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
	return nil
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
}

// TokenFromRequest returns the session token, or "" when the cookie is absent.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
