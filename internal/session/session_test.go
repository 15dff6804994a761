package session

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", true)
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager("", false)
	require.Error(t, err)
}

func TestIssue_OnlyUserIDClaim(t *testing.T) {
	m := newManager(t)

	signed, err := m.Issue("user-1")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, jwt.MapClaims{"userId": "user-1"}, claims)
}

func TestVerify(t *testing.T) {
	m := newManager(t)
	good, err := m.Issue("user-42")
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr bool
	}{
		{name: "valid", token: good, wantID: "user-42"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"userId": "x"}), wantErr: true},
		{name: "expired", token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.MapClaims{
			"userId": "x", "exp": time.Now().Add(-time.Hour).Unix(),
		}), wantErr: true},
		{name: "rs256 rejected", token: sign(jwt.SigningMethodRS256, rsaKey, jwt.MapClaims{"userId": "x"}), wantErr: true},
		{name: "no user id", token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.MapClaims{"sub": "x"}), wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := m.Verify(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestSetCookie(t *testing.T) {
	m := newManager(t)
	rec := httptest.NewRecorder()

	require.NoError(t, m.SetCookie(rec, "user-7"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 365*24*60*60, c.MaxAge)

	id, err := m.Verify(c.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-7", id)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, c.Value, TokenFromRequest(req))
}

func TestClearCookie(t *testing.T) {
	m := newManager(t)
	rec := httptest.NewRecorder()

	m.ClearCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.Empty(t, TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestCookieSameSite(t *testing.T) {
	tests := []struct {
		name   string
		secure bool
		want   http.SameSite
	}{
		{name: "insecure stays lax", secure: false, want: http.SameSiteLaxMode},
		{name: "secure allows cross site", secure: true, want: http.SameSiteNoneMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager("test-secret", tt.secure)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			require.NoError(t, m.SetCookie(rec, "user-1"))
			m.ClearCookie(rec)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 2)
			for _, c := range cookies {
				assert.Equal(t, tt.want, c.SameSite)
				assert.Equal(t, tt.secure, c.Secure)
			}
		})
	}
}
