// Package http provides the storefront's HTTP handlers and router.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) (*models.User, error)
	Signin(ctx context.Context, in service.SigninInput) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
	RequestReset(ctx context.Context, in service.RequestResetInput) (*models.Message, error)
	ResetPassword(ctx context.Context, in service.ResetPasswordInput) (*models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdatePermissions(ctx context.Context, userID string, perms []string) (*models.User, error)
}

// SessionWriter issues and clears the session cookie.
type SessionWriter interface {
	SetCookie(w http.ResponseWriter, userID string) error
	ClearCookie(w http.ResponseWriter)
}

// AuthHandler handles account and session requests.
type AuthHandler struct {
	AuthService AuthService
	Sessions    SessionWriter
	Log         *zap.Logger
}

// Signup handles POST /api/signup and starts a session for the new user.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.AuthService.Signup(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.startSession(w, u)
}

// Signin handles POST /api/signin.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req service.SigninInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.AuthService.Signin(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.startSession(w, u)
}

// Signout handles POST /api/signout.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, models.Message{Message: "Goodbye!"})
}

// RequestReset handles POST /api/reset/request.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req service.RequestResetInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	msg, err := h.AuthService.RequestReset(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// ResetPassword handles POST /api/reset and signs the user in.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.AuthService.ResetPassword(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.startSession(w, u)
}

// Me handles GET /api/me. Anonymous callers get a JSON null.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Me(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Users handles GET /api/users.
func (h *AuthHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.AuthService.Users(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdatePermissions handles PUT /api/users/{id}/permissions.
func (h *AuthHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.AuthService.UpdatePermissions(r.Context(), chi.URLParam(r, "id"), req.Permissions)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, u *models.User) {
	if err := h.Sessions.SetCookie(w, u.ID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
