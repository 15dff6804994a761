package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/storefront/internal/apperr"
	"github.com/atinyakov/storefront/internal/mail"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = time.Hour

// SignupInput is the payload of signup.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// SigninInput is the payload of signin.
type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RequestResetInput is the payload of requestReset.
type RequestResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput is the payload of resetPassword.
type ResetPasswordInput struct {
	ResetToken      string `json:"resetToken" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// AuthConfig holds the settings used when composing account emails.
type AuthConfig struct {
	MailFrom    string
	FrontendURL string
}

// AuthService implements signup, signin, password reset and user
// administration.
type AuthService struct {
	users    UserRepository
	mailer   mail.Sender
	cfg      AuthConfig
	validate *validator.Validate
	log      *zap.Logger

	now      func() time.Time
	newToken func() (string, error)
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserRepository, mailer mail.Sender, cfg AuthConfig, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		mailer:   mailer,
		cfg:      cfg,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
		newToken: randomToken,
	}
}

func randomToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a new USER account. The caller issues the session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Permissions:  []models.Permission{models.PermissionUser},
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Validation("an account for %s already exists", in.Email)
		}
		return nil, apperr.Upstream(err, "create user")
	}
	s.log.Info("user signed up", zap.String("user_id", u.ID))
	return u, nil
}

// Signin checks the credentials and returns the matching user.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("no such user found for email %s", in.Email)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load user")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
		return nil, apperr.Validation("invalid password")
	}
	return u, nil
}

// Me returns the signed-in user, or nil for anonymous requests.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	if _, err := requireUserID(ctx); err != nil {
		return nil, nil
	}
	u, err := currentUser(ctx, s.users)
	if apperr.Kind(err) == apperr.KindAuthentication {
		return nil, nil
	}
	return u, err
}

// RequestReset stores a fresh reset token for the account and mails the
// reset link.
func (s *AuthService) RequestReset(ctx context.Context, in RequestResetInput) (*models.Message, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("no such user found for email %s", in.Email)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load user")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(ResetTokenTTL)); err != nil {
		return nil, apperr.Upstream(err, "store reset token")
	}

	msg, err := mail.ResetEmail(s.cfg.MailFrom, u.Email, s.cfg.FrontendURL, token)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, apperr.Upstream(err, "send reset email")
	}
	return &models.Message{Message: "Thanks!"}, nil
}

// ResetPassword sets a new password for the holder of a valid reset token.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) (*models.User, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperr.Validation("your passwords don't match")
	}

	u, err := s.users.GetByResetToken(ctx, in.ResetToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Validation("this token is either invalid or expired")
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load user")
	}
	if u.ResetTokenExpiry == nil || !s.now().Before(*u.ResetTokenExpiry) {
		return nil, apperr.Validation("this token is either invalid or expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	updated, err := s.users.ResetPassword(ctx, u.ID, hash)
	if err != nil {
		return nil, apperr.Upstream(err, "reset password")
	}
	s.log.Info("password reset", zap.String("user_id", updated.ID))
	return updated, nil
}

// Users lists every account. Requires ADMIN or PERMISSIONUPDATE.
func (s *AuthService) Users(ctx context.Context) ([]models.User, error) {
	me, err := currentUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if err := models.CheckPermission(me, models.PermissionAdmin, models.PermissionPermissionUpdate); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "list users")
	}
	return users, nil
}

// UpdatePermissions replaces the permission set of user userID. Requires
// ADMIN or PERMISSIONUPDATE.
func (s *AuthService) UpdatePermissions(ctx context.Context, userID string, raw []string) (*models.User, error) {
	me, err := currentUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if err := models.CheckPermission(me, models.PermissionAdmin, models.PermissionPermissionUpdate); err != nil {
		return nil, err
	}
	perms, err := models.ParsePermissions(raw)
	if err != nil {
		return nil, err
	}

	u, err := s.users.UpdatePermissions(ctx, userID, perms)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("user %s not found", userID)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "update permissions")
	}
	s.log.Info("permissions updated",
		zap.String("user_id", u.ID),
		zap.String("by", me.ID),
		zap.Strings("permissions", permissionNames(u.Permissions)),
	)
	return u, nil
}

func permissionNames(perms []models.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
