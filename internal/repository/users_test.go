package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/lib/pq"
)

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresUserRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var userRowColumns = []string{"id", "name", "email", "password", "permissions", "reset_token", "reset_token_expiry"}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	u := &models.User{Name: "Wes", Email: "wes@example.com", PasswordHash: []byte("hash"), Permissions: []models.Permission{models.PermissionUser}}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, name, email, password, permissions)`)).
		WithArgs(sqlmock.AnyArg(), "Wes", "wes@example.com", []byte("hash"), pq.StringArray{"USER"}).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == "" {
		t.Error("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Email: "dup@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByEmail_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	expiry := time.Now().Add(time.Hour).UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, permissions, reset_token, reset_token_expiry FROM users WHERE email = $1`)).
		WithArgs("wes@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Wes", "wes@example.com", []byte("hash"), "{ADMIN,USER}", "tok", expiry))

	u, err := repo.GetByEmail(context.Background(), "wes@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" || string(u.PasswordHash) != "hash" {
		t.Errorf("unexpected user: %+v", u)
	}
	if len(u.Permissions) != 2 || u.Permissions[0] != models.PermissionAdmin {
		t.Errorf("unexpected permissions: %v", u.Permissions)
	}
	if u.ResetToken == nil || *u.ResetToken != "tok" || u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.Equal(expiry) {
		t.Errorf("unexpected reset fields: %v %v", u.ResetToken, u.ResetTokenExpiry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByResetToken_Error(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE reset_token = $1`)).
		WithArgs("tok").
		WillReturnError(errors.New("query failed"))

	_, err := repo.GetByResetToken(context.Background(), "tok")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY name, email`)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Ann", "ann@example.com", []byte("h1"), "{USER}", nil, nil).
			AddRow("u2", "Bob", "bob@example.com", []byte("h2"), "{}", nil, nil))

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[1].ID != "u2" || len(users[1].Permissions) != 0 {
		t.Errorf("unexpected users: %+v", users)
	}
	if users[0].ResetToken != nil {
		t.Errorf("expected nil reset token")
	}
}

func TestUpdatePermissions(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET permissions = $2 WHERE id = $1`)).
		WithArgs("u1", pq.StringArray{"ADMIN", "ITEMDELETE"}).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Ann", "ann@example.com", []byte("h1"), "{ADMIN,ITEMDELETE}", nil, nil))

	u, err := repo.UpdatePermissions(context.Background(), "u1", []models.Permission{models.PermissionAdmin, models.PermissionItemDelete})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Permissions) != 2 || u.Permissions[1] != models.PermissionItemDelete {
		t.Errorf("unexpected permissions: %v", u.Permissions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSetResetToken_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	expiry := time.Now().Add(time.Hour)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET reset_token = $2, reset_token_expiry = $3 WHERE id = $1`)).
		WithArgs("ghost", "tok", expiry).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetResetToken(context.Background(), "ghost", "tok", expiry)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET password = $2, reset_token = NULL, reset_token_expiry = NULL WHERE id = $1`)).
		WithArgs("u1", []byte("newhash")).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Ann", "ann@example.com", []byte("newhash"), "{USER}", nil, nil))

	u, err := repo.ResetPassword(context.Background(), "u1", []byte("newhash"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(u.PasswordHash) != "newhash" || u.ResetToken != nil {
		t.Errorf("unexpected user: %+v", u)
	}
}
