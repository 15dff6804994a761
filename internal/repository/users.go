package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, name, email, password, permissions, reset_token, reset_token_expiry`

// PostgresUserRepository stores accounts in the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u           models.User
		perms       pq.StringArray
		resetToken  sql.NullString
		resetExpiry sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &perms, &resetToken, &resetExpiry); err != nil {
		return nil, err
	}
	u.Permissions = make([]models.Permission, len(perms))
	for i, p := range perms {
		u.Permissions[i] = models.Permission(p)
	}
	if resetToken.Valid {
		u.ResetToken = &resetToken.String
	}
	if resetExpiry.Valid {
		u.ResetTokenExpiry = &resetExpiry.Time
	}
	return &u, nil
}

func permissionStrings(perms []models.Permission) pq.StringArray {
	out := make(pq.StringArray, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// Create inserts u, assigning it a new id. A taken email yields ErrDuplicate.
func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password, permissions) VALUES ($1, $2, $3, $4, $5)`,
		id, u.Name, u.Email, u.PasswordHash, permissionStrings(u.Permissions),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetByID fetches a user by primary key.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "get user", "id = $1", id)
}

// GetByEmail fetches a user by (lower-cased) email.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "get user by email", "email = $1", email)
}

// GetByResetToken fetches the user holding the given reset token. Expiry is
// checked by the caller.
func (r *PostgresUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "get user by reset token", "reset_token = $1", token)
}

// List returns every user ordered by name.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdatePermissions replaces the permission set of user id.
func (r *PostgresUserRepository) UpdatePermissions(ctx context.Context, id string, perms []models.Permission) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE users SET permissions = $2 WHERE id = $1 RETURNING `+userColumns,
		id, permissionStrings(perms),
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update permissions: %w", err)
	}
	return u, nil
}

// SetResetToken stores a pending reset token for user id.
func (r *PostgresUserRepository) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET reset_token = $2, reset_token_expiry = $3 WHERE id = $1`,
		id, token, expiry,
	)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return expectOne(res)
}

// ResetPassword stores a new password hash and clears the reset token.
func (r *PostgresUserRepository) ResetPassword(ctx context.Context, id string, hash []byte) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE users SET password = $2, reset_token = NULL, reset_token_expiry = NULL WHERE id = $1 RETURNING `+userColumns,
		id, hash,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reset password: %w", err)
	}
	return u, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
