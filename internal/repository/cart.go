package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresCartRepository stores cart rows.
type PostgresCartRepository struct {
	DB *sql.DB
}

// NewPostgresCartRepository creates a new PostgresCartRepository.
func NewPostgresCartRepository(db *sql.DB) *PostgresCartRepository {
	return &PostgresCartRepository{DB: db}
}

func scanCartItem(row rowScanner) (*models.CartItem, error) {
	var c models.CartItem
	if err := row.Scan(&c.ID, &c.Quantity, &c.UserID, &c.ItemID); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns the user's cart rows joined with their catalog items.
// Rows whose item no longer exists are not returned.
func (r *PostgresCartRepository) ListByUser(ctx context.Context, userID string) ([]models.CartLine, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.quantity, c.user_id, c.item_id,
		       i.id, i.title, i.description, i.image, i.large_image, i.price, i.user_id, i.created_at
		  FROM cart_items c
		  JOIN items i ON i.id = c.item_id
		 WHERE c.user_id = $1
		 ORDER BY c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(
			&l.ID, &l.Quantity, &l.UserID, &l.ItemID,
			&l.Item.ID, &l.Item.Title, &l.Item.Description, &l.Item.Image, &l.Item.LargeImage,
			&l.Item.Price, &l.Item.UserID, &l.Item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return lines, nil
}

// GetByID fetches a single cart row.
func (r *PostgresCartRepository) GetByID(ctx context.Context, id string) (*models.CartItem, error) {
	c, err := scanCartItem(r.DB.QueryRowContext(ctx,
		`SELECT id, quantity, user_id, item_id FROM cart_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return c, nil
}

// FindByUserAndItem returns the user's cart row for itemID, if any.
func (r *PostgresCartRepository) FindByUserAndItem(ctx context.Context, userID, itemID string) (*models.CartItem, error) {
	c, err := scanCartItem(r.DB.QueryRowContext(ctx,
		`SELECT id, quantity, user_id, item_id FROM cart_items WHERE user_id = $1 AND item_id = $2`,
		userID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return c, nil
}

// Create inserts a cart row with quantity one. A concurrent insert for the
// same (user, item) pair yields ErrDuplicate.
func (r *PostgresCartRepository) Create(ctx context.Context, userID, itemID string) (*models.CartItem, error) {
	c := &models.CartItem{ID: uuid.NewString(), Quantity: 1, UserID: userID, ItemID: itemID}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO cart_items (id, quantity, user_id, item_id) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Quantity, c.UserID, c.ItemID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create cart item: %w", err)
	}
	return c, nil
}

// IncrementQuantity adds one to the quantity of cart row id.
func (r *PostgresCartRepository) IncrementQuantity(ctx context.Context, id string) (*models.CartItem, error) {
	c, err := scanCartItem(r.DB.QueryRowContext(ctx,
		`UPDATE cart_items SET quantity = quantity + 1 WHERE id = $1 RETURNING id, quantity, user_id, item_id`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment cart item: %w", err)
	}
	return c, nil
}

// Delete removes cart row id.
func (r *PostgresCartRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return expectOne(res)
}

// DeleteMany removes the given cart rows and reports how many were removed.
func (r *PostgresCartRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete cart items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
