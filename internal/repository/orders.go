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

// PostgresOrderRepository stores orders and their item snapshots.
type PostgresOrderRepository struct {
	DB *sql.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

// Create inserts the order and all of its items in one transaction, filling
// in generated ids and the stored timestamp.
func (r *PostgresOrderRepository) Create(ctx context.Context, o *models.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orderID := uuid.NewString()
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, total, charge, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, orderID, o.Total, o.Charge, o.UserID).Scan(&o.CreatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.ID = uuid.NewString()
		it.OrderID = orderID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, title, description, image, large_image, price, quantity, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, it.ID, orderID, it.Title, it.Description, it.Image, it.LargeImage, it.Price, it.Quantity, it.UserID); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	o.ID = orderID
	return nil
}

// GetByID fetches an order with its items.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, total, charge, user_id, created_at FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Total, &o.Charge, &o.UserID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []models.OrderItem{}
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, with their items.
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, total, charge, user_id, created_at FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	ids := []string{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Total, &o.Charge, &o.UserID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders, nil
}

func (r *PostgresOrderRepository) itemsFor(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, order_id, title, description, image, large_image, price, quantity, user_id
		  FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Title, &it.Description, &it.Image, &it.LargeImage, &it.Price, &it.Quantity, &it.UserID); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return byOrder, nil
}
