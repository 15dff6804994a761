package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/google/uuid"
)

const itemColumns = `id, title, description, image, large_image, price, user_id, created_at`

// PostgresItemRepository stores catalog items.
type PostgresItemRepository struct {
	DB *sql.DB
}

// NewPostgresItemRepository creates a new PostgresItemRepository.
func NewPostgresItemRepository(db *sql.DB) *PostgresItemRepository {
	return &PostgresItemRepository{DB: db}
}

func scanItem(row rowScanner) (*models.Item, error) {
	var it models.Item
	if err := row.Scan(&it.ID, &it.Title, &it.Description, &it.Image, &it.LargeImage, &it.Price, &it.UserID, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserts it with a fresh id and fills in the stored timestamp.
func (r *PostgresItemRepository) Create(ctx context.Context, it *models.Item) error {
	id := uuid.NewString()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO items (id, title, description, image, large_image, price, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, id, it.Title, it.Description, it.Image, it.LargeImage, it.Price, it.UserID).Scan(&it.CreatedAt)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	it.ID = id
	return nil
}

// GetByID fetches a single item.
func (r *PostgresItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	it, err := scanItem(r.DB.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// DefaultItemOrder lists the newest items first.
const DefaultItemOrder = "createdAt_DESC"

var itemOrderings = map[string]string{
	"createdAt_DESC": "created_at DESC, id",
	"createdAt_ASC":  "created_at ASC, id",
	"price_ASC":      "price ASC, id",
	"price_DESC":     "price DESC, id",
	"title_ASC":      "title ASC, id",
	"title_DESC":     "title DESC, id",
}

// ValidItemOrder reports whether orderBy names a supported item ordering.
func ValidItemOrder(orderBy string) bool {
	_, ok := itemOrderings[orderBy]
	return ok
}

// List returns a page of items sorted by orderBy. Unknown or empty orderings
// fall back to DefaultItemOrder.
func (r *PostgresItemRepository) List(ctx context.Context, skip, first int, orderBy string) ([]models.Item, error) {
	order, ok := itemOrderings[orderBy]
	if !ok {
		order = itemOrderings[DefaultItemOrder]
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY `+order+` OFFSET $1 LIMIT $2`,
		skip, first,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Count returns the number of catalog items.
func (r *PostgresItemRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Update applies the non-nil fields of upd to item id.
func (r *PostgresItemRepository) Update(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE items SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			image = COALESCE($4, image),
			large_image = COALESCE($5, large_image),
			price = COALESCE($6, price)
		WHERE id = $1
		RETURNING `+itemColumns,
		id, nullString(upd.Title), nullString(upd.Description), nullString(upd.Image), nullString(upd.LargeImage), nullInt64(upd.Price),
	)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

// Delete removes item id.
func (r *PostgresItemRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return expectOne(res)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
