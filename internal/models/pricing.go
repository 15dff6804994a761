package models

import (
	"math"

	"github.com/atinyakov/storefront/internal/apperr"
)

// MaxItemPrice is the highest accepted item price in minor units. Keep the
// lte tags on the item inputs in sync.
const MaxItemPrice int64 = 100_000_000

// CartTotal sums price times quantity over the cart lines. An empty cart
// totals zero. A total that does not fit in int64 is a ValidationError.
func CartTotal(lines []CartLine) (int64, error) {
	var total int64
	for _, l := range lines {
		price, qty := l.Item.Price, l.Quantity
		if price < 0 || qty < 0 {
			return 0, apperr.Validation("cart line %s has a negative price or quantity", l.ID)
		}
		if price != 0 && qty > (math.MaxInt64-total)/price {
			return 0, apperr.Validation("your cart total is too large")
		}
		total += price * qty
	}
	return total, nil
}

// OrderItemsFromCart snapshots the cart lines into order items owned by userID.
// The catalog item id is deliberately not carried over.
func OrderItemsFromCart(userID string, lines []CartLine) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			Title:       l.Item.Title,
			Description: l.Item.Description,
			Image:       l.Item.Image,
			LargeImage:  l.Item.LargeImage,
			Price:       l.Item.Price,
			Quantity:    l.Quantity,
			UserID:      userID,
		})
	}
	return items
}

// CartItemIDs returns the ids of the cart rows behind lines.
func CartItemIDs(lines []CartLine) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	return ids
}
