// Package models defines the core data structures for users, catalog items,
// carts and orders.
package models

import "time"

// User represents a registered shopper or staff member.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name chosen at signup.
	Name string `json:"name"`
	// Email is the lower-cased login address.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
	// Permissions is the unordered set of roles granted to the user.
	Permissions []Permission `json:"permissions"`
	// ResetToken is set while a password reset is pending.
	ResetToken *string `json:"-"`
	// ResetTokenExpiry is the instant after which ResetToken is rejected.
	ResetTokenExpiry *time.Time `json:"-"`
}

// Item is a catalog entry offered for sale.
type Item struct {
	// ID is the unique identifier for the item.
	ID string `json:"id"`
	// Title is the short product name.
	Title string `json:"title"`
	// Description is the long product text.
	Description string `json:"description"`
	// Image is the thumbnail URL.
	Image string `json:"image,omitempty"`
	// LargeImage is the full size image URL.
	LargeImage string `json:"largeImage,omitempty"`
	// Price is expressed in minor currency units (cents).
	Price int64 `json:"price"`
	// UserID references the owner who created the item.
	UserID string `json:"userId"`
	// CreatedAt is when the item was listed.
	CreatedAt time.Time `json:"createdAt"`
}

// CartItem is a quantity of one catalog item pending purchase by one user.
type CartItem struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
}

// CartLine joins a cart row with the catalog fields needed to price and
// snapshot it.
type CartLine struct {
	CartItem
	Item Item `json:"item"`
}

// Order is an immutable record of a completed purchase.
type Order struct {
	ID string `json:"id"`
	// Total is the gateway-confirmed amount in minor currency units.
	Total int64 `json:"total"`
	// Charge is the payment confirmation id.
	Charge    string      `json:"charge"`
	UserID    string      `json:"userId"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
}

// OrderItem is a denormalized copy of a catalog item at the moment of purchase.
type OrderItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	LargeImage  string `json:"largeImage,omitempty"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
	UserID      string `json:"userId"`
	OrderID     string `json:"orderId,omitempty"`
}

// ItemUpdate carries the mutable fields of an item; nil fields are left as is.
type ItemUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	LargeImage  *string `json:"largeImage"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0,lte=100000000"`
}

// Message is a short acknowledgement returned by operations without a payload.
type Message struct {
	Message string `json:"message"`
}
