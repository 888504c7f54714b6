package model

import "time"

// CartItem mirrors the `cart_items` table. One row per product per
// user; (user_id, product_id) is unique, so adding a product that is
// already in the cart bumps its quantity instead of creating a second
// row.
type CartItem struct {
	ID        uint64    // cart_items.id
	UserID    uint64    // cart_items.user_id
	ProductID uint64    // cart_items.product_id
	Quantity  int       // cart_items.quantity
	CreatedAt time.Time // cart_items.created_at
	UpdatedAt time.Time // cart_items.updated_at
}

// CartLine is a cart item joined with its product, the shape the cart
// endpoints return to the storefront.
type CartLine struct {
	ItemID   uint64
	Quantity int
	Product  Product
}
