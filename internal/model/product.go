package model

import "time"

// Product mirrors the `products` table. ImageURL points at the object
// storage location of the product photo and may be empty when no image
// was uploaded. PriceCents stores money as an integer to avoid float
// rounding in totals.
type Product struct {
	ID          uint64    // products.id
	Name        string    // products.name
	Description string    // products.description
	PriceCents  int64     // products.price_cents
	ImageURL    string    // products.image_url
	Category    string    // products.category
	IsFeatured  bool      // products.is_featured
	CreatedAt   time.Time // products.created_at
	UpdatedAt   time.Time // products.updated_at
}
