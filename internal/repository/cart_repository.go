package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ecommerce-backend/internal/model"
)

// CartRepo reads and writes the cart_items table. Carts are purely a
// convenience for the storefront; checkout does not consume them, so
// every operation is a plain single-statement write.
type CartRepo struct{ DB *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{DB: db} }

// Lines returns the user's cart joined with product data, oldest item
// first.
func (r *CartRepo) Lines(ctx context.Context, userID uint64) ([]model.CartLine, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ci.id, ci.quantity,
		        p.id, p.name, p.description, p.price_cents, p.image_url,
		        p.category, p.is_featured, p.created_at, p.updated_at
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = ?
		 ORDER BY ci.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ItemID, &l.Quantity,
			&l.Product.ID, &l.Product.Name, &l.Product.Description,
			&l.Product.PriceCents, &l.Product.ImageURL, &l.Product.Category,
			&l.Product.IsFeatured, &l.Product.CreatedAt, &l.Product.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add puts one unit of a product into the cart, or bumps the quantity
// when the product is already there. The unique (user_id, product_id)
// key makes the upsert atomic.
func (r *CartRepo) Add(ctx context.Context, userID, productID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?,?,1)
		 ON DUPLICATE KEY UPDATE quantity = quantity + 1`,
		userID, productID)
	return err
}

// SetQuantity pins a cart item to an exact quantity; zero or less
// removes it, like the storefront's quantity stepper reaching zero.
// Returns ErrNotFound when the product is not in the cart.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID uint64, qty int) error {
	if qty <= 0 {
		return r.Remove(ctx, userID, productID)
	}
	// Check existence separately: an UPDATE to the same quantity
	// reports zero affected rows, which is not a missing item.
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM cart_items WHERE user_id=? AND product_id=? LIMIT 1",
		userID, productID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE cart_items SET quantity=? WHERE id=?", qty, id)
	return err
}

// Remove drops one product from the cart. Returns ErrNotFound when the
// product was not in it.
func (r *CartRepo) Remove(ctx context.Context, userID, productID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id=? AND product_id=?", userID, productID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear empties the user's cart.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id=?", userID)
	return err
}
