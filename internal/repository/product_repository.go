package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ecommerce-backend/internal/model"
)

// featuredCacheKey holds the JSON-encoded featured product list. The
// entry has no TTL; it is rewritten whenever a product's featured flag
// changes, so it only goes stale if Redis and MySQL diverge manually.
const featuredCacheKey = "featured_products"

const productColumns = "id,name,description,price_cents,image_url,category,is_featured,created_at,updated_at"

// ProductRepo reads and writes the products table. The optional Redis
// client backs the featured-list cache; when nil every read falls
// through to MySQL.
type ProductRepo struct {
	DB  *sql.DB
	RDB *redis.Client
}

func NewProductRepo(db *sql.DB, rdb *redis.Client) *ProductRepo {
	return &ProductRepo{DB: db, RDB: rdb}
}

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL,
		&p.Category, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepo) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// All returns every product. The catalog is small enough that the
// storefront list is unpaginated.
func (r *ProductRepo) All(ctx context.Context) ([]model.Product, error) {
	return r.queryProducts(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
}

// Featured returns the featured products, served from the Redis cache
// when possible. A cache miss reads MySQL and repopulates the cache.
// Cache failures are ignored; the database remains the source of truth.
func (r *ProductRepo) Featured(ctx context.Context) ([]model.Product, error) {
	if r.RDB != nil {
		if raw, err := r.RDB.Get(ctx, featuredCacheKey).Bytes(); err == nil {
			var cached []model.Product
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}
	products, err := r.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_featured=1 ORDER BY id")
	if err != nil {
		return nil, err
	}
	if r.RDB != nil && len(products) > 0 {
		if raw, err := json.Marshal(products); err == nil {
			_ = r.RDB.Set(ctx, featuredCacheKey, raw, 0).Err()
		}
	}
	return products, nil
}

// RefreshFeaturedCache rewrites the cache entry from the database.
// Called after a featured flag flips so readers never see the old list.
func (r *ProductRepo) RefreshFeaturedCache(ctx context.Context) error {
	if r.RDB == nil {
		return nil
	}
	products, err := r.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_featured=1 ORDER BY id")
	if err != nil {
		return err
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, featuredCacheKey, raw, 0).Err()
}

// ByCategory returns products in the given category.
func (r *ProductRepo) ByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return r.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE category=? ORDER BY id", category)
}

// Recommendations returns a random sample of three products.
func (r *ProductRepo) Recommendations(ctx context.Context) ([]model.Product, error) {
	return r.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY RAND() LIMIT 3")
}

// GetByID fetches a single product.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

// Create inserts a product and returns its ID.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (name, description, price_cents, image_url, category, is_featured) VALUES (?,?,?,?,?,?)",
		p.Name, p.Description, p.PriceCents, p.ImageURL, p.Category, p.IsFeatured)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ToggleFeatured flips the featured flag and returns the updated row.
// The featured cache is refreshed so the change is visible immediately.
func (r *ProductRepo) ToggleFeatured(ctx context.Context, id uint64) (model.Product, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE products SET is_featured = NOT is_featured WHERE id=?", id)
	if err != nil {
		return model.Product{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Product{}, ErrNotFound
	}
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	if err := r.RefreshFeaturedCache(ctx); err != nil {
		return p, nil // cache failure is not fatal
	}
	return p, nil
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	_ = r.RefreshFeaturedCache(ctx)
	return nil
}
