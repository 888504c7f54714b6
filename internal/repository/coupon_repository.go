package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ecommerce-backend/internal/model"
)

const couponColumns = "id,code,discount_percentage,expiration_date,user_id,is_active,created_at"

type CouponRepo struct{ DB *sql.DB }

func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{DB: db} }

func scanCoupon(row interface{ Scan(...any) error }) (model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.DiscountPercentage, &c.ExpirationDate,
		&c.UserID, &c.IsActive, &c.CreatedAt)
	return c, err
}

// ActiveByUser returns the caller's active coupons.
func (r *CouponRepo) ActiveByUser(ctx context.Context, userID uint64) ([]model.Coupon, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+couponColumns+" FROM coupons WHERE user_id=? AND is_active=1 ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ByCodeAndUser fetches the caller's active coupon with the given code.
func (r *CouponRepo) ByCodeAndUser(ctx context.Context, code string, userID uint64) (model.Coupon, error) {
	c, err := scanCoupon(r.DB.QueryRowContext(ctx,
		"SELECT "+couponColumns+" FROM coupons WHERE code=? AND user_id=? AND is_active=1 LIMIT 1",
		code, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Coupon{}, ErrNotFound
	}
	return c, err
}

// ByCode fetches a coupon regardless of owner. Used at checkout, where
// the activity check happens in the handler so it can answer 400 rather
// than 404 for an inactive code.
func (r *CouponRepo) ByCode(ctx context.Context, code string) (model.Coupon, error) {
	c, err := scanCoupon(r.DB.QueryRowContext(ctx,
		"SELECT "+couponColumns+" FROM coupons WHERE code=? LIMIT 1", code))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Coupon{}, ErrNotFound
	}
	return c, err
}

// Deactivate flips a coupon to inactive, e.g. when validation finds it
// past its expiration date.
func (r *CouponRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE coupons SET is_active=0 WHERE id=?", id)
	return err
}

// Replace removes any existing coupon for the user and inserts the new
// one, returning its ID. A user therefore holds at most one coupon.
func (r *CouponRepo) Replace(ctx context.Context, c model.Coupon) (uint64, error) {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM coupons WHERE user_id=?", c.UserID); err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO coupons (code, discount_percentage, expiration_date, user_id, is_active) VALUES (?,?,?,?,1)",
		c.Code, c.DiscountPercentage, c.ExpirationDate, c.UserID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
