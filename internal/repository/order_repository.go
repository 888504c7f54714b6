package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ecommerce-backend/internal/model"
)

const orderColumns = "id,reference,user_id,product_id,coupon_id,status,total_amount_cents,created_at,updated_at"

type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
	var (
		o        model.Order
		couponID sql.NullInt64
	)
	err := row.Scan(&o.ID, &o.Reference, &o.UserID, &o.ProductID, &couponID,
		&o.Status, &o.TotalAmountCents, &o.CreatedAt, &o.UpdatedAt)
	if couponID.Valid {
		id := uint64(couponID.Int64)
		o.CouponID = &id
	}
	return o, err
}

// Create inserts an order and returns its ID.
func (r *OrderRepo) Create(ctx context.Context, o model.Order) (uint64, error) {
	var couponID any
	if o.CouponID != nil {
		couponID = *o.CouponID
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO orders (reference, user_id, product_id, coupon_id, status, total_amount_cents) VALUES (?,?,?,?,?,?)",
		o.Reference, o.UserID, o.ProductID, couponID, o.Status, o.TotalAmountCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ByReference fetches a single order by its external reference.
func (r *OrderRepo) ByReference(ctx context.Context, ref string) (model.Order, error) {
	o, err := scanOrder(r.DB.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE reference=? LIMIT 1", ref))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	return o, err
}
