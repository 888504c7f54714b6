package model

import "time"

// Order statuses. An order starts as pending and is moved to completed
// or cancelled by the payment webhook once a real gateway is wired in.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order mirrors the `orders` table. Reference is an opaque identifier
// handed to the payment provider and back to the client; it is safe to
// expose externally, unlike the numeric primary key.
type Order struct {
	ID               uint64    // orders.id
	Reference        string    // orders.reference (uuid)
	UserID           uint64    // orders.user_id
	ProductID        uint64    // orders.product_id
	CouponID         *uint64   // orders.coupon_id (nullable)
	Status           string    // orders.status
	TotalAmountCents int64     // orders.total_amount_cents
	CreatedAt        time.Time // orders.created_at
	UpdatedAt        time.Time // orders.updated_at
}
