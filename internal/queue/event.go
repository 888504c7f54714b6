// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCreatedEvent is published when a checkout session creates an
// order. It carries enough information for downstream consumers to log,
// notify, or feed analytics without querying the primary database.
type OrderCreatedEvent struct {
	OrderReference   string `json:"order_reference"`
	UserID           uint64 `json:"user_id"`
	ProductID        uint64 `json:"product_id"`
	ProductName      string `json:"product_name"`
	CouponCode       string `json:"coupon_code,omitempty"`
	DiscountPercent  int    `json:"discount_percent,omitempty"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	CreatedAt        string `json:"created_at"`
}
