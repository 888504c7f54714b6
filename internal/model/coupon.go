package model

import "time"

// Coupon mirrors the `coupons` table. Every coupon belongs to exactly
// one user; at most one active coupon exists per user because creating
// a new one replaces any previous coupon for that user.
//
// Fields:
//  ID                 – primary key identifier.
//  Code               – redemption code presented at checkout.
//  DiscountPercentage – whole-number percentage taken off the total.
//  ExpirationDate     – after this instant the coupon is rejected and
//                       flipped to inactive on the next validation.
//  UserID             – owner of the coupon.
//  IsActive           – whether the coupon can still be redeemed.
type Coupon struct {
	ID                 uint64    // coupons.id
	Code               string    // coupons.code
	DiscountPercentage int       // coupons.discount_percentage
	ExpirationDate     time.Time // coupons.expiration_date
	UserID             uint64    // coupons.user_id
	IsActive           bool      // coupons.is_active
	CreatedAt          time.Time // coupons.created_at
}
