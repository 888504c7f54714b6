package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/middleware"
	"github.com/iliyamo/ecommerce-backend/internal/model"
	"github.com/iliyamo/ecommerce-backend/internal/repository"
)

// CouponStore is the coupon storage consumed by the coupon and payment
// endpoints. Satisfied by *repository.CouponRepo.
type CouponStore interface {
	ActiveByUser(ctx context.Context, userID uint64) ([]model.Coupon, error)
	ByCodeAndUser(ctx context.Context, code string, userID uint64) (model.Coupon, error)
	ByCode(ctx context.Context, code string) (model.Coupon, error)
	Deactivate(ctx context.Context, id uint64) error
	Replace(ctx context.Context, c model.Coupon) (uint64, error)
}

type CouponHandler struct {
	Coupons CouponStore
}

func NewCouponHandler(c CouponStore) *CouponHandler { return &CouponHandler{Coupons: c} }

type couponResp struct {
	ID                 uint64    `json:"id"`
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discountPercentage"`
	ExpirationDate     time.Time `json:"expirationDate"`
	IsActive           bool      `json:"isActive"`
}

func toCouponResp(c model.Coupon) couponResp {
	return couponResp{
		ID:                 c.ID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		ExpirationDate:     c.ExpirationDate,
		IsActive:           c.IsActive,
	}
}

func currentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(middleware.ContextUserID).(uint64)
	return id, ok
}

// List returns the caller's active coupons.
func (h *CouponHandler) List(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	coupons, err := h.Coupons.ActiveByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]couponResp, 0, len(coupons))
	for _, cp := range coupons {
		out = append(out, toCouponResp(cp))
	}
	return c.JSON(http.StatusOK, out)
}

type validateCouponReq struct {
	Code string `json:"code"`
}

// Validate checks a code against the caller's active coupon. A coupon
// past its expiration date is deactivated on the spot and answers 400,
// so the next lookup no longer finds it.
func (h *CouponHandler) Validate(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req validateCouponReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	coupon, err := h.Coupons.ByCodeAndUser(ctx, strings.TrimSpace(req.Code), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coupon not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if coupon.ExpirationDate.Before(time.Now()) {
		_ = h.Coupons.Deactivate(ctx, coupon.ID)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coupon expired"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":            "coupon validated",
		"code":               coupon.Code,
		"discountPercentage": coupon.DiscountPercentage,
	})
}

type createCouponReq struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discountPercentage"`
	ValidHours         int    `json:"validHours"`
}

// Create replaces the caller's coupon with a fresh one. Without
// overrides it issues the storefront's full-discount gift coupon valid
// for 24 hours.
func (h *CouponHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createCouponReq
	_ = c.Bind(&req) // all fields optional
	if req.Code == "" {
		req.Code = "TEST100"
	}
	if req.DiscountPercentage <= 0 || req.DiscountPercentage > 100 {
		req.DiscountPercentage = 100
	}
	if req.ValidHours <= 0 {
		req.ValidHours = 24
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	coupon := model.Coupon{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		ExpirationDate:     time.Now().Add(time.Duration(req.ValidHours) * time.Hour),
		UserID:             uid,
		IsActive:           true,
	}
	id, err := h.Coupons.Replace(ctx, coupon)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create coupon failed"})
	}
	coupon.ID = id
	return c.JSON(http.StatusCreated, toCouponResp(coupon))
}
