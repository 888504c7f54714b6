package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/model"
	"github.com/iliyamo/ecommerce-backend/internal/queue"
	"github.com/iliyamo/ecommerce-backend/internal/repository"
	queue_publisher "github.com/iliyamo/ecommerce-backend/internal/service"
)

// OrderStore is the order storage consumed by the payment endpoints.
// Satisfied by *repository.OrderRepo.
type OrderStore interface {
	Create(ctx context.Context, o model.Order) (uint64, error)
	ByReference(ctx context.Context, ref string) (model.Order, error)
}

// PaymentHandler implements the checkout/payment stub. No gateway is
// wired in: checkout records a pending order and the webhook merely
// acknowledges, leaving room for a real provider later.
type PaymentHandler struct {
	Orders   OrderStore
	Products ProductStore
	Coupons  CouponStore
}

func NewPaymentHandler(o OrderStore, p ProductStore, c CouponStore) *PaymentHandler {
	return &PaymentHandler{Orders: o, Products: p, Coupons: c}
}

type checkoutReq struct {
	ProductID  uint64 `json:"productId"`
	CouponCode string `json:"couponCode"`
}

// Checkout creates a pending order for a product, applying an optional
// coupon, and publishes an order.created event. Publishing is best
// effort: a broker outage must not fail the purchase.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutReq
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "productId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	product, err := h.Products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var coupon *model.Coupon
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		found, err := h.Coupons.ByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "coupon not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !found.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "coupon is not active"})
		}
		coupon = &found
	}

	total := product.PriceCents
	var couponID *uint64
	if coupon != nil {
		total = product.PriceCents * int64(100-coupon.DiscountPercentage) / 100
		couponID = &coupon.ID
	}

	order := model.Order{
		Reference:        uuid.NewString(),
		UserID:           uid,
		ProductID:        product.ID,
		CouponID:         couponID,
		Status:           model.OrderStatusPending,
		TotalAmountCents: total,
	}
	if _, err := h.Orders.Create(ctx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	ev := queue.OrderCreatedEvent{
		OrderReference:   order.Reference,
		UserID:           uid,
		ProductID:        product.ID,
		ProductName:      product.Name,
		TotalAmountCents: total,
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if coupon != nil {
		ev.CouponCode = coupon.Code
		ev.DiscountPercent = coupon.DiscountPercentage
	}
	_ = queue_publisher.PublishOrderCreated(ctx, ev)

	return c.JSON(http.StatusOK, echo.Map{
		"orderId":     order.Reference,
		"totalAmount": total,
	})
}

// Webhook acknowledges gateway callbacks. Stub until a provider exists.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// Status reports an order's payment state by its external reference.
func (h *PaymentHandler) Status(c echo.Context) error {
	ref := c.Param("orderId")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "orderId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.ByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":      order.Status,
		"totalAmount": order.TotalAmountCents,
	})
}
