package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/model"
	"github.com/iliyamo/ecommerce-backend/internal/repository"
)

// CartStore is the cart storage consumed by the cart endpoints.
// Satisfied by *repository.CartRepo.
type CartStore interface {
	Lines(ctx context.Context, userID uint64) ([]model.CartLine, error)
	Add(ctx context.Context, userID, productID uint64) error
	SetQuantity(ctx context.Context, userID, productID uint64, qty int) error
	Remove(ctx context.Context, userID, productID uint64) error
	Clear(ctx context.Context, userID uint64) error
}

// CartHandler implements the session-scoped shopping cart. Every
// mutation answers with the refreshed cart so the storefront can render
// it without a second round trip.
type CartHandler struct {
	Cart     CartStore
	Products ProductStore
}

func NewCartHandler(c CartStore, p ProductStore) *CartHandler {
	return &CartHandler{Cart: c, Products: p}
}

type cartLineResp struct {
	productResp
	Quantity int `json:"quantity"`
}

func (h *CartHandler) respond(ctx context.Context, c echo.Context, userID uint64) error {
	lines, err := h.Cart.Lines(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]cartLineResp, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineResp{productResp: toProductResp(l.Product), Quantity: l.Quantity})
	}
	return c.JSON(http.StatusOK, out)
}

// List returns the caller's cart.
func (h *CartHandler) List(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	return h.respond(ctx, c, uid)
}

type addToCartReq struct {
	ProductID uint64 `json:"productId"`
}

// Add puts one unit of a product into the cart. Re-adding bumps the
// quantity.
func (h *CartHandler) Add(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addToCartReq
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "productId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Products.GetByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Cart.Add(ctx, uid, req.ProductID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to cart failed"})
	}

	return h.respond(ctx, c, uid)
}

type updateQuantityReq struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity pins a cart item (addressed by product id, like the
// add call) to an exact quantity. Zero removes the item.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req updateQuantityReq
	if err := c.Bind(&req); err != nil || req.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be zero or positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.SetQuantity(ctx, uid, productID, req.Quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not in cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update cart failed"})
	}

	return h.respond(ctx, c, uid)
}

type removeFromCartReq struct {
	ProductID uint64 `json:"productId"`
}

// Remove deletes one product from the cart, or empties the whole cart
// when no productId is given.
func (h *CartHandler) Remove(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req removeFromCartReq
	_ = c.Bind(&req) // empty body empties the cart

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.ProductID == 0 {
		if err := h.Cart.Clear(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear cart failed"})
		}
		return h.respond(ctx, c, uid)
	}

	if err := h.Cart.Remove(ctx, uid, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not in cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove from cart failed"})
	}

	return h.respond(ctx, c, uid)
}
