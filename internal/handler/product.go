package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/model"
	"github.com/iliyamo/ecommerce-backend/internal/repository"
	"github.com/iliyamo/ecommerce-backend/internal/storage"
)

// ProductStore is the catalog storage consumed by the product
// endpoints. Satisfied by *repository.ProductRepo.
type ProductStore interface {
	All(ctx context.Context) ([]model.Product, error)
	Featured(ctx context.Context) ([]model.Product, error)
	ByCategory(ctx context.Context, category string) ([]model.Product, error)
	Recommendations(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (uint64, error)
	ToggleFeatured(ctx context.Context, id uint64) (model.Product, error)
	Delete(ctx context.Context, id uint64) error
}

// ProductHandler bundles dependencies for catalog endpoints. Images is
// nil when object storage is not configured; products are then created
// without an image, like the original deployment without a CDN account.
type ProductHandler struct {
	Products ProductStore
	Images   *storage.ImageStore
}

func NewProductHandler(p ProductStore, img *storage.ImageStore) *ProductHandler {
	return &ProductHandler{Products: p, Images: img}
}

type createProductReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Category    string `json:"category"`
	IsFeatured  bool   `json:"isFeatured"`
	// Image is an optional base64 data URL ("data:image/png;base64,...").
	Image string `json:"image"`
}

type productResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
	IsFeatured  bool   `json:"isFeatured"`
}

func toProductResp(p model.Product) productResp {
	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		IsFeatured:  p.IsFeatured,
	}
}

func toProductResps(ps []model.Product) []productResp {
	out := make([]productResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductResp(p))
	}
	return out
}

func (h *ProductHandler) list(c echo.Context, query func(context.Context) ([]model.Product, error)) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := query(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProductResps(products))
}

// List returns every product. Admin-only.
func (h *ProductHandler) List(c echo.Context) error {
	return h.list(c, h.Products.All)
}

// Featured returns the featured products, served through the Redis
// cache. An empty list answers 404, matching the storefront contract.
func (h *ProductHandler) Featured(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.Featured(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(products) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no featured products found"})
	}
	return c.JSON(http.StatusOK, toProductResps(products))
}

// ByCategory returns products in the category path parameter.
func (h *ProductHandler) ByCategory(c echo.Context) error {
	category := c.Param("category")
	return h.list(c, func(ctx context.Context) ([]model.Product, error) {
		return h.Products.ByCategory(ctx, category)
	})
}

// Recommendations returns a random sample of three products.
func (h *ProductHandler) Recommendations(c echo.Context) error {
	return h.list(c, h.Products.Recommendations)
}

// Create inserts a product; an attached image is uploaded to object
// storage first so the stored row already carries its final URL.
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive priceCents required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	imageURL := ""
	if req.Image != "" && h.Images != nil {
		data, contentType, err := decodeDataURL(req.Image)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image encoding"})
		}
		imageURL, err = h.Images.Upload(ctx, data, contentType)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "image upload failed"})
		}
	}

	p := model.Product{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    imageURL,
		Category:    req.Category,
		IsFeatured:  req.IsFeatured,
	}
	id, err := h.Products.Create(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	p.ID = id
	return c.JSON(http.StatusCreated, toProductResp(p))
}

// ToggleFeatured flips the featured flag of a product and refreshes the
// featured cache.
func (h *ProductHandler) ToggleFeatured(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.ToggleFeatured(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Delete removes a product and its stored image. A failed image delete
// is logged by the store and does not block removing the row.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if p.ImageURL != "" && h.Images != nil {
		_ = h.Images.Delete(ctx, p.ImageURL)
	}

	if err := h.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted successfully"})
}

// decodeDataURL splits a "data:<type>;base64,<payload>" string into raw
// bytes and content type. Bare base64 defaults to image/jpeg.
func decodeDataURL(s string) ([]byte, string, error) {
	contentType := "image/jpeg"
	payload := s
	if strings.HasPrefix(s, "data:") {
		rest := strings.TrimPrefix(s, "data:")
		semi := strings.Index(rest, ";base64,")
		if semi < 0 {
			return nil, "", errors.New("not a base64 data url")
		}
		contentType = rest[:semi]
		payload = rest[semi+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
