package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/config"
	"github.com/iliyamo/ecommerce-backend/internal/handler"
	"github.com/iliyamo/ecommerce-backend/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check
// used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints and applies the auth
// rate limiter to the credential routes. Signup, login, logout and
// refresh authenticate through their own credentials (body or refresh
// cookie); only /profile sits behind the session middleware.
func RegisterAuth(e *echo.Echo, cfg config.Config, users middleware.UserProvider, a *handler.AuthHandler, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if rateLimit != nil {
		g.Use(rateLimit)
	}
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.POST("/refresh", a.Refresh)

	session := middleware.SessionAuth(cfg.AccessTokenSecret, users)
	g.GET("/profile", a.Profile, session)
}

// RegisterCatalog registers product, cart, coupon and payment
// endpoints. Browse routes (list, featured, category, recommendations)
// are public; catalog management requires the admin role; the cart,
// coupons and checkout require a session.
func RegisterCatalog(e *echo.Echo, cfg config.Config, users middleware.UserProvider,
	p *handler.ProductHandler, ct *handler.CartHandler, cp *handler.CouponHandler, pay *handler.PaymentHandler) {

	session := middleware.SessionAuth(cfg.AccessTokenSecret, users)

	// Public storefront browsing.
	e.GET("/v1/products", p.List)
	e.GET("/v1/products/featured", p.Featured)
	e.GET("/v1/products/category/:category", p.ByCategory)
	e.GET("/v1/products/recommendations", p.Recommendations)

	// Catalog management, admin only. RequireAdmin runs after the
	// session middleware so a valid non-admin gets 403, not 401.
	admin := e.Group("/v1/products", session, middleware.RequireAdmin)
	admin.POST("", p.Create)
	admin.PUT("/:id", p.ToggleFeatured)
	admin.DELETE("/:id", p.Delete)

	cart := e.Group("/v1/cart", session)
	cart.GET("", ct.List)
	cart.POST("", ct.Add)
	cart.PUT("/:id", ct.UpdateQuantity)
	cart.DELETE("", ct.Remove)

	coupons := e.Group("/v1/coupons", session)
	coupons.GET("", cp.List)
	coupons.POST("", cp.Create)
	coupons.POST("/validate", cp.Validate)

	payments := e.Group("/v1/payments")
	payments.POST("/checkout", pay.Checkout, session)
	payments.POST("/webhook", pay.Webhook) // gateway callback, no session
	payments.GET("/status/:orderId", pay.Status, session)
}
