package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/config"
	"github.com/iliyamo/ecommerce-backend/internal/database"
	"github.com/iliyamo/ecommerce-backend/internal/handler"
	"github.com/iliyamo/ecommerce-backend/internal/middleware"
	"github.com/iliyamo/ecommerce-backend/internal/queue"
	"github.com/iliyamo/ecommerce-backend/internal/repository"
	"github.com/iliyamo/ecommerce-backend/internal/router"
	"github.com/iliyamo/ecommerce-backend/internal/storage"
)

func main() {
	// Load .env when present; real deployments set the variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb == nil {
		log.Printf("redis unavailable: refresh store degrades to no-ops, caching and rate limiting disabled")
		if cfg.RefreshStoreStrict {
			log.Fatalf("REFRESH_STORE_STRICT is set but redis is unavailable")
		}
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(rdb, cfg.RefreshTTLDays, cfg.RefreshStoreStrict)
	products := repository.NewProductRepo(db, rdb)
	carts := repository.NewCartRepo(db)
	coupons := repository.NewCouponRepo(db)
	orders := repository.NewOrderRepo(db)

	images := storage.NewImageStoreFromEnv(context.Background())

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	productHandler := handler.NewProductHandler(products, images)
	cartHandler := handler.NewCartHandler(carts, products)
	couponHandler := handler.NewCouponHandler(coupons)
	paymentHandler := handler.NewPaymentHandler(orders, products, coupons)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, cfg, users, authHandler,
		middleware.NewAuthRateLimit(config.LoadRateLimitConfig(), rdb))
	router.RegisterCatalog(e, cfg, users, productHandler, cartHandler, couponHandler, paymentHandler)

	// Background consumer for order events; reconnects on its own.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
