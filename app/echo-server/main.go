package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpMetrics "onlineShop/app/echo-server/metrics"
	"onlineShop/app/echo-server/router"
	"onlineShop/business/cart"
	"onlineShop/business/product"
	userService "onlineShop/business/user"
	"onlineShop/internal/middleware"
	"onlineShop/internal/repository/kafka"
	psqlRepo "onlineShop/internal/repository/postgres"
	redisRepo "onlineShop/internal/repository/redis"
	"onlineShop/internal/rest"
	"onlineShop/pkg/config"
	"onlineShop/pkg/database"
	redisClient "onlineShop/pkg/database/redis"
	"onlineShop/pkg/logger"
	"onlineShop/pkg/metrics"
	"onlineShop/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Online Shop API", "version", cfg.App.Version)

	metrics.Init()
	httpMetrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close(db)

	logger.Info("Database connected successfully")

	rdb, err := redisClient.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, product listings will be served from the database", "error", err)
	}
	defer redisClient.CloseRedisClient(rdb)

	var dispatcher kafka.Dispatcher = kafka.DiscardDispatcher{}
	if d, err := kafka.NewEmailDispatcher(cfg.Kafka.Brokers, cfg.Kafka.EmailTopic); err != nil {
		logger.Warn("Kafka unavailable, verification emails will be dropped", "error", err)
	} else {
		dispatcher = d
	}
	defer dispatcher.Close()

	// Init validate
	validate := validator.New()
	tokens := utils.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL())

	// Init repo
	tx := psqlRepo.NewTransactor(db)
	userRepo := psqlRepo.NewUserRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	productsRepo := psqlRepo.NewProductRepository(db)
	productCache := redisRepo.NewProductCacheRepository(rdb)

	// Init service
	userSvc := userService.NewUserService(userRepo, validate, dispatcher, tokens, tx)
	cartSvc := cart.NewCartService(ordersRepo, productsRepo, userRepo, tx)
	productSvc := product.NewProductService(productsRepo, ordersRepo, productCache, tx, cfg.Redis.ProductListTTL)

	// Init handler
	handlers := router.Handlers{
		Cart:    rest.NewCartHandler(cartSvc, validate, cfg.Server.RequestTimeout),
		Product: rest.NewProductHandler(productSvc, validate, cfg.Server.RequestTimeout),
		User:    rest.NewUserHandler(userSvc, validate, cfg.Server.RequestTimeout),
	}

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(httpMetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	router.Register(e, router.Routes(handlers), middleware.AuthMiddleware(tokens, userSvc))
	router.SetupOpsRoutes(e, map[string]router.Check{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	})

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
