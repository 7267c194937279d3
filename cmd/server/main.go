package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lexacademy/checkout/internal/catalog"
	"github.com/lexacademy/checkout/internal/config"
	"github.com/lexacademy/checkout/internal/handlers"
	"github.com/lexacademy/checkout/internal/middleware"
	"github.com/lexacademy/checkout/internal/orderapi"
	"github.com/lexacademy/checkout/internal/pricing"
	"github.com/lexacademy/checkout/internal/proof"
	"github.com/lexacademy/checkout/internal/repository"
	"github.com/lexacademy/checkout/internal/service"
	"github.com/lexacademy/checkout/internal/shipping"
	"github.com/lexacademy/checkout/pkg/logger"
)

// orderBackend is what the checkout flow and the customer order pages need
// from the order API
type orderBackend interface {
	service.OrderCreator
	handlers.OrderReader
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting checkout api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"test_mode", cfg.Checkout.TestModeEnabled,
	)

	ctx := context.Background()
	checks := map[string]handlers.HealthCheck{}

	// Cart storage
	var cartRepo repository.CartRepository = repository.NewInMemoryCartRepository()
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		cartRepo = repository.NewRedisCartRepository(redisClient, time.Duration(cfg.Redis.CartTTLMin)*time.Minute)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("cart storage: redis", "addr", cfg.Redis.Addr)
	} else {
		log.Info("cart storage: in-memory")
	}

	// Order storage
	var orderRepo repository.OrderRepository = repository.NewInMemoryOrderRepository(cfg.Checkout.IdempotencyCapacity)
	var mongoClient *mongo.Client
	if cfg.Mongo.URI != "" {
		db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Error("failed to connect to mongodb", "error", err)
			os.Exit(1)
		}
		mongoClient = db.Client()

		mongoRepo := repository.NewMongoOrderRepository(db, cfg.Checkout.IdempotencyCapacity)
		if err := mongoRepo.CreateIndexes(ctx); err != nil {
			log.Error("failed to create order indexes", "error", err)
			os.Exit(1)
		}
		orderRepo = mongoRepo
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
		log.Info("order storage: mongodb", "database", cfg.Mongo.Database)
	} else {
		log.Info("order storage: in-memory")
	}

	// Initialize repositories and services
	productRepo := repository.NewInMemoryProductRepository()
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(productRepo, cartRepo, cfg.Checkout.DemoUserID)
	orderService := service.NewOrderService(orderRepo, log)

	// Orders go to the remote order API when one is configured, otherwise
	// to the persistence API served by this process.
	var orders orderBackend = orderService
	if cfg.OrderAPI.BaseURL != "" {
		client, err := orderapi.NewClient(cfg.OrderAPI.BaseURL, cfg.OrderAPI.APIKey, time.Duration(cfg.OrderAPI.Timeout)*time.Second)
		if err != nil {
			log.Error("invalid order api configuration", "error", err)
			os.Exit(1)
		}
		orders = client
		log.Info("order creation: remote", "base_url", cfg.OrderAPI.BaseURL)
	}

	checkoutService := service.NewCheckoutService(
		catalog.NewResolver(productRepo),
		shipping.NewDefaultClassifier(),
		pricing.NewCalculator(nil),
		repository.NewInMemorySessionStore(time.Duration(cfg.Checkout.SessionTTLMin)*time.Minute),
		cartRepo,
		orders,
		proof.NewPlaceholderStore(cfg.Checkout.ProofPlaceholderURL),
		service.CheckoutOptions{
			TestModeEnabled:    cfg.Checkout.TestModeEnabled,
			ProofMaxBytes:      cfg.Checkout.ProofMaxBytes,
			DemoUserID:         cfg.Checkout.DemoUserID,
			PlaceholderSlipURL: cfg.Checkout.ProofPlaceholderURL,
		},
		log,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(checks, log)
	productHandler := handlers.NewProductHandler(productService, log)
	cartHandler := handlers.NewCartHandler(cartService, log)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	customerOrderHandler := handlers.NewCustomerOrderHandler(orders, cfg.Checkout.DemoUserID, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Identity)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.HeaderAPIKey, middleware.HeaderUserID},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{productId}", productHandler.GetProduct)

		r.Get("/cart", cartHandler.GetCart)
		r.Delete("/cart", cartHandler.ClearCart)
		r.Post("/cart/items", cartHandler.AddItem)

		r.Post("/checkout", checkoutHandler.Start)
		r.Route("/checkout/{checkoutId}", func(r chi.Router) {
			r.Get("/", checkoutHandler.Get)
			r.Put("/shipping", checkoutHandler.UpdateShipping)
			r.Put("/payment-method", checkoutHandler.SetPaymentMethod)
			r.Post("/proof", checkoutHandler.UploadProof)
			r.Post("/submit", checkoutHandler.Submit)
			if checkoutService.TestModeEnabled() {
				r.Post("/submit-test", checkoutHandler.SubmitTest)
			}
		})

		r.Get("/orders", customerOrderHandler.ListMine)
		r.Get("/orders/{orderId}/status", customerOrderHandler.GetStatus)

		// Order persistence API
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth))
			r.Post("/orders", orderHandler.CreateOrder)
			r.Get("/orders/{orderId}", orderHandler.GetOrder)
			r.Get("/users/{userId}/orders", orderHandler.ListUserOrders)
		})
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Warn("failed to disconnect mongodb", "error", err)
		}
	}

	log.Info("server stopped gracefully")
}
