package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/uma-shankar-2005/Bloomcart/cache"
	"github.com/uma-shankar-2005/Bloomcart/catalog"
	"github.com/uma-shankar-2005/Bloomcart/database"
	"github.com/uma-shankar-2005/Bloomcart/events"
	"github.com/uma-shankar-2005/Bloomcart/handlers"
	"github.com/uma-shankar-2005/Bloomcart/middleware"
	"github.com/uma-shankar-2005/Bloomcart/payment"
	"github.com/uma-shankar-2005/Bloomcart/service"
	"github.com/uma-shankar-2005/Bloomcart/store"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitDB(logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize OpenTelemetry
	shutdown, err := middleware.InitTracing("bloomcart")
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdown()

	// Redis is a read-through cache for the catalog; the store runs without it
	redisClient, err := cache.InitRedis(logger)
	if err != nil {
		logger.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		redisClient = nil
	}

	// Kafka order events are best-effort; the checkout path runs without a broker
	var publisher events.Publisher
	if producer, err := events.InitProducer(logger); err != nil {
		logger.Warn("Kafka unavailable, order events disabled", zap.Error(err))
	} else {
		defer producer.Close()
		publisher = events.NewProducer(producer, logger)
	}

	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	defer stopNotifier()
	if getEnv("NOTIFICATIONS_ENABLED", "false") == "true" {
		if consumer, err := events.InitConsumer(logger); err != nil {
			logger.Warn("Kafka unavailable, notifications disabled", zap.Error(err))
		} else {
			defer consumer.Close()
			notifier := events.NewNotifier(consumer, logger)
			go func() {
				if err := notifier.Run(notifierCtx); err != nil && err != context.Canceled {
					logger.Error("Notification consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	orderStore := store.NewOrderStore(db)
	gateway := payment.NewBreakerGateway(payment.NewRazorpayClient(logger), 5, 30*time.Second)
	reconciliation := service.NewReconciliationService(orderStore, gateway, publisher, logger)
	catalogService := catalog.NewService(db, redisClient, logger)

	// Setup REST API with Gin
	router := gin.New()
	router.Use(gin.Recovery())
	// OpenTelemetry middleware must be first to extract trace context
	router.Use(otelgin.Middleware("bloomcart"))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	// Auth endpoints
	authHandler := handlers.NewAuthHandler(db, logger)
	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	// Catalog endpoints
	productHandler := handlers.NewProductHandler(catalogService, logger)
	router.GET("/products", productHandler.GetProducts)
	router.GET("/products/featured", productHandler.GetFeaturedProducts)
	router.GET("/products/:id", productHandler.GetProduct)
	router.GET("/products/:id/related", productHandler.GetRelatedProducts)

	// Checkout and order endpoints
	orderHandler := handlers.NewOrderHandler(reconciliation, orderStore, logger)
	authRequired := middleware.AuthRequired(logger)
	router.POST("/orders", authRequired, orderHandler.CreateOrder)
	router.POST("/orders/cancel", authRequired, orderHandler.CancelOrder)
	router.GET("/orders", authRequired, orderHandler.ListOrders)
	// Confirmation arrives from the client-side gateway handler, not a session
	router.POST("/orders/confirm", orderHandler.ConfirmOrder)

	// Start REST server
	srv := &http.Server{
		Addr:    ":" + getEnv("PORT", "8080"),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start REST server", zap.Error(err))
		}
	}()

	logger.Info("BloomCart backend started", zap.String("addr", srv.Addr))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
