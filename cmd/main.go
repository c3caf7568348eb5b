package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bookinfo-reviews/internal/cache"
	"bookinfo-reviews/internal/clients"
	"bookinfo-reviews/internal/config"
	"bookinfo-reviews/internal/handlers"
	"bookinfo-reviews/internal/metrics"
	"bookinfo-reviews/internal/middleware"
	"bookinfo-reviews/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
)

// @title Reviews API
// @version 1.0.0
// @description Book reviews service. Enriches reviews with star ratings from the ratings service when enabled.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:9080
// @BasePath /

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logrus logger
	logger := newLogger(cfg)

	// Initialize ratings cache (optional - graceful degradation if Redis unavailable)
	ratingsCache, err := cache.Connect(context.Background(), cfg.RedisURL, cfg.RatingsCacheTTL)
	if err != nil {
		logger.WithError(err).Warn("Ratings cache unavailable, continuing without caching")
	} else if ratingsCache.Enabled() {
		logger.WithField("ttl", cfg.RatingsCacheTTL.String()).Info("✓ Connected to Redis for ratings caching")
	}
	defer ratingsCache.Close()

	// Initialize Prometheus metrics
	m := metrics.New(nil)

	// Initialize ratings client
	ratingsClient := clients.NewRatingsClient(cfg, ratingsCache, m, logger)
	logger.WithFields(logrus.Fields{
		"enabled": cfg.RatingsEnabled,
		"url":     cfg.RatingsServiceURL,
		"timeout": ratingsClient.Timeout().String(),
	}).Info("✓ Ratings client initialized")

	// Initialize handlers
	reviewsHandler := handlers.NewReviewsHandler(cfg, repository.NewReviewsRepository(), ratingsClient, m, logger)

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))

	// Security headers middleware
	router.Use(gosharedmw.SecurityHeaders())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health and reviews endpoints
	handlers.RegisterRoutes(router, reviewsHandler)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Infof("Reviews service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Allow in-flight requests to finish their ratings call
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RatingsTimeoutLong+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	if !cfg.IsProduction() && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	return logger
}
