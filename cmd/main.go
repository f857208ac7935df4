package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hariprasadr/verivoice/adapters/fetch"
	"github.com/hariprasadr/verivoice/adapters/memory"
	"github.com/hariprasadr/verivoice/adapters/mongo"
	"github.com/hariprasadr/verivoice/domain/repositories"
	"github.com/hariprasadr/verivoice/internal/api"
	"github.com/hariprasadr/verivoice/internal/auth"
	"github.com/hariprasadr/verivoice/internal/config"
	"github.com/hariprasadr/verivoice/internal/metrics"
	"github.com/hariprasadr/verivoice/internal/websocket"
	"github.com/hariprasadr/verivoice/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load .env for local development; hosting platforms inject env directly
	_ = godotenv.Load()

	cfg := config.Load(logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	m := metrics.New()
	e.Use(m.Middleware())
	e.GET("/metrics", m.Handler())

	// Storage backend: MongoDB when configured, in-memory otherwise
	var verifications repositories.VerificationRepository
	if cfg.MongoURI != "" {
		client, err := mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(ctx)
		}()
		verifications = mongo.NewVerificationRepository(client.Database)
	} else {
		logger.Info("MONGO_URI not set, using in-memory verification store")
		verifications = memory.NewVerificationRepository()
	}

	// Initialize adapters and usecase services
	fetcher := fetch.NewHTTPFetcher(cfg.FetchTimeout, cfg.MaxDownloadBytes, logger)
	detectionService := usecase.NewDetectionService(fetcher, verifications, cfg.MaxAudioSeconds, logger)

	keys := auth.NewKeyStore(cfg.APIKeys)

	// Initialize WebSocket hub for streaming detection
	hub := websocket.NewHub(detectionService, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, detectionService, hub, keys, cfg.JWTSecret, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
