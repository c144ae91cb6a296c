package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cadastre/internal/config"
	"cadastre/internal/database"
	"cadastre/internal/handlers"
	"cadastre/internal/logger"
	"cadastre/internal/middleware"
	"cadastre/internal/repository"
	"cadastre/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Cadastre API", map[string]interface{}{
		"version":     "0.1.0",
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository and service layers
	propertyRepo := repository.NewPropertyRepository()
	recordRepo := repository.NewRecordRepository()
	ownerRepo := repository.NewOwnerRepository()
	historyRepo := repository.NewHistoryRepository()
	referenceRepo := repository.NewReferenceRepository()

	residualPct := decimal.NewFromFloat(cfg.Valuation.MachineryResidualPct)
	engine := services.NewEngine(db, propertyRepo, recordRepo, ownerRepo, historyRepo, referenceRepo, residualPct, log)
	recordService := services.NewRecordService(db.Pool, propertyRepo, recordRepo, ownerRepo, log)
	historyService := services.NewHistoryService(db.Pool, propertyRepo, historyRepo, log)

	// Initialize handlers
	faasHandler := handlers.NewFaasHandler(engine, recordService)
	historyHandler := handlers.NewHistoryHandler(historyService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		faas := v1.Group("/faas")
		{
			faas.POST("", faasHandler.CreateOriginal)
			faas.POST("/consolidation", faasHandler.Consolidation)
			faas.GET("/:id", faasHandler.GetRecord)
			faas.POST("/:id/transfer", faasHandler.Transfer)
			faas.POST("/:id/revision", faasHandler.Revision)
			faas.POST("/:id/reclassify", faasHandler.Reclassify)
			faas.POST("/:id/cancel", faasHandler.Cancel)
			faas.POST("/:id/destroy", faasHandler.Destroy)
			faas.POST("/:id/improvement", faasHandler.Improvement)
			faas.POST("/:id/subdivision", faasHandler.Subdivision)
		}

		properties := v1.Group("/properties")
		{
			properties.GET("/:id/records", faasHandler.ListRecords)
			properties.GET("/:id/history", historyHandler.ListHistory)
		}

		v1.GET("/history/:id", historyHandler.GetHistoryDetail)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
