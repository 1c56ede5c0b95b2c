package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"loyalty_points/internal/api"        // Custom package for API handlers
	"loyalty_points/internal/config"     // Custom package for configuration
	"loyalty_points/internal/db"         // Database connection
	"loyalty_points/internal/metrics"    // Request metrics
	"loyalty_points/internal/middleware" // Custom package for middleware
	"loyalty_points/internal/utils"      // Cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to the database
	gdb, err := db.Connect(cfg.DBDriver, cfg.DSN(), !cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client, caching stays off without an address
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logrus.Warn("REDIS_ADDR not set, caching disabled")
	}

	// Rate limiter for auth and point submissions
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopCleanup := make(chan struct{})
	limiter.StartCleanup(time.Minute, stopCleanup)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		DB:        gdb,
		Cache:     utils.NewCache(redisClient, cfg.CacheTTL),
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTTTL,
		Limiter:   limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	// Wait for an interrupt, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")
	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("forced shutdown: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
