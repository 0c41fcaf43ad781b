package main

import (
	"strconv"
	"time"

	"opportunity-service/internal/handler"
	"opportunity-service/internal/middleware"
	"opportunity-service/pkg/config"
	"opportunity-service/pkg/database"
	"opportunity-service/pkg/logger"
	"opportunity-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting opportunity service...", zap.String("environment", cfg.Server.Env))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.Name))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, middleware.TenantHeader},
	}))
	e.Use(middleware.RequestIDMiddleware)

	// Request logging and HTTP metrics middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			statusStr := strconv.Itoa(status)

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", duration),
				zap.String("ip", c.RealIP()),
			)

			prometheus.HttpRequestsTotal.WithLabelValues(
				c.Request().Method, c.Path(), statusStr).Inc()
			prometheus.HttpRequestDuration.WithLabelValues(
				c.Request().Method, c.Path(), statusStr).Observe(duration.Seconds())

			return err
		}
	})

	// Public routes that don't require a tenant
	e.GET("/", handler.Hello)
	e.GET("/health", handler.HealthCheck)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetHandler()))

	// API routes that require a tenant identifier
	api := e.Group("/api")
	api.Use(middleware.TenantMiddleware)

	opportunities := api.Group("/opportunities")
	opportunities.GET("/due", handler.ListDueActions)
	opportunities.POST("/:id/complete_action", handler.CompleteAction)

	// Demo reset wipes both tables; keep it opt-in
	if cfg.Demo.Enabled {
		api.POST("/demo/reset", handler.ResetDemoData)
		log.Info("Demo reset endpoint enabled")
	}

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
