package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deskhub/facility-backend/internal/config"
	"github.com/deskhub/facility-backend/internal/database"
	"github.com/deskhub/facility-backend/internal/handlers"
	"github.com/deskhub/facility-backend/internal/middleware"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/deskhub/facility-backend/internal/session"
	"github.com/deskhub/facility-backend/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting facility backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Invalid timezone: %v", err)
	}
	clock := services.SystemClock(loc)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	revoker, closeRedis := newRevoker(cfg.Redis, logger)
	defer closeRedis()

	// Repositories
	users := database.NewUserRepository(db)
	profiles := database.NewProfileRepository(db)
	resources := database.NewResourceRepository(db)
	bookings := database.NewBookingRepository(db)
	leases := database.NewLeaseRepository(db)
	plans := database.NewPlanRepository(db)
	subscriptions := database.NewSubscriptionRepository(db)
	settingsRepo := database.NewSystemSettingRepository(db)
	auditRepo := database.NewAuditRepository(db)
	tx := database.NewTxManager(db)

	// Services
	logger.Info("Initializing services...")
	auditService := services.NewAuditService(auditRepo, cfg.Security.EnableAuditLog, clock, logger)
	settingService := services.NewSettingService(settingsRepo, cfg.Booking, auditService, clock, logger)
	userService := services.NewUserService(tx, users, profiles, auditService, cfg.Security.BcryptCost, clock, logger)
	subscriptionService := services.NewSubscriptionService(subscriptions, plans, auditService, clock, logger)
	rateLimiter := services.NewRateLimitService(services.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	svc := handlers.Services{
		Auth:          services.NewAuthService(userService, jwtService, revoker, rateLimiter, auditService, logger),
		Users:         userService,
		Profiles:      services.NewProfileService(tx, users, profiles, clock, logger),
		Resources:     services.NewResourceService(resources, bookings, settingService, auditService, clock, logger),
		Bookings:      services.NewBookingService(tx, bookings, resources, users, settingService, auditService, clock, logger),
		Leases:        services.NewLeaseService(tx, leases, resources, users, auditService, clock, logger),
		Plans:         services.NewPlanService(plans, auditService, clock, logger),
		Subscriptions: subscriptionService,
		Settings:      settingService,
		Reports:       services.NewReportService(bookings, leases, resources, profiles, subscriptionService, auditService, clock, logger),
		Audit:         auditService,
		RateLimiter:   rateLimiter,
	}
	logger.Info("Services initialized")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))
	handlers.RegisterRoutes(router, svc, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// newRevoker returns a Redis revocation list when REDIS_ADDR is set. Without
// Redis, logouts only hold for the lifetime of this process.
func newRevoker(cfg config.RedisConfig, logger *logrus.Logger) (session.Revoker, func()) {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory token revocation")
		return session.NewMemoryRevoker(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("Failed to connect to Redis at %s: %v", cfg.Addr, err)
	}
	logger.WithField("addr", cfg.Addr).Info("Redis connection established")

	return session.NewRedisRevoker(rdb), func() {
		if err := rdb.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
