package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/kilobyteno/LANMS/internal/app/auth"
	v1 "github.com/kilobyteno/LANMS/internal/app/handler/v1"
	"github.com/kilobyteno/LANMS/internal/app/middleware"
	"github.com/kilobyteno/LANMS/internal/app/model/api"
	"github.com/kilobyteno/LANMS/internal/app/repo"
	"github.com/kilobyteno/LANMS/internal/client/email"
	"github.com/kilobyteno/LANMS/internal/config"
	"github.com/kilobyteno/LANMS/internal/utils"
)

const version = "3.0.0"

// healthPath is excluded from request logging so uptime probes stay quiet.
const healthPath = "/v3/system/up"

// @title LANMS API
// @version 3.0
// @description Backend for the LAN-party management system: signup, sessions and password lifecycle.

// @contact.name kilobyte
// @contact.url https://kilobyte.no

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v3

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": version,
	}).Info("Starting lanms-backend")

	db, err := setupDatabase(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to setup database: %v", err)
	}
	defer db.Close()

	redisClient, err := setupRedis(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to setup Redis: %v", err)
	}
	defer redisClient.Close()

	userRepo := repo.NewUserRepository(db)
	otpRepo := repo.NewOtpRepository(db)
	rateLimitRepo := repo.NewRateLimitRepository(redisClient)

	emailClient := email.NewClient(
		cfg.Email.ServiceURL,
		cfg.Email.FromEmail,
		time.Duration(cfg.Email.Timeout)*time.Second,
		cfg.Email.RetryCount,
		logger,
	)

	jwtManager := utils.NewJWTManager(
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.AccessTokenTTLMinutes,
		cfg.JWT.RefreshTokenTTLMinutes,
	)

	totpManager := utils.NewTOTPManager(cfg.OTP.SecretKey, cfg.OTP.Digits, cfg.App.Name)

	authService := auth.NewService(
		userRepo,
		otpRepo,
		emailClient,
		jwtManager,
		totpManager,
		logger,
		&auth.Config{
			OTPValidity:       time.Duration(cfg.OTP.ValiditySecs) * time.Second,
			PasswordMinLength: cfg.App.PasswordMinLength,
			PortalURL:         cfg.App.PortalURL,
		},
	)

	router := setupRouter(cfg, authService, jwtManager, rateLimitRepo, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"host": cfg.Server.Host,
			"port": cfg.Server.Port,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func setupDatabase(cfg *config.Config, logger *logrus.Logger) (*bun.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.App.Environment == "development" {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Database connected successfully")
	return db, nil
}

func setupRedis(cfg *config.Config, logger *logrus.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connected successfully")
	return client, nil
}

func setupRouter(
	cfg *config.Config,
	authService auth.Service,
	jwtManager *utils.JWTManager,
	rateLimitRepo repo.RateLimitRepository,
	logger *logrus.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(logger, healthPath))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.App.PortalURL))
	r.Use(middleware.RateLimit(
		rateLimitRepo,
		logger,
		int64(cfg.App.RateLimitRequests),
		time.Duration(cfg.App.RateLimitWindow)*time.Second,
		time.Duration(cfg.App.RateLimitWindow)*time.Second,
	))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, &api.HealthResponse{
			Status:  "healthy",
			Service: cfg.App.Name,
			Version: version,
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	authMW := middleware.NewAuthMiddleware(jwtManager, authService, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/v3", func(r chi.Router) {
			authHandler := v1.NewAuthHandler(authService, authMW, logger)
			authHandler.RegisterRoutes(r)
		})
	})

	return r
}
