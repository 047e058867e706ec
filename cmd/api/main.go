package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/finpilot/finpilot-api/docs" // Swagger docs (generated)
	"github.com/finpilot/finpilot-api/internal/auth"
	"github.com/finpilot/finpilot-api/internal/config"
	"github.com/finpilot/finpilot-api/internal/database"
	httpServer "github.com/finpilot/finpilot-api/internal/http"
	"github.com/finpilot/finpilot-api/internal/logging"
	"github.com/finpilot/finpilot-api/internal/ratelimit"
	"github.com/finpilot/finpilot-api/internal/user"
)

// @title           FinPilot Auth API
// @version         1.0
// @description     Authentication service for the FinPilot expense-claim application.

// @host      localhost:5000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_backend", cfg.Auth.TokenBackend,
	)

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Database connectivity uses a bounded retry policy. When the store
	// stays unreachable, DB_REQUIRED decides between failing startup and
	// serving degraded with auth routes disabled.
	db, err := database.Connect(context.Background(), cfg.Database, logger)
	if err != nil {
		if cfg.Database.Required {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Warn("continuing without a user store", "error", err.Error())
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	var authHandler *auth.Handler
	var authMiddleware *auth.Middleware

	if db != nil {
		if err := database.Migrate(context.Background(), db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		redisClient, err := initRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		userRepo := user.NewRepository(db)
		rateLimiter := ratelimit.NewLimiter(redisClient)

		authService := auth.NewService(userRepo, tokenService, logger, cfg.Auth.TokenDuration)
		authHandler = auth.NewHandler(authService, rateLimiter, logger)
		authMiddleware = auth.NewMiddleware(tokenService)
	}

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newTokenService builds the configured session token backend
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenBackend {
	case config.TokenBackendPaseto:
		return auth.NewPasetoService(cfg.PasetoKey)
	default:
		return auth.NewJWTService(cfg.JWTSecret)
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
