package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userauth/backend/internal/config"
	domain "userauth/backend/internal/domain/auth"
	"userauth/backend/internal/httpserver"
	"userauth/backend/internal/infrastructure/hasher"
	"userauth/backend/internal/infrastructure/memory"
	"userauth/backend/internal/infrastructure/postgres"
	"userauth/backend/internal/infrastructure/ratelimit"
	"userauth/backend/internal/infrastructure/token"
	"userauth/backend/internal/logger"
	authusecase "userauth/backend/internal/usecase/auth"
	userusecase "userauth/backend/internal/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New("userauth", cfg.LogLevel)
	slog.SetDefault(log)

	rootCtx := context.Background()

	var (
		users       domain.UserRepository
		credentials domain.CredentialRepository
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := postgres.New(rootCtx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(rootCtx); err != nil {
			log.Error("failed to run database migrations", "error", err)
			os.Exit(1)
		}
		users = postgres.NewUserRepository(db.Pool)
		credentials = postgres.NewCredentialRepository(db.Pool)
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		users, credentials = store, store
	}

	passwordHasher := hasher.NewBcrypt(cfg.BcryptCost)
	accessTokens := token.NewJWTManager(cfg.AccessTokenSecret, cfg.AccessTokenExpiry, cfg.JWTIssuer)
	refreshTokens := token.NewJWTManager(cfg.RefreshTokenSecret, cfg.RefreshTokenExpiry, cfg.JWTIssuer)

	authService := authusecase.NewService(users, credentials, passwordHasher, accessTokens, refreshTokens, log)
	userService := userusecase.NewService(users, credentials, passwordHasher)

	limiter := newLimiter(rootCtx, cfg, log)
	defer limiter.Close()

	server := httpserver.NewServer(cfg, log, authService, userService, limiter)
	log.Info("HTTP server listening", "addr", server.Addr(), "storage", cfg.StorageDriver)

	go func() {
		if err := server.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info("HTTP server closed")
				return
			}
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	} else {
		log.Info("graceful shutdown completed")
	}
}

// newLimiter prefers Redis when configured and falls back to process memory.
func newLimiter(ctx context.Context, cfg config.Config, log *slog.Logger) ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemory()
	}
	limiter, err := ratelimit.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Warn("redis rate limiter unavailable, using in-memory limiter", "addr", cfg.RedisAddr, "error", err)
		return ratelimit.NewMemory()
	}
	return limiter
}
