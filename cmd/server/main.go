package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family_ledger/internal/api"
	"family_ledger/internal/app/service"
	"family_ledger/internal/app/session"
	"family_ledger/internal/common/security"
	"family_ledger/internal/domain/repository"
	"family_ledger/internal/platform/config"
	"family_ledger/internal/platform/database"
	"family_ledger/pkg/logging"
)

func main() {
	// 1. Load Configuration and logging
	config.Load()
	logging.Setup()

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	slog.Info("Database connected", "driver", config.AppConfig.StorageDriver)

	if err := repository.Migrate(context.Background(), database.DB, config.AppConfig.StorageDriver); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Session Store
	var sessions session.Store
	switch config.AppConfig.SessionStore {
	case config.SessionStoreRedis:
		redisStore, err := session.NewRedisStore()
		if err != nil {
			slog.Error("Redis connection failed", "error", err)
			os.Exit(1)
		}
		sessions = redisStore
	default:
		sessions = session.NewMemoryStore()
	}
	defer sessions.Close()
	slog.Info("Session store initialized", "kind", config.AppConfig.SessionStore)

	// 5. Initialize Repositories
	var userRepo repository.UserRepository
	var debtRepo repository.DebtRepository
	if config.AppConfig.StorageDriver == config.StoragePostgres {
		userRepo = repository.NewPgUserRepository(database.DB)
		debtRepo = repository.NewPgDebtRepository(database.DB)
	} else {
		userRepo = repository.NewSqliteUserRepository(database.DB)
		debtRepo = repository.NewSqliteDebtRepository(database.DB)
	}

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, sessions)
	debtService := service.NewDebtService(debtRepo)
	userService := service.NewUserService(userRepo, debtRepo, sessions)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, debtService, userService, sessions, config.AppConfig.StaticDir)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop // Wait for interrupt signal

	slog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped gracefully")
}
