package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rufm/ledger/internal/config"
	"github.com/rufm/ledger/internal/database"
	"github.com/rufm/ledger/internal/handlers"
	"github.com/rufm/ledger/internal/repository"
	"github.com/rufm/ledger/internal/services"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file (default: ./.env if present)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, dialect, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := database.InitRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledger := services.NewLedgerService(repository.NewSQLStore(db, dialect), logger)
	idempotency := services.NewIdempotencyStore(redisClient, cfg.Idempotency.TTL)
	if cfg.JWT.SecretKey == "" {
		log.Println("JWT_SECRET_KEY not set, write endpoints are unauthenticated")
	}

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Ledger:      ledger,
			Idempotency: idempotency,
			JWTSecret:   cfg.JWT.SecretKey,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on %s (%s store)", server.Addr, dialect.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
