package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	mW "github.com/rufm/ledger/internal/middleware"
	"github.com/rufm/ledger/internal/services"
)

// RouterConfig wires the API. An empty JWTSecret leaves write routes open.
type RouterConfig struct {
	Ledger      *services.LedgerService
	Idempotency *services.IdempotencyStore
	JWTSecret   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	accounts := NewAccountHandler(cfg.Ledger)
	transactions := NewTransactionHandler(cfg.Ledger, cfg.Idempotency)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"Idempotent-Replayed"},
		MaxAge:         86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		services.SendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts", accounts.ListAccounts)
		r.Get("/accounts/by-name/{name}", accounts.GetAccountByName)
		r.Get("/accounts/{id}", accounts.GetAccount)
		r.Get("/accounts/{id}/balance", accounts.GetBalance)
		r.Get("/accounts/{id}/transactions", accounts.GetAccountTransactions)
		r.Get("/transactions", transactions.ListTransactions)

		r.Group(func(r chi.Router) {
			if cfg.JWTSecret != "" {
				r.Use(mW.Auth(cfg.JWTSecret))
			}

			r.Post("/accounts", accounts.CreateAccount)
			r.Put("/accounts/{id}/initial-balance", accounts.UpdateInitialBalance)
			r.Post("/transactions", transactions.CreateTransaction)
		})
	})

	return r
}
