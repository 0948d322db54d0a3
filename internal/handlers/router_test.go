package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rufm/ledger/internal/database"
	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/repository"
	"github.com/rufm/ledger/internal/services"
)

func newTestLedger(t *testing.T) *services.LedgerService {
	t.Helper()
	db, err := database.OpenSQLite(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, repository.SQLite))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return services.NewLedgerService(repository.NewSQLStore(db, repository.SQLite), logger)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{
		Ledger:      newTestLedger(t),
		Idempotency: services.NewIdempotencyStore(nil, time.Hour),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	w := doJSON(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestAccountsAPI(t *testing.T) {
	router := newTestRouter(t)

	t.Run("create", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{
			"name": "main", "initial_balance": 1000,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var account models.Account
		decodeBody(t, w, &account)
		assert.Equal(t, int64(1), account.ID)
		assert.Equal(t, models.AccountTypeAsset, account.AccountType)

		w = doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{
			"name": "food", "account_type": "Expense",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{"name": "main"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{
			"name": "x", "account_type": "Liability",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp services.ErrorResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "Validation failed", resp.Error)
		assert.Contains(t, resp.Details, "AccountType")
	})

	t.Run("unknown field", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{"name": "x", "balance": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list and filter", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/accounts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var all struct{ Accounts []models.Account }
		decodeBody(t, w, &all)
		assert.Len(t, all.Accounts, 2)

		w = doJSON(t, router, http.MethodGet, "/api/v1/accounts?type=expense", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var expenses struct{ Accounts []models.Account }
		decodeBody(t, w, &expenses)
		require.Len(t, expenses.Accounts, 1)
		assert.Equal(t, "food", expenses.Accounts[0].Name)

		w = doJSON(t, router, http.MethodGet, "/api/v1/accounts?type=equity", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get by id and name", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/accounts/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var summary models.AccountSummary
		decodeBody(t, w, &summary)
		assert.Equal(t, "main", summary.Name)
		assert.Equal(t, int64(1000), summary.Balance)

		w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/by-name/food", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/by-name/nobody", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update initial balance", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/v1/accounts/1/initial-balance", map[string]any{"initial_balance": -50})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var account models.Account
		decodeBody(t, w, &account)
		assert.Equal(t, int64(-50), account.InitialBalance)

		w = doJSON(t, router, http.MethodPut, "/api/v1/accounts/1/initial-balance", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, router, http.MethodPut, "/api/v1/accounts/42/initial-balance", map[string]any{"initial_balance": 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTransactionsAPI(t *testing.T) {
	router := newTestRouter(t)
	for _, name := range []string{"main", "other"} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	transfer := func(amount int64, source, destination, date string) *httptest.ResponseRecorder {
		return doJSON(t, router, http.MethodPost, "/api/v1/transactions", map[string]any{
			"name":                source + " to " + destination,
			"amount":              amount,
			"source_account":      source,
			"destination_account": destination,
			"date":                date,
		})
	}

	w := transfer(100, "main", "other", "2024-01-10")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Success     bool
		Transaction models.TransactionResponse
	}
	decodeBody(t, w, &created)
	assert.True(t, created.Success)
	assert.Equal(t, "2024-01-10", created.Transaction.Date)
	assert.Equal(t, "other", created.Transaction.DestinationAccount)

	require.Equal(t, http.StatusCreated, transfer(40, "other", "main", "2024-01-11").Code)
	require.Equal(t, http.StatusCreated, transfer(12, "other", "main", "2024-01-13").Code)
	require.Equal(t, http.StatusCreated, transfer(117, "main", "other", "2024-01-13").Code)
	require.Equal(t, http.StatusCreated, transfer(26, "main", "other", "2024-01-14").Code)

	t.Run("rejected transfers", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, transfer(1, "main", "ghost", "2024-01-10").Code)
		assert.Equal(t, http.StatusUnprocessableEntity, transfer(1, "main", "main", "2024-01-10").Code)
		assert.Equal(t, http.StatusBadRequest, transfer(0, "main", "other", "2024-01-10").Code)
		assert.Equal(t, http.StatusBadRequest, transfer(1, "main", "other", "January 10").Code)
	})

	t.Run("balance as of a date", func(t *testing.T) {
		cases := map[string]int64{
			"2024-01-09": 0,
			"2024-01-13": -165,
			"2024-01-20": -191,
		}
		for date, want := range cases {
			w := doJSON(t, router, http.MethodGet, "/api/v1/accounts/1/balance?as_of="+date, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var resp struct {
				Balance int64  `json:"balance"`
				AsOf    string `json:"as_of"`
			}
			decodeBody(t, w, &resp)
			assert.Equal(t, want, resp.Balance, date)
			assert.Equal(t, date, resp.AsOf)
		}

		w := doJSON(t, router, http.MethodGet, "/api/v1/accounts/1/balance?as_of=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/99/balance", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("account transactions carry direction", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/accounts/1/transactions?as_of=2024-01-11", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Transactions []models.TransactionResponse `json:"transactions"`
		}
		decodeBody(t, w, &resp)
		require.Len(t, resp.Transactions, 2)
		assert.False(t, *resp.Transactions[0].IsDebit)
		assert.Equal(t, int64(40), *resp.Transactions[0].SignedAmount)
		assert.True(t, *resp.Transactions[1].IsDebit)
		assert.Equal(t, int64(-100), *resp.Transactions[1].SignedAmount)
	})

	t.Run("list names the accounts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/transactions", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Transactions []models.TransactionResponse `json:"transactions"`
		}
		decodeBody(t, w, &resp)
		require.Len(t, resp.Transactions, 5)
		assert.Equal(t, "2024-01-14", resp.Transactions[0].Date)
		assert.Equal(t, "main", resp.Transactions[0].SourceAccount)
		assert.Equal(t, "other", resp.Transactions[0].DestinationAccount)
	})

	t.Run("idempotency key must be a UUID", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", map[string]any{
			"name": "x", "amount": 1, "source_account": "main", "destination_account": "other",
		}, "Idempotency-Key", "not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateTransaction_Idempotency(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	for _, name := range []string{"main", "other"} {
		_, err := ledger.CreateAccount(ctx, &models.CreateAccountRequest{Name: name})
		require.NoError(t, err)
	}

	ttl := time.Hour
	key := "6f9c2b1e-3a4d-4e5f-8a7b-9c0d1e2f3a4b"
	request := map[string]any{
		"name": "rent", "amount": 100, "source_account": "main", "destination_account": "other", "date": "2024-01-10",
	}
	expected, err := json.Marshal(map[string]any{
		"success": true,
		"transaction": models.TransactionResponse{
			ID:                   1,
			Name:                 "rent",
			SourceAccountID:      1,
			SourceAccount:        "main",
			DestinationAccountID: 2,
			DestinationAccount:   "other",
			Amount:               100,
			Date:                 "2024-01-10",
		},
	})
	require.NoError(t, err)

	client, mock := redismock.NewClientMock()
	router := NewRouter(RouterConfig{
		Ledger:      ledger,
		Idempotency: services.NewIdempotencyStore(client, ttl),
	})

	mock.ExpectSetNX("idempotency:"+key, "PENDING", ttl).SetVal(true)
	mock.ExpectSet("idempotency:"+key, expected, ttl).SetVal("OK")

	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", request, "Idempotency-Key", key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, string(expected), w.Body.String())

	mock.ExpectSetNX("idempotency:"+key, "PENDING", ttl).SetVal(false)
	mock.ExpectGet("idempotency:" + key).SetVal(string(expected))

	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", request, "Idempotency-Key", key)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(expected), w.Body.String())

	mock.ExpectSetNX("idempotency:"+key, "PENDING", ttl).SetVal(false)
	mock.ExpectGet("idempotency:" + key).SetVal("PENDING")

	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", request, "Idempotency-Key", key)
	assert.Equal(t, http.StatusConflict, w.Code)

	transactions, err := ledger.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTransaction_FailureReleasesKey(t *testing.T) {
	ledger := newTestLedger(t)
	ttl := time.Hour
	key := "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"

	client, mock := redismock.NewClientMock()
	router := NewRouter(RouterConfig{
		Ledger:      ledger,
		Idempotency: services.NewIdempotencyStore(client, ttl),
	})

	mock.ExpectSetNX("idempotency:"+key, "PENDING", ttl).SetVal(true)
	mock.ExpectDel("idempotency:" + key).SetVal(1)

	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", map[string]any{
		"name": "x", "amount": 1, "source_account": "a", "destination_account": "b",
	}, "Idempotency-Key", key)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteRoutesRequireToken(t *testing.T) {
	secret := "test-secret"
	router := NewRouter(RouterConfig{
		Ledger:      newTestLedger(t),
		Idempotency: services.NewIdempotencyStore(nil, time.Hour),
		JWTSecret:   secret,
	})

	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{"name": "main"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "owner",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodPost, "/api/v1/accounts", map[string]any{"name": "main"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
