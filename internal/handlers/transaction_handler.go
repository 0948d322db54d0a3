package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/services"
)

const idempotencyHeader = "Idempotency-Key"

type TransactionHandler struct {
	service     *services.LedgerService
	idempotency *services.IdempotencyStore
}

func NewTransactionHandler(service *services.LedgerService, idempotency *services.IdempotencyStore) *TransactionHandler {
	return &TransactionHandler{
		service:     service,
		idempotency: idempotency,
	}
}

// ListTransactions lists every transaction, most recent first, with the
// names of the accounts involved.
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.ListTransactionsWithAccounts(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	transactions := make([]models.TransactionResponse, 0, len(listing.Transactions))
	for _, t := range listing.Transactions {
		resp := models.NewTransactionResponse(t)
		resp.SourceAccount = listing.AccountName(t.SourceAccountID)
		resp.DestinationAccount = listing.AccountName(t.DestinationAccountID)
		transactions = append(transactions, resp)
	}

	services.SendJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

// CreateTransaction records a transfer between two accounts named in the
// body. A request carrying an Idempotency-Key (a UUID) that has already
// succeeded is answered with the original response.
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(idempotencyHeader)
	if key != "" {
		if _, err := uuid.Parse(key); err != nil {
			services.SendErrorResponse(w, "Idempotency-Key must be a UUID", http.StatusBadRequest, nil)
			return
		}
	}

	var req models.CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendDecodeError(w, err)
		return
	}

	if key != "" {
		replay, err := h.idempotency.Begin(r.Context(), key)
		if err != nil {
			sendServiceError(w, err)
			return
		}
		if replay != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(http.StatusOK)
			w.Write(replay)
			return
		}
	}

	transaction, err := h.service.CreateTransaction(r.Context(), &req)
	if err != nil {
		if key != "" {
			if abortErr := h.idempotency.Abort(r.Context(), key); abortErr != nil {
				log.Printf("[TRANSACTION] Failed to release idempotency key %s: %v", key, abortErr)
			}
		}
		sendServiceError(w, err)
		return
	}

	resp := models.NewTransactionResponse(*transaction)
	resp.SourceAccount = req.SourceAccount
	resp.DestinationAccount = req.DestinationAccount
	body, err := json.Marshal(map[string]any{
		"success":     true,
		"transaction": resp,
	})
	if err != nil {
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	if key != "" {
		if err := h.idempotency.Complete(r.Context(), key, body); err != nil {
			log.Printf("[TRANSACTION] Failed to store idempotent response for %s: %v", key, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(body)
}
