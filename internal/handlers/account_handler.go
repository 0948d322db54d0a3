package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/services"
)

type AccountHandler struct {
	service   *services.LedgerService
	validator *services.ValidationHelper
}

func NewAccountHandler(service *services.LedgerService) *AccountHandler {
	return &AccountHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// ListAccounts lists accounts, optionally filtered by ?type=Asset|Expense|Revenue
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	var (
		accounts []models.Account
		err      error
	)
	if raw := r.URL.Query().Get("type"); raw != "" {
		accountType, parseErr := models.ParseAccountType(raw)
		if parseErr != nil {
			services.SendErrorResponse(w, parseErr.Error(), http.StatusBadRequest, nil)
			return
		}
		accounts, err = h.service.ListAccountsByType(r.Context(), accountType)
	} else {
		accounts, err = h.service.ListAccounts(r.Context())
	}
	if err != nil {
		sendServiceError(w, err)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendDecodeError(w, err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), &req)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	services.SendJSON(w, http.StatusCreated, account)
}

// GetAccount returns the account with its current balance.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDParam(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	account, err := h.service.GetAccountByID(r.Context(), id)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	balance, err := h.service.GetAccountBalance(r.Context(), id)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	services.SendJSON(w, http.StatusOK, models.AccountSummary{Account: *account, Balance: balance})
}

func (h *AccountHandler) GetAccountByName(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccountByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		sendServiceError(w, err)
		return
	}

	services.SendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) UpdateInitialBalance(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDParam(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	var req models.UpdateInitialBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendDecodeError(w, err)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account, err := h.service.UpdateAccountInitialBalance(r.Context(), id, *req.InitialBalance)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	services.SendJSON(w, http.StatusOK, account)
}

// GetBalance returns the current balance, or the end-of-day balance for ?as_of=YYYY-MM-DD.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDParam(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	var balance int64
	if asOf != nil {
		balance, err = h.service.GetAccountBalanceAsOfDate(r.Context(), id, *asOf)
	} else {
		balance, err = h.service.GetAccountBalance(r.Context(), id)
	}
	if err != nil {
		sendServiceError(w, err)
		return
	}

	resp := map[string]any{
		"account_id": id,
		"balance":    balance,
	}
	if asOf != nil {
		resp["as_of"] = asOf.Format(models.DateLayout)
	}
	services.SendJSON(w, http.StatusOK, resp)
}

// GetAccountTransactions lists the account's transactions with their
// direction relative to it.
func (h *AccountHandler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDParam(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	annotated, err := h.service.GetAccountTransactions(r.Context(), id, asOf)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	transactions := make([]models.TransactionResponse, 0, len(annotated))
	for _, at := range annotated {
		resp := models.NewTransactionResponse(at.Transaction)
		isDebit, signed := at.IsDebit, at.SignedAmount()
		resp.IsDebit = &isDebit
		resp.SignedAmount = &signed
		transactions = append(transactions, resp)
	}

	services.SendJSON(w, http.StatusOK, map[string]any{
		"account_id":   id,
		"transactions": transactions,
	})
}
