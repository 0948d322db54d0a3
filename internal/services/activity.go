package services

import (
	"context"
	"log/slog"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/repository"
)

// Activity event types.
const (
	activityAccountCreated = "ACCOUNT_CREATED"
	activityInitialBalance = "INITIAL_BALANCE"
	activityTransfer       = "TRANSFER"
	activityError          = "ERROR"
)

// ActivityLogger records every change to the ledger as one structured event.
type ActivityLogger struct {
	logger *slog.Logger
}

func NewActivityLogger(logger *slog.Logger) *ActivityLogger {
	return &ActivityLogger{logger: logger.With("component", "ledger")}
}

func (a *ActivityLogger) AccountCreated(ctx context.Context, account *models.Account) {
	a.log(ctx, slog.LevelInfo, activityAccountCreated, "SUCCESS",
		"account_id", account.ID,
		"account_name", account.Name,
		"account_type", account.AccountType.String(),
		"initial_balance", account.InitialBalance,
	)
}

func (a *ActivityLogger) InitialBalanceChanged(ctx context.Context, account *models.Account) {
	a.log(ctx, slog.LevelInfo, activityInitialBalance, "SUCCESS",
		"account_id", account.ID,
		"initial_balance", account.InitialBalance,
	)
}

func (a *ActivityLogger) Transfer(ctx context.Context, t *models.Transaction) {
	a.log(ctx, slog.LevelInfo, activityTransfer, "SUCCESS",
		"transaction_id", t.ID,
		"source_account_id", t.SourceAccountID,
		"destination_account_id", t.DestinationAccountID,
		"amount", t.Amount,
		"date", t.Date.Format(models.DateLayout),
	)
}

// Failure logs a rejected write. Storage failures are errors; caller
// mistakes such as an unknown account are warnings.
func (a *ActivityLogger) Failure(ctx context.Context, operation string, err error, attrs ...any) {
	level := slog.LevelWarn
	if repository.IsStorageFailure(err) {
		level = slog.LevelError
	}
	attrs = append(attrs, "operation", operation, "error", err.Error())
	a.log(ctx, level, activityError, "FAILED", attrs...)
}

func (a *ActivityLogger) log(ctx context.Context, level slog.Level, eventType, status string, attrs ...any) {
	attrs = append([]any{"event_type", eventType, "status", status}, attrs...)
	a.logger.Log(ctx, level, "ledger activity", attrs...)
}
