package services

import (
	"context"
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// LedgerSvcFacade exposes the ledger store: posting, cancellation and
// nature-signed balances.
type LedgerSvcFacade interface {
	// Post validates and persists a balanced transaction, flipping it to POSTED.
	Post(ctx context.Context, conjuntoID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error)

	// Cancel marks a posted transaction cancelled while it CanBeCancelled.
	// Historical entries are never altered.
	Cancel(ctx context.Context, conjuntoID, transactionID, userID string) error

	// GetBalance returns the nature-signed balance of an account over an
	// optional date window, re-summed from stored entries.
	GetBalance(ctx context.Context, conjuntoID, accountID string, from, to *time.Time) (decimal.Decimal, error)

	// GetTransaction retrieves a transaction with its entries.
	GetTransaction(ctx context.Context, conjuntoID, transactionID string) (*domain.Transaction, error)

	// ListTransactions lists the transactions dated in one calendar month.
	ListTransactions(ctx context.Context, conjuntoID string, month, year int) ([]domain.Transaction, error)
}

// ValidationSvcFacade exposes the stateless validation engine. Findings are
// returned as data; nothing here mutates ledger state.
type ValidationSvcFacade interface {
	ValidateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.ValidationResult, error)
	ValidateBatch(ctx context.Context, txns []domain.Transaction) (*domain.BatchValidationSummary, error)
	ValidatePeriod(ctx context.Context, conjuntoID string, month, year int) (*domain.PeriodValidationResult, error)
}
