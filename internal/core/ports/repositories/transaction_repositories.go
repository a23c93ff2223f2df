package repositories

import (
	"context"
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionReader defines read operations for transactions and entries.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction with its entries.
	FindTransactionByID(ctx context.Context, conjuntoID, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByPeriod retrieves transactions dated inside
	// [from, to), newest first. A nil status lists all statuses.
	ListTransactionsByPeriod(ctx context.Context, conjuntoID string, from, to time.Time, status *domain.TransactionStatus) ([]domain.Transaction, error)

	// ListTransactionsByReference retrieves non-cancelled transactions tagged
	// with the given business reference.
	ListTransactionsByReference(ctx context.Context, conjuntoID string, ref domain.Reference) ([]domain.Transaction, error)

	// CountDraftTransactions counts draft transactions dated inside [from, to).
	CountDraftTransactions(ctx context.Context, conjuntoID string, from, to time.Time) (int, error)
}

// TransactionWriter defines write operations for transactions.
type TransactionWriter interface {
	// SaveTransaction persists a transaction and its entries atomically.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// UpdateTransactionStatus flips a transaction's status without touching
	// its monetary content.
	UpdateTransactionStatus(ctx context.Context, conjuntoID, transactionID string, status domain.TransactionStatus, updatedBy string, updatedAt time.Time) error
}

// EntrySums carries raw debit/credit totals re-summed from stored entries.
type EntrySums struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// EntryReader defines aggregate reads over posted entries. Sums are always
// recomputed from the entries table, never from cached transaction totals.
type EntryReader interface {
	// SumEntriesByAccount totals posted entries for one account over an
	// optional date window (nil bounds are open).
	SumEntriesByAccount(ctx context.Context, conjuntoID, accountID string, from, to *time.Time) (EntrySums, error)

	// SumEntriesByPeriod totals every posted entry dated inside [from, to).
	SumEntriesByPeriod(ctx context.Context, conjuntoID string, from, to time.Time) (EntrySums, error)

	// SumCreditsByCodePrefix totals the credit side of posted entries whose
	// account code starts with the prefix, inside [from, to).
	SumCreditsByCodePrefix(ctx context.Context, conjuntoID, prefix string, from, to time.Time) (decimal.Decimal, error)

	// BalancesByCodePrefix returns windowed per-account activity for every
	// posting-enabled account under the code prefix with non-zero movement.
	BalancesByCodePrefix(ctx context.Context, conjuntoID, prefix string, from, to time.Time) ([]domain.AccountBalance, error)
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
	EntryReader
}
