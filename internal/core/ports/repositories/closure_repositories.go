package repositories

import (
	"context"
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ClosureReader defines read operations for period closures.
type ClosureReader interface {
	// FindClosureByID retrieves a closure by its identifier.
	FindClosureByID(ctx context.Context, closureID string) (*domain.PeriodClosure, error)

	// FindCompletedClosure retrieves the single COMPLETED closure for the
	// period key, or apperrors.ErrNotFound.
	FindCompletedClosure(ctx context.Context, conjuntoID string, fiscalYear int, periodType domain.PeriodType) (*domain.PeriodClosure, error)

	// ListClosures lists closures for a conjunto, newest first. fiscalYear of
	// zero lists all years.
	ListClosures(ctx context.Context, conjuntoID string, fiscalYear int) ([]domain.PeriodClosure, error)
}

// ClosureWriter defines write operations for period closures.
type ClosureWriter interface {
	// SaveClosure inserts a new closure row (normally in DRAFT status).
	SaveClosure(ctx context.Context, closure domain.PeriodClosure) error

	// CompleteClosure flips a draft closure to COMPLETED and stores the run
	// totals plus the net-result transaction reference.
	CompleteClosure(ctx context.Context, closureID string, totalIncome, totalExpenses, netResult decimal.Decimal, closingTransactionID string, updatedAt time.Time) error

	// UpdateClosureStatus flips a closure's status (e.g. COMPLETED -> REVERSED).
	UpdateClosureStatus(ctx context.Context, closureID string, status domain.ClosureStatus, updatedBy string, updatedAt time.Time) error
}

// ClosureLocker serializes closing work per conjunto and period key. The lock
// is transaction-scoped: it is released when the surrounding unit of work
// commits or rolls back.
type ClosureLocker interface {
	LockPeriod(ctx context.Context, conjuntoID string, fiscalYear int, periodType domain.PeriodType) error
}

// ClosureRepositoryFacade combines all closure repository interfaces.
type ClosureRepositoryFacade interface {
	ClosureReader
	ClosureWriter
	ClosureLocker
}
