package repositories

import (
	"context"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
)

// ClosingReader defines read operations for monthly closing markers.
type ClosingReader interface {
	// FindMonthlyClosing retrieves the marker for (conjunto, month, year), or
	// apperrors.ErrNotFound.
	FindMonthlyClosing(ctx context.Context, conjuntoID string, month, year int) (*domain.MonthlyClosing, error)

	// ListMonthlyClosings lists markers for a conjunto, newest first. A year
	// of zero lists all years.
	ListMonthlyClosings(ctx context.Context, conjuntoID string, year int) ([]domain.MonthlyClosing, error)
}

// ClosingWriter defines write operations for monthly closing markers.
type ClosingWriter interface {
	// SaveMonthlyClosing inserts the closed marker. A duplicate period key is
	// apperrors.ErrDuplicate.
	SaveMonthlyClosing(ctx context.Context, closing domain.MonthlyClosing) error
}

// ClosingRepositoryFacade combines all closing marker repository interfaces.
type ClosingRepositoryFacade interface {
	ClosingReader
	ClosingWriter
}
