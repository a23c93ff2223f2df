package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
)

type PgxClosureRepository struct {
	pool *pgxpool.Pool
}

// NewPgxClosureRepository creates the repository for period closures.
func NewPgxClosureRepository(pool *pgxpool.Pool) portsrepo.ClosureRepositoryFacade {
	return &PgxClosureRepository{pool: pool}
}

var _ portsrepo.ClosureRepositoryFacade = (*PgxClosureRepository)(nil)

const closureColumns = `closure_id, conjunto_id, fiscal_year, period_type, period_start, period_end,
	closure_date, status, total_income, total_expenses, net_result,
	COALESCE(closing_transaction_id, ''), closed_by, notes,
	created_at, created_by, last_updated_at, last_updated_by`

func scanClosure(row pgx.Row) (*domain.PeriodClosure, error) {
	var c domain.PeriodClosure
	err := row.Scan(
		&c.ClosureID,
		&c.ConjuntoID,
		&c.FiscalYear,
		&c.PeriodType,
		&c.PeriodStart,
		&c.PeriodEnd,
		&c.ClosureDate,
		&c.Status,
		&c.TotalIncome,
		&c.TotalExpenses,
		&c.NetResult,
		&c.ClosingTransactionID,
		&c.ClosedBy,
		&c.Notes,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindClosureByID retrieves a closure by its identifier.
func (r *PgxClosureRepository) FindClosureByID(ctx context.Context, closureID string) (*domain.PeriodClosure, error) {
	query := fmt.Sprintf(`SELECT %s FROM period_closures WHERE closure_id = $1;`, closureColumns)
	closure, err := scanClosure(queryEngine(ctx, r.pool).QueryRow(ctx, query, closureID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find closure %s: %w", closureID, err)
	}
	return closure, nil
}

// FindCompletedClosure retrieves the single COMPLETED closure for the period
// key, or apperrors.ErrNotFound.
func (r *PgxClosureRepository) FindCompletedClosure(ctx context.Context, conjuntoID string, fiscalYear int, periodType domain.PeriodType) (*domain.PeriodClosure, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM period_closures
		WHERE conjunto_id = $1 AND fiscal_year = $2 AND period_type = $3 AND status = $4;
	`, closureColumns)
	closure, err := scanClosure(queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, fiscalYear, periodType, domain.ClosureCompleted))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find completed closure for %s/%d/%s: %w", conjuntoID, fiscalYear, periodType, err)
	}
	return closure, nil
}

// ListClosures lists closures for a conjunto, newest first.
func (r *PgxClosureRepository) ListClosures(ctx context.Context, conjuntoID string, fiscalYear int) ([]domain.PeriodClosure, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM period_closures
		WHERE conjunto_id = $1 AND ($2 = 0 OR fiscal_year = $2)
		ORDER BY fiscal_year DESC, closure_date DESC;
	`, closureColumns)
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, conjuntoID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query closures: %w", err)
	}
	defer rows.Close()

	var closures []domain.PeriodClosure
	for rows.Next() {
		closure, err := scanClosure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan closure: %w", err)
		}
		closures = append(closures, *closure)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read closures: %w", err)
	}
	return closures, nil
}

// SaveClosure inserts a new closure row.
func (r *PgxClosureRepository) SaveClosure(ctx context.Context, closure domain.PeriodClosure) error {
	var closingTxID *string
	if closure.ClosingTransactionID != "" {
		closingTxID = &closure.ClosingTransactionID
	}
	query := `
		INSERT INTO period_closures (closure_id, conjunto_id, fiscal_year, period_type, period_start, period_end,
			closure_date, status, total_income, total_expenses, net_result, closing_transaction_id, closed_by, notes,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		closure.ClosureID,
		closure.ConjuntoID,
		closure.FiscalYear,
		closure.PeriodType,
		closure.PeriodStart,
		closure.PeriodEnd,
		closure.ClosureDate,
		closure.Status,
		closure.TotalIncome,
		closure.TotalExpenses,
		closure.NetResult,
		closingTxID,
		closure.ClosedBy,
		closure.Notes,
		closure.CreatedAt,
		closure.CreatedBy,
		closure.LastUpdatedAt,
		closure.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert closure %s: %w", closure.ClosureID, err)
	}
	return nil
}

// CompleteClosure flips a draft closure to COMPLETED and stores the run
// totals plus the net-result transaction reference.
func (r *PgxClosureRepository) CompleteClosure(ctx context.Context, closureID string, totalIncome, totalExpenses, netResult decimal.Decimal, closingTransactionID string, updatedAt time.Time) error {
	var closingTxID *string
	if closingTransactionID != "" {
		closingTxID = &closingTransactionID
	}
	query := `
		UPDATE period_closures
		SET status = $1, total_income = $2, total_expenses = $3, net_result = $4,
			closing_transaction_id = $5, last_updated_at = $6
		WHERE closure_id = $7 AND status = $8;
	`
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		domain.ClosureCompleted, totalIncome, totalExpenses, netResult, closingTxID, updatedAt, closureID, domain.ClosureDraft)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to complete closure %s: %w", closureID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateClosureStatus flips a closure's status.
func (r *PgxClosureRepository) UpdateClosureStatus(ctx context.Context, closureID string, status domain.ClosureStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE period_closures
		SET status = $1, last_updated_by = $2, last_updated_at = $3
		WHERE closure_id = $4;
	`
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, query, status, updatedBy, updatedAt, closureID)
	if err != nil {
		return fmt.Errorf("failed to update status of closure %s: %w", closureID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LockPeriod takes a transaction-scoped advisory lock on the period key so
// concurrent closing runs for the same period serialize on the database.
func (r *PgxClosureRepository) LockPeriod(ctx context.Context, conjuntoID string, fiscalYear int, periodType domain.PeriodType) error {
	key := fmt.Sprintf("closure:%s:%d:%s", conjuntoID, fiscalYear, periodType)
	_, err := queryEngine(ctx, r.pool).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, key)
	if err != nil {
		return fmt.Errorf("failed to lock period %s: %w", key, err)
	}
	return nil
}
