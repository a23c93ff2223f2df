package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
)

type PgxClosingRepository struct {
	pool *pgxpool.Pool
}

// NewPgxClosingRepository creates the repository for monthly closing markers.
func NewPgxClosingRepository(pool *pgxpool.Pool) portsrepo.ClosingRepositoryFacade {
	return &PgxClosingRepository{pool: pool}
}

var _ portsrepo.ClosingRepositoryFacade = (*PgxClosingRepository)(nil)

const closingColumns = `closing_id, conjunto_id, month, year, closed_at, closed_by, summary`

func scanClosing(row pgx.Row) (*domain.MonthlyClosing, error) {
	var c domain.MonthlyClosing
	err := row.Scan(&c.ClosingID, &c.ConjuntoID, &c.Month, &c.Year, &c.ClosedAt, &c.ClosedBy, &c.Summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindMonthlyClosing retrieves the marker for (conjunto, month, year).
func (r *PgxClosingRepository) FindMonthlyClosing(ctx context.Context, conjuntoID string, month, year int) (*domain.MonthlyClosing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM monthly_closings
		WHERE conjunto_id = $1 AND month = $2 AND year = $3;
	`, closingColumns)
	closing, err := scanClosing(queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, month, year))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find monthly closing %d-%02d: %w", year, month, err)
	}
	return closing, nil
}

// ListMonthlyClosings lists markers for a conjunto, newest first.
func (r *PgxClosingRepository) ListMonthlyClosings(ctx context.Context, conjuntoID string, year int) ([]domain.MonthlyClosing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM monthly_closings
		WHERE conjunto_id = $1 AND ($2 = 0 OR year = $2)
		ORDER BY year DESC, month DESC;
	`, closingColumns)
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, conjuntoID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly closings: %w", err)
	}
	defer rows.Close()

	var closings []domain.MonthlyClosing
	for rows.Next() {
		closing, err := scanClosing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly closing: %w", err)
		}
		closings = append(closings, *closing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly closings: %w", err)
	}
	return closings, nil
}

// SaveMonthlyClosing inserts the closed marker. The unique constraint on
// (conjunto_id, month, year) makes concurrent runs lose cleanly.
func (r *PgxClosingRepository) SaveMonthlyClosing(ctx context.Context, closing domain.MonthlyClosing) error {
	query := `
		INSERT INTO monthly_closings (closing_id, conjunto_id, month, year, closed_at, closed_by, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		closing.ClosingID, closing.ConjuntoID, closing.Month, closing.Year,
		closing.ClosedAt, closing.ClosedBy, closing.Summary)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert monthly closing %d-%02d: %w", closing.Year, closing.Month, err)
	}
	return nil
}
