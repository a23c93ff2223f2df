package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
)

type PgxInvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewPgxInvoiceRepository creates the repository for invoice late fee data.
func NewPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{pool: pool}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `invoice_id, conjunto_id, apartment_id, due_date, subtotal, paid_amount,
	late_fees, balance_amount, status, original_base_amount, late_fee_history,
	last_late_fee_calculation_date, created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var history []byte
	err := row.Scan(
		&inv.InvoiceID,
		&inv.ConjuntoID,
		&inv.ApartmentID,
		&inv.DueDate,
		&inv.Subtotal,
		&inv.PaidAmount,
		&inv.LateFees,
		&inv.Balance,
		&inv.Status,
		&inv.OriginalBaseAmount,
		&history,
		&inv.LastLateFeeCalculationDate,
		&inv.CreatedAt,
		&inv.CreatedBy,
		&inv.LastUpdatedAt,
		&inv.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &inv.LateFeeHistory); err != nil {
			return nil, fmt.Errorf("failed to decode late fee history of invoice %s: %w", inv.InvoiceID, err)
		}
	}
	return &inv, nil
}

// FindInvoiceByID retrieves one invoice.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, conjuntoID, invoiceID string) (*domain.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE conjunto_id = $1 AND invoice_id = $2;`, invoiceColumns)
	inv, err := scanInvoice(queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, invoiceID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	return inv, nil
}

// ListInvoicesNeedingLateFees selects overdue invoices with positive balance
// whose watermark is null or predates the month of asOf.
func (r *PgxInvoiceRepository) ListInvoicesNeedingLateFees(ctx context.Context, conjuntoID string, asOf time.Time) ([]domain.Invoice, error) {
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	query := fmt.Sprintf(`
		SELECT %s FROM invoices
		WHERE conjunto_id = $1
		AND status NOT IN ($2, $3)
		AND due_date < $4
		AND balance_amount > 0
		AND (last_late_fee_calculation_date IS NULL OR last_late_fee_calculation_date < $5)
		ORDER BY due_date;
	`, invoiceColumns)
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query,
		conjuntoID, domain.InvoicePaid, domain.InvoiceCancelled, asOf, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices needing late fees: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invoices: %w", err)
	}
	return invoices, nil
}

// SummarizeLateFees aggregates fees applied inside [from, to), reading the
// jsonb history rather than the running totals so the window is exact.
func (r *PgxInvoiceRepository) SummarizeLateFees(ctx context.Context, conjuntoID string, from, to time.Time) (*domain.LateFeeSummary, error) {
	query := `
		SELECT COUNT(DISTINCT i.invoice_id), COALESCE(SUM((fee->>'amount')::numeric), 0)
		FROM invoices i,
			jsonb_array_elements(COALESCE(i.late_fee_history, '[]'::jsonb)) AS fee
		WHERE i.conjunto_id = $1
		AND (fee->>'date')::timestamptz >= $2
		AND (fee->>'date')::timestamptz < $3;
	`
	summary := domain.LateFeeSummary{ConjuntoID: conjuntoID, From: from, To: to}
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, from, to).
		Scan(&summary.InvoiceCount, &summary.TotalLateFees)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize late fees: %w", err)
	}
	return &summary, nil
}

// UpdateInvoiceLateFees writes the fee history, running totals, watermark and
// recalculated status back to the invoice.
func (r *PgxInvoiceRepository) UpdateInvoiceLateFees(ctx context.Context, invoice domain.Invoice) error {
	history, err := json.Marshal(invoice.LateFeeHistory)
	if err != nil {
		return fmt.Errorf("failed to encode late fee history of invoice %s: %w", invoice.InvoiceID, err)
	}
	query := `
		UPDATE invoices
		SET late_fees = $1, balance_amount = $2, status = $3, original_base_amount = $4,
			late_fee_history = $5, last_late_fee_calculation_date = $6,
			last_updated_by = $7, last_updated_at = $8
		WHERE conjunto_id = $9 AND invoice_id = $10;
	`
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		invoice.LateFees,
		invoice.Balance,
		invoice.Status,
		invoice.OriginalBaseAmount,
		history,
		invoice.LastLateFeeCalculationDate,
		invoice.LastUpdatedBy,
		invoice.LastUpdatedAt,
		invoice.ConjuntoID,
		invoice.InvoiceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update late fees of invoice %s: %w", invoice.InvoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
