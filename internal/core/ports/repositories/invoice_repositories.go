package repositories

import (
	"context"
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
)

// InvoiceReader defines the read operations the late fee compounder needs.
type InvoiceReader interface {
	// FindInvoiceByID retrieves one invoice.
	FindInvoiceByID(ctx context.Context, conjuntoID, invoiceID string) (*domain.Invoice, error)

	// ListInvoicesNeedingLateFees selects overdue invoices with positive
	// balance whose watermark is null or predates the month of asOf. This is
	// the idempotency boundary that makes repeated cron runs safe.
	ListInvoicesNeedingLateFees(ctx context.Context, conjuntoID string, asOf time.Time) ([]domain.Invoice, error)

	// SummarizeLateFees aggregates fees applied inside [from, to).
	SummarizeLateFees(ctx context.Context, conjuntoID string, from, to time.Time) (*domain.LateFeeSummary, error)
}

// InvoiceWriter persists the late fee fields of an invoice. The core never
// creates or deletes invoices.
type InvoiceWriter interface {
	// UpdateInvoiceLateFees writes the fee history, running totals, watermark
	// and recalculated status back to the invoice.
	UpdateInvoiceLateFees(ctx context.Context, invoice domain.Invoice) error
}

// InvoiceRepositoryFacade combines all invoice repository interfaces.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
