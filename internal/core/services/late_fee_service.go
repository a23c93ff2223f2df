package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsevents "github.com/ingmontoya/tavira-ledger/internal/core/ports/events"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
	"github.com/ingmontoya/tavira-ledger/internal/utils/accounting"
)

// lateFeeProcessor is the audit identity recorded on invoices touched by the
// compounder.
const lateFeeProcessor = "late-fee-processor"

// lateFeeService applies at most one late fee per invoice per calendar month.
// Fees compound against the invoice's original principal, and the ledger
// posting happens downstream of the emitted event, keeping fee calculation
// decoupled from posting.
type lateFeeService struct {
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	publisher   portsevents.Publisher
	policy      Policy
}

// NewLateFeeService creates the late fee compounder.
func NewLateFeeService(invoiceRepo portsrepo.InvoiceRepositoryFacade, publisher portsevents.Publisher, policy Policy) portssvc.LateFeeSvcFacade {
	return &lateFeeService{
		invoiceRepo: invoiceRepo,
		publisher:   publisher,
		policy:      policy,
	}
}

var _ portssvc.LateFeeSvcFacade = (*lateFeeService)(nil)

// ProcessMonthlyLateFee evaluates one invoice. The first matching condition
// short-circuits: watermark, due date, balance, grace period, zero amount.
func (s *lateFeeService) ProcessMonthlyLateFee(ctx context.Context, conjuntoID, invoiceID string, asOf time.Time, dryRun bool) (*domain.LateFeeResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, conjuntoID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}

	result := &domain.LateFeeResult{InvoiceID: invoiceID, Amount: decimal.Zero}

	monthKey := asOf.Format("2006-01")
	if invoice.ProcessedInMonth(asOf) {
		result.Reason = fmt.Sprintf("already processed for %s", monthKey)
		return result, nil
	}
	if !invoice.IsPastDue(asOf) {
		result.Reason = "invoice is not past due"
		return result, nil
	}
	if !invoice.Balance.IsPositive() {
		result.Reason = "invoice has no outstanding balance"
		return result, nil
	}
	graceEnd := invoice.DueDate.AddDate(0, 0, s.policy.GraceDays)
	if !asOf.After(graceEnd) {
		result.Reason = fmt.Sprintf("within grace period until %s", graceEnd.Format("2006-01-02"))
		return result, nil
	}

	// Fees compound against the original principal captured on first
	// application, not the growing balance.
	base := invoice.Subtotal
	if invoice.OriginalBaseAmount != nil {
		base = *invoice.OriginalBaseAmount
	}
	amount := accounting.RoundCents(base.Mul(s.policy.LateFeeMonthlyRate))
	if !amount.IsPositive() {
		result.Reason = "computed fee rounds to zero"
		return result, nil
	}

	result.Applied = true
	result.Amount = amount
	if dryRun {
		result.Reason = "dry run"
		return result, nil
	}

	if invoice.OriginalBaseAmount == nil {
		captured := base
		invoice.OriginalBaseAmount = &captured
	}
	invoice.LateFeeHistory = append(invoice.LateFeeHistory, domain.LateFeeRecord{
		Date:       asOf,
		Amount:     amount,
		BaseAmount: base,
		Rate:       s.policy.LateFeeMonthlyRate,
		Month:      monthKey,
	})
	invoice.LateFees = invoice.LateFees.Add(amount)
	watermark := asOf
	invoice.LastLateFeeCalculationDate = &watermark
	invoice.Recalculate()
	invoice.LastUpdatedAt = time.Now().UTC()
	invoice.LastUpdatedBy = lateFeeProcessor

	if err := s.invoiceRepo.UpdateInvoiceLateFees(ctx, *invoice); err != nil {
		return nil, fmt.Errorf("failed to persist late fee on invoice %s: %w", invoiceID, err)
	}

	event := domain.LateFeeApplied{
		InvoiceID:   invoice.InvoiceID,
		ConjuntoID:  invoice.ConjuntoID,
		ApartmentID: invoice.ApartmentID,
		Amount:      amount,
		BaseAmount:  base,
		Rate:        s.policy.LateFeeMonthlyRate,
		Month:       monthKey,
		AppliedAt:   asOf,
	}
	if err := s.publisher.Publish(ctx, domain.TopicLateFeeApplied, event); err != nil {
		// The fee is persisted; a lost event would silently skip the ledger
		// posting downstream, so surface the failure to the caller.
		return nil, fmt.Errorf("late fee persisted but event publication failed for invoice %s: %w", invoiceID, err)
	}

	logger.Info("Late fee applied",
		slog.String("invoice_id", invoiceID),
		slog.String("conjunto_id", conjuntoID),
		slog.String("amount", amount.String()),
		slog.String("month", monthKey),
	)
	return result, nil
}

// ProcessPendingLateFees runs the compounder over every qualifying invoice.
// Per-invoice failures are isolated so one bad invoice does not abort the
// others.
func (s *lateFeeService) ProcessPendingLateFees(ctx context.Context, conjuntoID string, asOf time.Time, userID string) (*domain.LateFeeBatchResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoices, err := s.invoiceRepo.ListInvoicesNeedingLateFees(ctx, conjuntoID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices needing processing: %w", err)
	}

	batch := &domain.LateFeeBatchResult{TotalAmount: decimal.Zero}
	for _, invoice := range invoices {
		batch.Processed++
		result, err := s.ProcessMonthlyLateFee(ctx, conjuntoID, invoice.InvoiceID, asOf, false)
		if err != nil {
			batch.Failed++
			logger.Error("Late fee processing failed for invoice",
				slog.String("invoice_id", invoice.InvoiceID),
				slog.String("requested_by", userID),
				slog.String("error", err.Error()),
			)
			batch.Results = append(batch.Results, domain.LateFeeResult{
				InvoiceID: invoice.InvoiceID,
				Reason:    err.Error(),
			})
			continue
		}
		if result.Applied {
			batch.Applied++
			batch.TotalAmount = batch.TotalAmount.Add(result.Amount)
		} else {
			batch.Skipped++
		}
		batch.Results = append(batch.Results, *result)
	}

	logger.Info("Late fee batch completed",
		slog.String("conjunto_id", conjuntoID),
		slog.Int("processed", batch.Processed),
		slog.Int("applied", batch.Applied),
		slog.Int("failed", batch.Failed),
		slog.String("total", batch.TotalAmount.String()),
	)
	return batch, nil
}

// GetInvoicesNeedingProcessing lists the invoices a run would touch: overdue,
// positive balance, watermark null or before the current month.
func (s *lateFeeService) GetInvoicesNeedingProcessing(ctx context.Context, conjuntoID string, asOf time.Time) ([]domain.Invoice, error) {
	invoices, err := s.invoiceRepo.ListInvoicesNeedingLateFees(ctx, conjuntoID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices needing processing: %w", err)
	}
	return invoices, nil
}

// GetLateFeesSummary aggregates fees applied in one calendar month.
func (s *lateFeeService) GetLateFeesSummary(ctx context.Context, conjuntoID string, month, year int) (*domain.LateFeeSummary, error) {
	from, to := accounting.MonthWindow(year, month)
	summary, err := s.invoiceRepo.SummarizeLateFees(ctx, conjuntoID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize late fees for %d-%02d: %w", year, month, err)
	}
	return summary, nil
}
