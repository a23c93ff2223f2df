package services

import (
	"context"
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// ReserveFundSvcFacade exposes the statutory reserve fund appropriator.
type ReserveFundSvcFacade interface {
	// CalculateMonthlyReserve computes the statutory share of one month's
	// operational income, rounded to cents.
	CalculateMonthlyReserve(ctx context.Context, conjuntoID string, month, year int) (decimal.Decimal, error)

	// ExecuteMonthlyAppropriation posts the monthly appropriation, once; a
	// repeated call for the same period returns Applied=false without side
	// effects.
	ExecuteMonthlyAppropriation(ctx context.Context, conjuntoID string, month, year int, userID string) (*domain.AppropriationResult, error)

	// GetAppropriationHistory lists appropriation transactions for a year.
	GetAppropriationHistory(ctx context.Context, conjuntoID string, year int) ([]domain.Transaction, error)

	// ValidateLegalCompliance audits a whole year against the statutory
	// minimum, independent of how appropriations were run.
	ValidateLegalCompliance(ctx context.Context, conjuntoID string, year int) (*domain.ReserveCompliance, error)
}

// LateFeeSvcFacade exposes the monthly late fee compounder.
type LateFeeSvcFacade interface {
	// ProcessMonthlyLateFee applies at most one fee per invoice per calendar
	// month. With dryRun the decision is computed but nothing is written.
	ProcessMonthlyLateFee(ctx context.Context, conjuntoID, invoiceID string, asOf time.Time, dryRun bool) (*domain.LateFeeResult, error)

	// ProcessPendingLateFees runs the compounder over every qualifying
	// invoice, isolating per-invoice failures.
	ProcessPendingLateFees(ctx context.Context, conjuntoID string, asOf time.Time, userID string) (*domain.LateFeeBatchResult, error)

	// GetInvoicesNeedingProcessing lists the invoices a run would touch.
	GetInvoicesNeedingProcessing(ctx context.Context, conjuntoID string, asOf time.Time) ([]domain.Invoice, error)

	// GetLateFeesSummary aggregates fees applied in one calendar month.
	GetLateFeesSummary(ctx context.Context, conjuntoID string, month, year int) (*domain.LateFeeSummary, error)
}

// ClosureSvcFacade exposes the period closure engine.
type ClosureSvcFacade interface {
	// ExecutePeriodClosure zeroes income and expense accounts through the
	// clearing account and rolls the net result into equity, atomically.
	ExecutePeriodClosure(ctx context.Context, conjuntoID string, req dto.ExecuteClosureRequest, userID string) (*domain.PeriodClosure, error)

	// ReverseClosure cancels a completed closure's transactions and marks the
	// closure REVERSED, freeing the period key for a new run.
	ReverseClosure(ctx context.Context, conjuntoID, closureID, userID string) error

	// PreviewClosure computes the totals a run would post, read-only.
	PreviewClosure(ctx context.Context, conjuntoID string, periodStart, periodEnd time.Time) (*domain.ClosurePreview, error)

	// GetClosureHistory lists closures, newest first.
	GetClosureHistory(ctx context.Context, conjuntoID string, fiscalYear int) ([]domain.PeriodClosure, error)
}

// ClosingSvcFacade exposes the monthly closing orchestrator.
type ClosingSvcFacade interface {
	// ExecuteMonthlyClosing sequences validation, late fees, reserve fund,
	// depreciation, the final balance check, reporting and the closed marker
	// for one (conjunto, month, year), returning per-step results.
	ExecuteMonthlyClosing(ctx context.Context, conjuntoID string, month, year int, opts dto.ClosingOptions, userID string) (*domain.ClosingResult, error)

	// IsPeriodClosed reports whether the orchestrator marker exists.
	IsPeriodClosed(ctx context.Context, conjuntoID string, month, year int) (bool, error)

	// GetClosingHistory lists closing markers, newest first.
	GetClosingHistory(ctx context.Context, conjuntoID string, year int) ([]domain.MonthlyClosing, error)
}

// ReportGenerator is the external reporting collaborator consumed by the
// orchestrator. A failure here never unwinds already-posted financial steps.
type ReportGenerator interface {
	GenerateMonthlyReport(ctx context.Context, conjuntoID string, month, year int) error
}

// ServiceContainer bundles the facades handed to the HTTP layer.
type ServiceContainer struct {
	Ledger      LedgerSvcFacade
	Validation  ValidationSvcFacade
	ReserveFund ReserveFundSvcFacade
	LateFee     LateFeeSvcFacade
	Closure     ClosureSvcFacade
	Closing     ClosingSvcFacade
}
