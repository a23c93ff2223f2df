package services

import (
	"context"
	"log/slog"

	portsevents "github.com/ingmontoya/tavira-ledger/internal/core/ports/events"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

// NewContainer wires the ledger core services with their dependencies in
// dependency order: the ledger store first, the posting components on top of
// it, the orchestrator last.
func NewContainer(repos *portsrepo.RepositoryProvider, publisher portsevents.Publisher, reportGen portssvc.ReportGenerator, policy Policy) *portssvc.ServiceContainer {
	if reportGen == nil {
		reportGen = loggingReportGenerator{}
	}

	container := &portssvc.ServiceContainer{}
	container.Ledger = NewLedgerService(repos.AccountRepo, repos.TransactionRepo)
	container.ReserveFund = NewReserveFundService(repos.AccountRepo, repos.TransactionRepo, container.Ledger, policy)
	container.Validation = NewValidationService(
		repos.AccountRepo,
		repos.TransactionRepo,
		repos.PartyRepo,
		repos.InvoiceRepo,
		repos.ClosureRepo,
		container.ReserveFund,
		policy,
	)
	container.LateFee = NewLateFeeService(repos.InvoiceRepo, publisher, policy)
	container.Closure = NewClosureService(
		repos.AccountRepo,
		repos.TransactionRepo,
		repos.ClosureRepo,
		repos.TxManager,
		container.Ledger,
		policy,
	)
	container.Closing = NewClosingService(
		container.Validation,
		container.LateFee,
		container.ReserveFund,
		repos.TransactionRepo,
		repos.ClosingRepo,
		reportGen,
	)
	return container
}

// loggingReportGenerator stands in for the external reporting collaborator
// when none is configured. It only records that report generation was
// requested; the real collaborator renders official statements elsewhere.
type loggingReportGenerator struct{}

func (loggingReportGenerator) GenerateMonthlyReport(ctx context.Context, conjuntoID string, month, year int) error {
	middleware.GetLoggerFromCtx(ctx).Info("Report generation requested",
		slog.String("conjunto_id", conjuntoID),
		slog.Int("month", month),
		slog.Int("year", year),
	)
	return nil
}
