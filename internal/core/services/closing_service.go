package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
	"github.com/ingmontoya/tavira-ledger/internal/utils/accounting"
)

// closingService sequences the monthly closing steps for one (conjunto,
// month, year): preconditions, integrity validation, late fees, reserve fund,
// depreciation placeholder, final balance check, report generation and the
// closed marker. Step outcomes are aggregated into one structured result; the
// caller reads Success rather than catching errors.
type closingService struct {
	validationSvc portssvc.ValidationSvcFacade
	lateFeeSvc    portssvc.LateFeeSvcFacade
	reserveSvc    portssvc.ReserveFundSvcFacade
	txnRepo       portsrepo.TransactionRepositoryFacade
	closingRepo   portsrepo.ClosingRepositoryFacade
	reportGen     portssvc.ReportGenerator
}

// NewClosingService creates the monthly closing orchestrator.
func NewClosingService(
	validationSvc portssvc.ValidationSvcFacade,
	lateFeeSvc portssvc.LateFeeSvcFacade,
	reserveSvc portssvc.ReserveFundSvcFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	closingRepo portsrepo.ClosingRepositoryFacade,
	reportGen portssvc.ReportGenerator,
) portssvc.ClosingSvcFacade {
	return &closingService{
		validationSvc: validationSvc,
		lateFeeSvc:    lateFeeSvc,
		reserveSvc:    reserveSvc,
		txnRepo:       txnRepo,
		closingRepo:   closingRepo,
		reportGen:     reportGen,
	}
}

var _ portssvc.ClosingSvcFacade = (*closingService)(nil)

// ExecuteMonthlyClosing runs the full closing sequence. Precondition and
// final-balance failures abort the run; late-fee and reserve postings already
// committed before a final-balance failure are deliberately preserved and
// must be reversed manually.
func (s *closingService) ExecuteMonthlyClosing(ctx context.Context, conjuntoID string, month, year int, opts dto.ClosingOptions, userID string) (*domain.ClosingResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	runStart := time.Now()

	result := &domain.ClosingResult{
		ConjuntoID: conjuntoID,
		Month:      month,
		Year:       year,
	}
	finish := func() *domain.ClosingResult {
		result.TotalDuration = time.Since(runStart)
		result.Success = true
		for _, step := range result.Steps {
			if step.Status == domain.StepError {
				result.Success = false
				break
			}
		}
		logger.Info("Monthly closing finished",
			slog.String("conjunto_id", conjuntoID),
			slog.Int("month", month),
			slog.Int("year", year),
			slog.Bool("success", result.Success),
			slog.Duration("duration", result.TotalDuration),
		)
		return result
	}

	from, to := accounting.MonthWindow(year, month)
	asOf := to.AddDate(0, 0, -1)

	// 1. Preconditions. Any failure aborts before any mutation.
	if !s.runStep(result, domain.StepPreconditions, func() (string, error) {
		closed, err := s.IsPeriodClosed(ctx, conjuntoID, month, year)
		if err != nil {
			return "", err
		}
		if closed {
			return "", fmt.Errorf("%w: %d-%02d", apperrors.ErrPeriodAlreadyClosed, year, month)
		}
		// The month is closable only once it has fully elapsed.
		if time.Now().UTC().Before(to) {
			return "", fmt.Errorf("%w: %d-%02d", apperrors.ErrFuturePeriod, year, month)
		}
		drafts, err := s.txnRepo.CountDraftTransactions(ctx, conjuntoID, from, to)
		if err != nil {
			return "", err
		}
		if drafts > 0 {
			return "", fmt.Errorf("%w: %d draft transaction(s)", apperrors.ErrUnpostedTransactionsExist, drafts)
		}
		return "preconditions satisfied", nil
	}) {
		return finish(), nil
	}

	// 2. Integrity validation. Findings accumulate; only strict mode aborts.
	validationOK := s.runStep(result, domain.StepValidation, func() (string, error) {
		period, err := s.validationSvc.ValidatePeriod(ctx, conjuntoID, month, year)
		if err != nil {
			return "", err
		}
		errorCount, warningCount := 0, 0
		for _, issue := range period.Issues {
			if issue.Severity == domain.SeverityError {
				errorCount++
			} else {
				warningCount++
			}
		}
		for _, r := range period.Results {
			errorCount += len(r.Errors)
			warningCount += len(r.Warnings)
		}
		msg := fmt.Sprintf("%d transaction(s) validated, %d error(s), %d warning(s)", len(period.Results), errorCount, warningCount)
		if opts.Strict && errorCount > 0 {
			return "", fmt.Errorf("%w: %s", apperrors.ErrValidation, msg)
		}
		return msg, nil
	})
	if !validationOK && opts.Strict {
		return finish(), nil
	}

	// 3. Late fees. Per-invoice failures are isolated inside the batch.
	if !s.runStep(result, domain.StepLateFees, func() (string, error) {
		batch, err := s.lateFeeSvc.ProcessPendingLateFees(ctx, conjuntoID, asOf, userID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d invoice(s) processed, %d fee(s) applied totalling %s, %d failed",
			batch.Processed, batch.Applied, batch.TotalAmount, batch.Failed), nil
	}) {
		return finish(), nil
	}

	// 4. Reserve fund appropriation.
	if !s.runStep(result, domain.StepReserveFund, func() (string, error) {
		appropriation, err := s.reserveSvc.ExecuteMonthlyAppropriation(ctx, conjuntoID, month, year, userID)
		if err != nil {
			return "", err
		}
		if !appropriation.Applied {
			return appropriation.Reason, nil
		}
		return fmt.Sprintf("appropriated %s", appropriation.Amount), nil
	}) {
		return finish(), nil
	}

	// 5. Depreciation. Reserved for future extension.
	result.Steps = append(result.Steps, domain.StepResult{
		Name:    domain.StepDepreciation,
		Status:  domain.StepSkipped,
		Message: "depreciation is not yet implemented",
	})

	// 6. Final balance check: the strongest integrity gate. A mismatch aborts
	// the run even though steps 3-4 already committed.
	if !s.runStep(result, domain.StepFinalBalance, func() (string, error) {
		sums, err := s.txnRepo.SumEntriesByPeriod(ctx, conjuntoID, from, to)
		if err != nil {
			return "", err
		}
		if !accounting.WithinTolerance(sums.Debits, sums.Credits) {
			return "", fmt.Errorf("%w: period debits %s do not match credits %s",
				apperrors.ErrUnbalancedTransaction, sums.Debits, sums.Credits)
		}
		return fmt.Sprintf("debits %s match credits %s", sums.Debits, sums.Credits), nil
	}) {
		return finish(), nil
	}

	// 7. Report generation. A failure is recorded but never rolls back the
	// already-posted financial effects.
	s.runStep(result, domain.StepReportGeneration, func() (string, error) {
		if err := s.reportGen.GenerateMonthlyReport(ctx, conjuntoID, month, year); err != nil {
			return "", err
		}
		return "reports generated", nil
	})

	// 8. Mark period closed.
	s.runStep(result, domain.StepMarkClosed, func() (string, error) {
		closing := domain.MonthlyClosing{
			ClosingID:  uuid.NewString(),
			ConjuntoID: conjuntoID,
			Month:      month,
			Year:       year,
			ClosedAt:   time.Now().UTC(),
			ClosedBy:   userID,
			Summary:    fmt.Sprintf("monthly closing %d-%02d", year, month),
		}
		if err := s.closingRepo.SaveMonthlyClosing(ctx, closing); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return "", fmt.Errorf("%w: concurrent run marked %d-%02d first", apperrors.ErrPeriodAlreadyClosed, year, month)
			}
			return "", err
		}
		return "period marked closed", nil
	})

	return finish(), nil
}

// runStep executes one step, records its outcome and duration, and reports
// whether the run may continue.
func (s *closingService) runStep(result *domain.ClosingResult, name string, fn func() (string, error)) bool {
	start := time.Now()
	message, err := fn()
	step := domain.StepResult{
		Name:     name,
		Status:   domain.StepSuccess,
		Message:  message,
		Duration: time.Since(start),
	}
	if err != nil {
		step.Status = domain.StepError
		step.Message = err.Error()
	}
	result.Steps = append(result.Steps, step)
	return err == nil
}

// IsPeriodClosed reports whether the orchestrator marker exists for the
// period.
func (s *closingService) IsPeriodClosed(ctx context.Context, conjuntoID string, month, year int) (bool, error) {
	_, err := s.closingRepo.FindMonthlyClosing(ctx, conjuntoID, month, year)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up closing marker for %d-%02d: %w", year, month, err)
	}
	return true, nil
}

// GetClosingHistory lists closing markers, newest first.
func (s *closingService) GetClosingHistory(ctx context.Context, conjuntoID string, year int) ([]domain.MonthlyClosing, error) {
	closings, err := s.closingRepo.ListMonthlyClosings(ctx, conjuntoID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list closing history: %w", err)
	}
	return closings, nil
}
