package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

// closureService orchestrates closing income and expense accounts into the
// clearing account and rolling the net result into equity. Every run executes
// inside one unit of work: a failure anywhere rolls back every posted
// sub-transaction and leaves no closure row behind.
type closureService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	closureRepo portsrepo.ClosureRepositoryFacade
	txManager   portsrepo.TxManager
	ledgerSvc   portssvc.LedgerSvcFacade
	policy      Policy
}

// NewClosureService creates the period closure engine.
func NewClosureService(
	accountRepo portsrepo.AccountRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	closureRepo portsrepo.ClosureRepositoryFacade,
	txManager portsrepo.TxManager,
	ledgerSvc portssvc.LedgerSvcFacade,
	policy Policy,
) portssvc.ClosureSvcFacade {
	return &closureService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		closureRepo: closureRepo,
		txManager:   txManager,
		ledgerSvc:   ledgerSvc,
		policy:      policy,
	}
}

var _ portssvc.ClosureSvcFacade = (*closureService)(nil)

// ExecutePeriodClosure runs one closing for (conjunto, fiscal year, period
// type). Concurrent runs for the same key are serialized by a period lock;
// the loser observes the winner's completed closure and fails with
// ErrPeriodAlreadyClosed.
func (s *closureService) ExecutePeriodClosure(ctx context.Context, conjuntoID string, req dto.ExecuteClosureRequest, userID string) (*domain.PeriodClosure, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	periodType := domain.PeriodType(req.PeriodType)

	if req.PeriodEnd.After(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: period ends %s", apperrors.ErrFuturePeriod, req.PeriodEnd.Format("2006-01-02"))
	}

	var closure *domain.PeriodClosure
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.closureRepo.LockPeriod(ctx, conjuntoID, req.FiscalYear, periodType); err != nil {
			return fmt.Errorf("failed to lock period: %w", err)
		}

		existing, err := s.closureRepo.FindCompletedClosure(ctx, conjuntoID, req.FiscalYear, periodType)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to look up existing closure: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: closure %s completed on %s", apperrors.ErrPeriodAlreadyClosed,
				existing.ClosureID, existing.ClosureDate.Format("2006-01-02"))
		}

		windowEnd := exclusiveEnd(req.PeriodEnd)
		drafts, err := s.txnRepo.CountDraftTransactions(ctx, conjuntoID, req.PeriodStart, windowEnd)
		if err != nil {
			return fmt.Errorf("failed to count draft transactions: %w", err)
		}
		if drafts > 0 {
			return fmt.Errorf("%w: %d draft transaction(s) in the period", apperrors.ErrUnpostedTransactionsExist, drafts)
		}

		clearing, err := s.findRequiredAccount(ctx, conjuntoID, s.policy.Accounts.Clearing)
		if err != nil {
			return err
		}
		surplus, err := s.findRequiredAccount(ctx, conjuntoID, s.policy.Accounts.Surplus)
		if err != nil {
			return err
		}
		deficit, err := s.findRequiredAccount(ctx, conjuntoID, s.policy.Accounts.Deficit)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		closure = &domain.PeriodClosure{
			ClosureID:   uuid.NewString(),
			ConjuntoID:  conjuntoID,
			FiscalYear:  req.FiscalYear,
			PeriodType:  periodType,
			PeriodStart: req.PeriodStart,
			PeriodEnd:   req.PeriodEnd,
			ClosureDate: req.ClosureDate,
			Status:      domain.ClosureDraft,
			ClosedBy:    userID,
			Notes:       req.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.closureRepo.SaveClosure(ctx, *closure); err != nil {
			return fmt.Errorf("failed to save closure: %w", err)
		}

		totalIncome, err := s.closeAccountFamily(ctx, conjuntoID, closure.ClosureID, req, clearing, true, userID)
		if err != nil {
			return err
		}
		totalExpenses, err := s.closeAccountFamily(ctx, conjuntoID, closure.ClosureID, req, clearing, false, userID)
		if err != nil {
			return err
		}

		net := totalIncome.Sub(totalExpenses)
		closingTxnID, err := s.transferNetResult(ctx, conjuntoID, closure.ClosureID, req, clearing, surplus, deficit, net, userID)
		if err != nil {
			return err
		}

		if err := s.closureRepo.CompleteClosure(ctx, closure.ClosureID, totalIncome, totalExpenses, net, closingTxnID, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to complete closure: %w", err)
		}
		closure.Status = domain.ClosureCompleted
		closure.TotalIncome = totalIncome
		closure.TotalExpenses = totalExpenses
		closure.NetResult = net
		closure.ClosingTransactionID = closingTxnID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Period closure completed",
		slog.String("closure_id", closure.ClosureID),
		slog.String("conjunto_id", conjuntoID),
		slog.Int("fiscal_year", closure.FiscalYear),
		slog.String("period_type", string(closure.PeriodType)),
		slog.String("net_result", closure.NetResult.String()),
	)
	return closure, nil
}

// closeAccountFamily zeroes one side of the books into the clearing account.
// Income accounts are debited by their balance and the clearing account
// credited with the total; expenses are the mirror image. Returns the closed
// total; a zero total posts nothing.
func (s *closureService) closeAccountFamily(ctx context.Context, conjuntoID, closureID string, req dto.ExecuteClosureRequest, clearing *domain.Account, income bool, userID string) (decimal.Decimal, error) {
	prefix := s.policy.Accounts.IncomePrefix
	label := "ingresos"
	if !income {
		prefix = s.policy.Accounts.ExpensePrefix
		label = "gastos"
	}

	balances, err := s.txnRepo.BalancesByCodePrefix(ctx, conjuntoID, prefix, req.PeriodStart, exclusiveEnd(req.PeriodEnd))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute %s balances: %w", label, err)
	}

	total := decimal.Zero
	entries := make([]dto.CreateEntryRequest, 0, len(balances)+1)
	for _, bal := range balances {
		if bal.Code == clearing.Code {
			continue
		}
		// Windowed balance on the account's natural side: credits-debits for
		// income, debits-credits for expenses.
		amount := bal.Credits.Sub(bal.Debits)
		if !income {
			amount = bal.Debits.Sub(bal.Credits)
		}
		if amount.Abs().LessThan(domain.BalanceTolerance) {
			continue
		}

		entry := dto.CreateEntryRequest{
			AccountID:   bal.AccountID,
			Description: fmt.Sprintf("Cierre %s %s", label, bal.Code),
		}
		// A counter-natural residue is zeroed from the opposite side.
		zeroingDebit := income == amount.IsPositive()
		if zeroingDebit {
			entry.DebitAmount = amount.Abs()
		} else {
			entry.CreditAmount = amount.Abs()
		}
		entries = append(entries, entry)
		total = total.Add(amount)
	}

	if total.Abs().LessThan(domain.BalanceTolerance) || len(entries) == 0 {
		// Nothing to close; discard rather than posting an empty transaction.
		return decimal.Zero, nil
	}

	companion := dto.CreateEntryRequest{
		AccountID:   clearing.AccountID,
		Description: fmt.Sprintf("Cierre %s del periodo", label),
	}
	// The clearing leg takes the opposite side of the family being zeroed; a
	// negative family total flips it.
	if income == total.IsPositive() {
		companion.CreditAmount = total.Abs()
	} else {
		companion.DebitAmount = total.Abs()
	}
	entries = append(entries, companion)

	txnReq := dto.CreateTransactionRequest{
		Date:        req.PeriodEnd,
		Description: fmt.Sprintf("Cierre de %s %s a %s", label, req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02")),
		Reference:   &dto.ReferenceRequest{Type: string(domain.ReferenceClosure), ID: closureID},
		Entries:     entries,
	}
	if _, err := s.ledgerSvc.Post(ctx, conjuntoID, txnReq, userID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to post %s closing transaction: %w", label, err)
	}
	return total, nil
}

// transferNetResult moves the clearing account's net into equity: surplus on
// a positive result, deficit on a negative one, nothing within tolerance.
func (s *closureService) transferNetResult(ctx context.Context, conjuntoID, closureID string, req dto.ExecuteClosureRequest, clearing, surplus, deficit *domain.Account, net decimal.Decimal, userID string) (string, error) {
	if net.Abs().LessThan(domain.BalanceTolerance) {
		return "", nil
	}

	var entries []dto.CreateEntryRequest
	var label string
	if net.IsPositive() {
		label = "excedente"
		entries = []dto.CreateEntryRequest{
			{AccountID: clearing.AccountID, DebitAmount: net, Description: "Traslado de resultado del ejercicio"},
			{AccountID: surplus.AccountID, CreditAmount: net, Description: "Excedente del ejercicio"},
		}
	} else {
		label = "déficit"
		loss := net.Abs()
		entries = []dto.CreateEntryRequest{
			{AccountID: clearing.AccountID, CreditAmount: loss, Description: "Traslado de resultado del ejercicio"},
			{AccountID: deficit.AccountID, DebitAmount: loss, Description: "Déficit del ejercicio"},
		}
	}

	txnReq := dto.CreateTransactionRequest{
		Date:        req.PeriodEnd,
		Description: fmt.Sprintf("Traslado de %s del periodo %s a %s", label, req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02")),
		Reference:   &dto.ReferenceRequest{Type: string(domain.ReferenceClosure), ID: closureID},
		Entries:     entries,
	}
	txn, err := s.ledgerSvc.Post(ctx, conjuntoID, txnReq, userID)
	if err != nil {
		return "", fmt.Errorf("failed to post net result transaction: %w", err)
	}
	return txn.TransactionID, nil
}

// ReverseClosure cancels every transaction tagged to a completed closure and
// marks it REVERSED, freeing the period key for a fresh run.
func (s *closureService) ReverseClosure(ctx context.Context, conjuntoID, closureID, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	return s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		closure, err := s.closureRepo.FindClosureByID(ctx, closureID)
		if err != nil {
			return fmt.Errorf("failed to find closure %s: %w", closureID, err)
		}
		if closure.ConjuntoID != conjuntoID {
			return fmt.Errorf("%w: closure %s", apperrors.ErrOwnershipMismatch, closureID)
		}
		if closure.Status != domain.ClosureCompleted {
			return fmt.Errorf("%w: status is %s", apperrors.ErrClosureNotReversible, closure.Status)
		}

		ref := domain.Reference{Type: domain.ReferenceClosure, ID: closureID}
		txns, err := s.txnRepo.ListTransactionsByReference(ctx, conjuntoID, ref)
		if err != nil {
			return fmt.Errorf("failed to list closure transactions: %w", err)
		}

		now := time.Now().UTC()
		for _, txn := range txns {
			if err := s.txnRepo.UpdateTransactionStatus(ctx, conjuntoID, txn.TransactionID, domain.Cancelled, userID, now); err != nil {
				return fmt.Errorf("failed to cancel closure transaction %s: %w", txn.TransactionID, err)
			}
		}
		if err := s.closureRepo.UpdateClosureStatus(ctx, closureID, domain.ClosureReversed, userID, now); err != nil {
			return fmt.Errorf("failed to mark closure reversed: %w", err)
		}

		logger.Info("Closure reversed",
			slog.String("closure_id", closureID),
			slog.String("conjunto_id", conjuntoID),
			slog.Int("cancelled_transactions", len(txns)),
		)
		return nil
	})
}

// PreviewClosure computes what a real run would post, without creating any
// transaction or closure row.
func (s *closureService) PreviewClosure(ctx context.Context, conjuntoID string, periodStart, periodEnd time.Time) (*domain.ClosurePreview, error) {
	windowEnd := exclusiveEnd(periodEnd)

	incomes, err := s.txnRepo.BalancesByCodePrefix(ctx, conjuntoID, s.policy.Accounts.IncomePrefix, periodStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to compute income balances: %w", err)
	}
	expenses, err := s.txnRepo.BalancesByCodePrefix(ctx, conjuntoID, s.policy.Accounts.ExpensePrefix, periodStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to compute expense balances: %w", err)
	}

	preview := &domain.ClosurePreview{
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, bal := range incomes {
		bal.Balance = bal.Credits.Sub(bal.Debits)
		if bal.Balance.Abs().LessThan(domain.BalanceTolerance) {
			continue
		}
		preview.IncomeBreakdown = append(preview.IncomeBreakdown, bal)
		preview.TotalIncome = preview.TotalIncome.Add(bal.Balance)
	}
	for _, bal := range expenses {
		if bal.Code == s.policy.Accounts.Clearing {
			continue
		}
		bal.Balance = bal.Debits.Sub(bal.Credits)
		if bal.Balance.Abs().LessThan(domain.BalanceTolerance) {
			continue
		}
		preview.ExpenseBreakdown = append(preview.ExpenseBreakdown, bal)
		preview.TotalExpenses = preview.TotalExpenses.Add(bal.Balance)
	}
	preview.NetResult = preview.TotalIncome.Sub(preview.TotalExpenses)
	return preview, nil
}

// GetClosureHistory lists closures, newest first.
func (s *closureService) GetClosureHistory(ctx context.Context, conjuntoID string, fiscalYear int) ([]domain.PeriodClosure, error) {
	closures, err := s.closureRepo.ListClosures(ctx, conjuntoID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list closures: %w", err)
	}
	return closures, nil
}

func (s *closureService) findRequiredAccount(ctx context.Context, conjuntoID, code string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account code %s", apperrors.ErrMissingRequiredAccount, code)
		}
		return nil, fmt.Errorf("failed to find account %s: %w", code, err)
	}
	return acc, nil
}

// exclusiveEnd converts an inclusive period end date into the exclusive upper
// bound used by window queries.
func exclusiveEnd(periodEnd time.Time) time.Time {
	return periodEnd.AddDate(0, 0, 1)
}
