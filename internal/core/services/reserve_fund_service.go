package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
	"github.com/ingmontoya/tavira-ledger/internal/utils/accounting"
)

// reserveFundService computes and posts the statutory monthly reserve
// appropriation from operational income (Ley 675).
type reserveFundService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	ledgerSvc   portssvc.LedgerSvcFacade
	policy      Policy
}

// NewReserveFundService creates the reserve fund appropriator.
func NewReserveFundService(
	accountRepo portsrepo.AccountRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
	policy Policy,
) portssvc.ReserveFundSvcFacade {
	return &reserveFundService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		ledgerSvc:   ledgerSvc,
		policy:      policy,
	}
}

var _ portssvc.ReserveFundSvcFacade = (*reserveFundService)(nil)

// CalculateMonthlyReserve sums credit-side operational income posted in the
// month and applies the statutory percentage, rounded to cents.
func (s *reserveFundService) CalculateMonthlyReserve(ctx context.Context, conjuntoID string, month, year int) (decimal.Decimal, error) {
	from, to := accounting.MonthWindow(year, month)
	income, err := s.txnRepo.SumCreditsByCodePrefix(ctx, conjuntoID, s.policy.Accounts.OperationalIncomePrefix, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum operational income for %d-%02d: %w", year, month, err)
	}
	return accounting.RoundCents(income.Mul(s.policy.ReservePercentage)), nil
}

// ExecuteMonthlyAppropriation posts the reserve appropriation for one period.
// Idempotent: an existing non-cancelled appropriation for the exact period
// key short-circuits without side effects. A zero computed amount or a
// missing reserve account is a hard failure, never a silent skip.
func (s *reserveFundService) ExecuteMonthlyAppropriation(ctx context.Context, conjuntoID string, month, year int, userID string) (*domain.AppropriationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	periodKey := accounting.MonthKey(year, month)
	ref := domain.Reference{Type: domain.ReferenceReserveAppropriation, ID: periodKey}

	existing, err := s.txnRepo.ListTransactionsByReference(ctx, conjuntoID, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing appropriations for %s: %w", periodKey, err)
	}
	if len(existing) > 0 {
		logger.Info("Appropriation already exists, skipping",
			slog.String("conjunto_id", conjuntoID),
			slog.String("period", periodKey),
			slog.String("transaction_id", existing[0].TransactionID),
		)
		return &domain.AppropriationResult{
			Applied:       false,
			Reason:        fmt.Sprintf("appropriation already posted for %s", periodKey),
			TransactionID: existing[0].TransactionID,
		}, nil
	}

	amount, err := s.CalculateMonthlyReserve(ctx, conjuntoID, month, year)
	if err != nil {
		return nil, err
	}

	expenseAcc, err := s.findRequiredAccount(ctx, conjuntoID, s.policy.Accounts.ReserveExpense)
	if err != nil {
		return nil, err
	}
	fundAcc, err := s.findRequiredAccount(ctx, conjuntoID, s.policy.Accounts.ReserveFund)
	if err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: no operational income to appropriate for %s", apperrors.ErrMissingRequiredAccount, periodKey)
	}

	_, periodEnd := accounting.MonthWindow(year, month)
	req := dto.CreateTransactionRequest{
		Date:        periodEnd.AddDate(0, 0, -1),
		Description: fmt.Sprintf("Apropiación fondo de imprevistos %s", periodKey),
		Reference:   &dto.ReferenceRequest{Type: string(domain.ReferenceReserveAppropriation), ID: periodKey},
		Entries: []dto.CreateEntryRequest{
			{
				AccountID:   expenseAcc.AccountID,
				DebitAmount: amount,
				Description: fmt.Sprintf("Apropiación %s", periodKey),
			},
			{
				AccountID:    fundAcc.AccountID,
				CreditAmount: amount,
				Description:  fmt.Sprintf("Fondo de imprevistos %s", periodKey),
			},
		},
	}
	txn, err := s.ledgerSvc.Post(ctx, conjuntoID, req, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to post appropriation for %s: %w", periodKey, err)
	}

	logger.Info("Reserve appropriation posted",
		slog.String("conjunto_id", conjuntoID),
		slog.String("period", periodKey),
		slog.String("amount", amount.String()),
		slog.String("transaction_id", txn.TransactionID),
	)
	return &domain.AppropriationResult{
		Applied:       true,
		Amount:        amount,
		TransactionID: txn.TransactionID,
	}, nil
}

// GetAppropriationHistory lists appropriation transactions posted for a year,
// one period key at a time.
func (s *reserveFundService) GetAppropriationHistory(ctx context.Context, conjuntoID string, year int) ([]domain.Transaction, error) {
	var history []domain.Transaction
	for month := 1; month <= 12; month++ {
		ref := domain.Reference{Type: domain.ReferenceReserveAppropriation, ID: accounting.MonthKey(year, month)}
		txns, err := s.txnRepo.ListTransactionsByReference(ctx, conjuntoID, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to list appropriations for %d-%02d: %w", year, month, err)
		}
		history = append(history, txns...)
	}
	return history, nil
}

// ValidateLegalCompliance audits a whole year against the statutory minimum,
// independent of whether appropriations ran monthly or in bulk. Read-only.
func (s *reserveFundService) ValidateLegalCompliance(ctx context.Context, conjuntoID string, year int) (*domain.ReserveCompliance, error) {
	from, to := accounting.YearWindow(year)

	totalIncome, err := s.txnRepo.SumCreditsByCodePrefix(ctx, conjuntoID, s.policy.Accounts.OperationalIncomePrefix, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum operational income for %d: %w", year, err)
	}

	fundAcc, err := s.findRequiredAccount(ctx, conjuntoID, s.policy.Accounts.ReserveFund)
	if err != nil {
		return nil, err
	}
	sums, err := s.txnRepo.SumEntriesByAccount(ctx, conjuntoID, fundAcc.AccountID, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum reserve fund entries for %d: %w", year, err)
	}
	appropriated := sums.Credits.Sub(sums.Debits)

	minimum := accounting.RoundCents(totalIncome.Mul(s.policy.ReservePercentage))
	compliance := &domain.ReserveCompliance{
		ConjuntoID:        conjuntoID,
		Year:              year,
		TotalIncome:       totalIncome,
		TotalAppropriated: appropriated,
		MinimumRequired:   minimum,
		Deficit:           decimal.Zero,
	}

	if minimum.IsPositive() {
		compliance.CompliancePercentage = accounting.RoundCents(appropriated.Div(minimum).Mul(decimal.NewFromInt(100)))
	} else {
		compliance.CompliancePercentage = decimal.NewFromInt(100)
	}
	shortfall := minimum.Sub(appropriated)
	if shortfall.GreaterThan(domain.BalanceTolerance) {
		compliance.Deficit = shortfall
	} else {
		compliance.IsCompliant = true
	}
	return compliance, nil
}

func (s *reserveFundService) findRequiredAccount(ctx context.Context, conjuntoID, code string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account code %s", apperrors.ErrMissingRequiredAccount, code)
		}
		return nil, fmt.Errorf("failed to find account %s: %w", code, err)
	}
	return acc, nil
}
