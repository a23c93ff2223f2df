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
	"github.com/ingmontoya/tavira-ledger/internal/utils/accounting"
)

var (
	ErrTransactionMinEntries  = errors.New("transaction must have at least two entries")
	ErrTransactionMinAccounts = errors.New("transaction must affect at least two different accounts")
	ErrEntryNotOneSided       = errors.New("entry must be either a debit or a credit, not both or neither")
	ErrAccountNotFound        = errors.New("account not found")
	ErrNotCancellable         = errors.New("transaction cannot be cancelled")
)

// ledgerService is the sole mutator of ledger state: it posts balanced
// transactions, cancels them, and reports nature-signed balances.
type ledgerService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
}

// NewLedgerService creates the ledger store service.
func NewLedgerService(accountRepo portsrepo.AccountRepositoryFacade, txnRepo portsrepo.TransactionRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// Post validates and persists a transaction, flipping it to POSTED. The
// monetary content is immutable afterwards.
func (s *ledgerService) Post(ctx context.Context, conjuntoID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(req.Entries) < 2 {
		return nil, ErrTransactionMinEntries
	}

	accountSet := make(map[string]bool)
	for _, e := range req.Entries {
		accountSet[e.AccountID] = true
	}
	if len(accountSet) < 2 {
		return nil, ErrTransactionMinAccounts
	}

	now := time.Now().UTC()
	transactionID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorUserID,
	}

	entries := make([]domain.Entry, len(req.Entries))
	accountIDs := make([]string, 0, len(accountSet))
	for id := range accountSet {
		accountIDs = append(accountIDs, id)
	}
	for i, entryReq := range req.Entries {
		entries[i] = domain.Entry{
			EntryID:       uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     entryReq.AccountID,
			DebitAmount:   entryReq.DebitAmount,
			CreditAmount:  entryReq.CreditAmount,
			Description:   entryReq.Description,
			ThirdParty:    entryReq.ThirdParty.ToDomainThirdParty(),
			AuditFields:   audit,
		}
		if !entries[i].IsOneSided() {
			return nil, fmt.Errorf("%w: account %s", ErrEntryNotOneSided, entryReq.AccountID)
		}
	}

	txn := domain.Transaction{
		TransactionID: transactionID,
		ConjuntoID:    conjuntoID,
		Date:          req.Date,
		Description:   req.Description,
		Status:        domain.Posted,
		Reference:     req.Reference.ToDomainReference(),
		Entries:       entries,
		AuditFields:   audit,
	}

	if !txn.IsBalanced() {
		return nil, fmt.Errorf("%w: debits %s, credits %s",
			apperrors.ErrUnbalancedTransaction, txn.TotalDebits().String(), txn.TotalCredits().String())
	}

	accountsMap, err := s.accountRepo.FindAccountsByIDs(ctx, conjuntoID, accountIDs)
	if err != nil {
		logger.Error("Failed to fetch accounts for posting", slog.String("error", err.Error()), slog.String("conjunto_id", conjuntoID))
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range accountIDs {
		acc, found := accountsMap[id]
		if !found {
			return nil, fmt.Errorf("%w: ID %s", ErrAccountNotFound, id)
		}
		if acc.ConjuntoID != conjuntoID {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrOwnershipMismatch, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		if !acc.AcceptsPosting {
			return nil, fmt.Errorf("%w: account %s (%s)", apperrors.ErrNonPostableAccount, acc.Code, id)
		}
	}

	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		logger.Error("Failed to save transaction", slog.String("error", err.Error()), slog.String("conjunto_id", conjuntoID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	logger.Info("Transaction posted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("conjunto_id", conjuntoID),
		slog.String("total", txn.TotalDebits().String()),
	)
	return &txn, nil
}

// Cancel marks a posted transaction cancelled. Closure transactions are
// refused; those are only undone through an explicit closure reversal.
func (s *ledgerService) Cancel(ctx context.Context, conjuntoID, transactionID, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if txn.ConjuntoID != conjuntoID {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrOwnershipMismatch, transactionID)
	}
	if !txn.CanBeCancelled() {
		return fmt.Errorf("%w: status is %s", ErrNotCancellable, txn.Status)
	}

	now := time.Now().UTC()
	if err := s.txnRepo.UpdateTransactionStatus(ctx, conjuntoID, transactionID, domain.Cancelled, userID, now); err != nil {
		logger.Error("Failed to cancel transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return fmt.Errorf("failed to cancel transaction %s: %w", transactionID, err)
	}

	logger.Info("Transaction cancelled", slog.String("transaction_id", transactionID), slog.String("conjunto_id", conjuntoID))
	return nil
}

// GetBalance returns the nature-signed balance of an account over an optional
// window. Sums always come from the stored entries, not cached totals.
func (s *ledgerService) GetBalance(ctx context.Context, conjuntoID, accountID string, from, to *time.Time) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, conjuntoID, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	sums, err := s.txnRepo.SumEntriesByAccount(ctx, conjuntoID, accountID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum entries for account %s: %w", accountID, err)
	}

	return accounting.NatureSignedBalance(account.Nature, sums.Debits, sums.Credits), nil
}

// GetTransaction retrieves a transaction with its entries.
func (s *ledgerService) GetTransaction(ctx context.Context, conjuntoID, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if txn.ConjuntoID != conjuntoID {
		// Obscure existence across conjunto boundaries.
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

// ListTransactions lists the transactions dated in one calendar month.
func (s *ledgerService) ListTransactions(ctx context.Context, conjuntoID string, month, year int) ([]domain.Transaction, error) {
	from, to := accounting.MonthWindow(year, month)
	txns, err := s.txnRepo.ListTransactionsByPeriod(ctx, conjuntoID, from, to, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %d-%02d: %w", year, month, err)
	}
	return txns, nil
}
