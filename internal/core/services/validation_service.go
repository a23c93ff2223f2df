package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
	"github.com/ingmontoya/tavira-ledger/internal/utils/accounting"
)

// referenceResolver checks that one kind of business reference exists.
type referenceResolver func(ctx context.Context, conjuntoID, id string) (bool, error)

// validationService is the stateless inspector. Every check runs even when
// earlier ones fail so callers see all problems at once, and findings are
// returned as data rather than raised.
type validationService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	partyRepo   portsrepo.PartyReader
	reserveSvc  portssvc.ReserveFundSvcFacade
	policy      Policy
	resolvers   map[domain.ReferenceType]referenceResolver
}

// NewValidationService creates the validation engine. Reference resolution is
// a tagged dispatch per reference kind; kinds without a resolver (external
// records like invoices before billing sync) stay unresolved and warn.
func NewValidationService(
	accountRepo portsrepo.AccountRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	partyRepo portsrepo.PartyReader,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	closureRepo portsrepo.ClosureRepositoryFacade,
	reserveSvc portssvc.ReserveFundSvcFacade,
	policy Policy,
) portssvc.ValidationSvcFacade {
	s := &validationService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		partyRepo:   partyRepo,
		reserveSvc:  reserveSvc,
		policy:      policy,
	}
	s.resolvers = map[domain.ReferenceType]referenceResolver{
		domain.ReferenceInvoice: func(ctx context.Context, conjuntoID, id string) (bool, error) {
			_, err := invoiceRepo.FindInvoiceByID(ctx, conjuntoID, id)
			if errors.Is(err, apperrors.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
		domain.ReferenceClosure: func(ctx context.Context, conjuntoID, id string) (bool, error) {
			closure, err := closureRepo.FindClosureByID(ctx, id)
			if errors.Is(err, apperrors.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return closure.ConjuntoID == conjuntoID, nil
		},
		domain.ReferenceReserveAppropriation: func(ctx context.Context, conjuntoID, id string) (bool, error) {
			// Appropriations are tagged with a period key, not a row ID.
			return len(id) == len("2006-01"), nil
		},
		domain.ReferenceManual: func(ctx context.Context, conjuntoID, id string) (bool, error) {
			return true, nil
		},
	}
	return s
}

var _ portssvc.ValidationSvcFacade = (*validationService)(nil)

// ValidateTransaction runs every structural and business check against one
// transaction and returns the accumulated findings.
func (s *validationService) ValidateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{TransactionID: txn.TransactionID}

	accounts, err := s.fetchAccounts(ctx, txn)
	if err != nil {
		return nil, err
	}

	s.checkBalance(txn, result)
	s.checkPeriodWindow(txn, result)
	s.checkAccounts(txn, accounts, result)
	if err := s.checkThirdParties(ctx, txn, accounts, result); err != nil {
		return nil, err
	}
	if err := s.checkReference(ctx, txn, result); err != nil {
		return nil, err
	}
	s.checkDomainRules(txn, accounts, result)

	return result, nil
}

// ValidateBatch validates many transactions and aggregates the counts.
func (s *validationService) ValidateBatch(ctx context.Context, txns []domain.Transaction) (*domain.BatchValidationSummary, error) {
	summary := &domain.BatchValidationSummary{Total: len(txns)}
	for i := range txns {
		result, err := s.ValidateTransaction(ctx, &txns[i])
		if err != nil {
			return nil, fmt.Errorf("failed to validate transaction %s: %w", txns[i].TransactionID, err)
		}
		if result.IsValid() {
			summary.Valid++
		} else {
			summary.WithErrors++
		}
		if len(result.Warnings) > 0 {
			summary.WithWarnings++
		}
		summary.Results = append(summary.Results, *result)
	}
	return summary, nil
}

// ValidatePeriod validates every transaction of a month and re-sums the
// period's entries straight from the store to catch drift that per-transaction
// totals would hide.
func (s *validationService) ValidatePeriod(ctx context.Context, conjuntoID string, month, year int) (*domain.PeriodValidationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	from, to := accounting.MonthWindow(year, month)

	posted := domain.Posted
	txns, err := s.txnRepo.ListTransactionsByPeriod(ctx, conjuntoID, from, to, &posted)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %d-%02d: %w", year, month, err)
	}

	period := &domain.PeriodValidationResult{
		ConjuntoID: conjuntoID,
		Month:      month,
		Year:       year,
	}
	for i := range txns {
		result, err := s.ValidateTransaction(ctx, &txns[i])
		if err != nil {
			return nil, fmt.Errorf("failed to validate transaction %s: %w", txns[i].TransactionID, err)
		}
		period.Results = append(period.Results, *result)
	}

	sums, err := s.txnRepo.SumEntriesByPeriod(ctx, conjuntoID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to re-sum entries for %d-%02d: %w", year, month, err)
	}
	period.PeriodDebits = sums.Debits
	period.PeriodCredits = sums.Credits
	period.Balanced = accounting.WithinTolerance(sums.Debits, sums.Credits)
	if !period.Balanced {
		period.Issues = append(period.Issues, domain.ValidationIssue{
			Code:     domain.IssuePeriodImbalance,
			Severity: domain.SeverityError,
			Message:  fmt.Sprintf("period debits %s do not match credits %s", sums.Debits, sums.Credits),
		})
	}

	if err := s.checkReserveCompliance(ctx, conjuntoID, month, year, period); err != nil {
		// The statutory check depends on the reserve accounts existing; a
		// missing account is a finding here, not a hard failure.
		if errors.Is(err, apperrors.ErrMissingRequiredAccount) || errors.Is(err, apperrors.ErrNotFound) {
			period.Issues = append(period.Issues, domain.ValidationIssue{
				Code:     domain.IssueReserveShortfall,
				Severity: domain.SeverityWarning,
				Message:  "reserve fund accounts are not provisioned; statutory compliance cannot be verified",
			})
		} else {
			return nil, err
		}
	}

	logger.Info("Period validated",
		slog.String("conjunto_id", conjuntoID),
		slog.Int("month", month),
		slog.Int("year", year),
		slog.Int("transactions", len(txns)),
		slog.Bool("balanced", period.Balanced),
	)
	return period, nil
}

func (s *validationService) fetchAccounts(ctx context.Context, txn *domain.Transaction) (map[string]domain.Account, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(txn.Entries))
	for _, e := range txn.Entries {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			ids = append(ids, e.AccountID)
		}
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, txn.ConjuntoID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for validation: %w", err)
	}
	return accounts, nil
}

// checkBalance: debit total must equal credit total within tolerance, and
// every entry must move exactly one side.
func (s *validationService) checkBalance(txn *domain.Transaction, result *domain.ValidationResult) {
	for _, e := range txn.Entries {
		if !e.IsOneSided() {
			result.AddEntryError(domain.IssueEntryNotOneSided,
				"entry must carry exactly one positive side", e.AccountID, e.EntryID)
		}
	}
	if !txn.IsBalanced() {
		result.AddError(domain.IssueUnbalanced,
			fmt.Sprintf("debits %s do not match credits %s", txn.TotalDebits(), txn.TotalCredits()))
	}
}

// checkPeriodWindow: the soft operational guard, distinct from the hard
// closure lock. Dates older than the rolling window or too far in the future
// are errors.
func (s *validationService) checkPeriodWindow(txn *domain.Transaction, result *domain.ValidationResult) {
	now := time.Now().UTC()
	oldest := now.AddDate(0, -s.policy.ValidationMonthsBack, 0)
	newest := now.AddDate(0, s.policy.ValidationMonthsForward, 0)

	if txn.Date.Before(oldest) {
		result.AddError(domain.IssueOutsideWindow,
			fmt.Sprintf("transaction date %s is older than the %d-month posting window",
				txn.Date.Format("2006-01-02"), s.policy.ValidationMonthsBack))
	}
	if txn.Date.After(newest) {
		result.AddError(domain.IssueOutsideWindow,
			fmt.Sprintf("transaction date %s is more than %d month(s) in the future",
				txn.Date.Format("2006-01-02"), s.policy.ValidationMonthsForward))
	}
}

// checkAccounts: postings into aggregation nodes are errors; movements
// against an account's natural side are allowed but warned.
func (s *validationService) checkAccounts(txn *domain.Transaction, accounts map[string]domain.Account, result *domain.ValidationResult) {
	for _, e := range txn.Entries {
		acc, found := accounts[e.AccountID]
		if !found {
			result.AddEntryError(domain.IssueUnknownAccount, "account does not exist", e.AccountID, e.EntryID)
			continue
		}
		if !acc.AcceptsPosting {
			result.AddEntryError(domain.IssueNonPostableAccount,
				fmt.Sprintf("account %s is an aggregation node and does not accept postings", acc.Code),
				e.AccountID, e.EntryID)
		}
		counterNature := (acc.Nature == domain.NatureDebit && !e.IsDebit()) ||
			(acc.Nature == domain.NatureCredit && e.IsDebit())
		if counterNature {
			result.AddEntryWarning(domain.IssueCounterNature,
				fmt.Sprintf("entry moves %s-natured account %s on the opposite side", strings.ToLower(string(acc.Nature)), acc.Code),
				e.AccountID, e.EntryID)
		}
	}
}

// checkThirdParties: accounts flagged requires_third_party must carry one on
// every entry, and present references must resolve.
func (s *validationService) checkThirdParties(ctx context.Context, txn *domain.Transaction, accounts map[string]domain.Account, result *domain.ValidationResult) error {
	for _, e := range txn.Entries {
		acc, found := accounts[e.AccountID]
		if found && acc.RequiresThirdParty && e.ThirdParty == nil {
			result.AddEntryError(domain.IssueMissingThirdParty,
				fmt.Sprintf("account %s requires a third party on every entry", acc.Code),
				e.AccountID, e.EntryID)
		}
		if e.ThirdParty == nil {
			continue
		}
		exists, err := s.resolveThirdParty(ctx, txn.ConjuntoID, *e.ThirdParty)
		if err != nil {
			return fmt.Errorf("failed to resolve third party %s/%s: %w", e.ThirdParty.Type, e.ThirdParty.ID, err)
		}
		if !exists {
			result.AddEntryError(domain.IssueUnknownThirdParty,
				fmt.Sprintf("third party %s %s does not exist", strings.ToLower(string(e.ThirdParty.Type)), e.ThirdParty.ID),
				e.AccountID, e.EntryID)
		}
	}
	return nil
}

func (s *validationService) resolveThirdParty(ctx context.Context, conjuntoID string, tp domain.ThirdParty) (bool, error) {
	switch tp.Type {
	case domain.ThirdPartyApartment:
		return s.partyRepo.ApartmentExists(ctx, conjuntoID, tp.ID)
	case domain.ThirdPartySupplier:
		return s.partyRepo.SupplierExists(ctx, conjuntoID, tp.ID)
	default:
		return false, nil
	}
}

// checkReference: an unresolvable business reference is a warning, never an
// error. Postings may legitimately reference records created afterwards.
func (s *validationService) checkReference(ctx context.Context, txn *domain.Transaction, result *domain.ValidationResult) error {
	if txn.Reference == nil {
		return nil
	}
	resolver, known := s.resolvers[txn.Reference.Type]
	if !known {
		result.AddWarning(domain.IssueUnresolvedReference,
			fmt.Sprintf("reference kind %s has no resolver; existence not verified", txn.Reference.Type))
		return nil
	}
	exists, err := resolver(ctx, txn.ConjuntoID, txn.Reference.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve reference %s/%s: %w", txn.Reference.Type, txn.Reference.ID, err)
	}
	if !exists {
		result.AddWarning(domain.IssueUnresolvedReference,
			fmt.Sprintf("reference %s %s does not resolve to an existing record", txn.Reference.Type, txn.Reference.ID))
	}
	return nil
}

// checkDomainRules: property-management specific conventions, all warnings.
func (s *validationService) checkDomainRules(txn *domain.Transaction, accounts map[string]domain.Account, result *domain.ValidationResult) {
	codes := s.policy.Accounts

	var reserveCredit, reserveExpenseDebit bool
	var operationalIncomeCredit, receivableEntry bool

	for _, e := range txn.Entries {
		acc, found := accounts[e.AccountID]
		if !found {
			continue
		}
		if strings.HasPrefix(acc.Code, codes.ReceivablesPrefix) {
			receivableEntry = true
			if e.ThirdParty == nil || e.ThirdParty.Type != domain.ThirdPartyApartment {
				result.AddEntryWarning(domain.IssueReceivableWithoutUnit,
					fmt.Sprintf("receivables entry on %s lacks an apartment third party for aging reports", acc.Code),
					e.AccountID, e.EntryID)
			}
		}
		if acc.Code == codes.ReserveFund && !e.IsDebit() {
			reserveCredit = true
		}
		if acc.Code == codes.ReserveExpense && e.IsDebit() {
			reserveExpenseDebit = true
		}
		if strings.HasPrefix(acc.Code, codes.OperationalIncomePrefix) && !e.IsDebit() {
			operationalIncomeCredit = true
		}
	}

	if reserveCredit && !reserveExpenseDebit {
		result.AddWarning(domain.IssueReserveWithoutExpense,
			"credit to the reserve fund is not matched by a debit to the reserve appropriation expense in the same transaction")
	}
	if operationalIncomeCredit && !receivableEntry {
		result.AddWarning(domain.IssueIncomeWithoutReceivable,
			"operational income posting has no offsetting receivables entry in the same transaction")
	}
}

// checkReserveCompliance adds a period-level finding when the month's
// appropriations fall short of the statutory share of operational income.
func (s *validationService) checkReserveCompliance(ctx context.Context, conjuntoID string, month, year int, period *domain.PeriodValidationResult) error {
	required, err := s.reserveSvc.CalculateMonthlyReserve(ctx, conjuntoID, month, year)
	if err != nil {
		return err
	}
	period.ReserveCompliant = true
	if !required.IsPositive() {
		return nil
	}

	reserveAcc, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, s.policy.Accounts.ReserveFund)
	if err != nil {
		return err
	}
	from, to := accounting.MonthWindow(year, month)
	sums, err := s.txnRepo.SumEntriesByAccount(ctx, conjuntoID, reserveAcc.AccountID, &from, &to)
	if err != nil {
		return err
	}

	appropriated := sums.Credits.Sub(sums.Debits)
	if appropriated.LessThan(required) {
		period.ReserveCompliant = false
		period.Issues = append(period.Issues, domain.ValidationIssue{
			Code:     domain.IssueReserveShortfall,
			Severity: domain.SeverityWarning,
			Message: fmt.Sprintf("reserve appropriations %s fall short of the statutory minimum %s for %d-%02d",
				appropriated, required, year, month),
		})
	}
	return nil
}
