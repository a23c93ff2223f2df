package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsevents "github.com/ingmontoya/tavira-ledger/internal/core/ports/events"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
)

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, conjuntoID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, conjuntoID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error) {
	args := m.Called(ctx, conjuntoID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, conjuntoID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, conjuntoID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByCodePrefix(ctx context.Context, conjuntoID, prefix string, postableOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, conjuntoID, prefix, postableOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// --- Mock TransactionRepository ---

type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, conjuntoID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByPeriod(ctx context.Context, conjuntoID string, from, to time.Time, status *domain.TransactionStatus) ([]domain.Transaction, error) {
	args := m.Called(ctx, conjuntoID, from, to, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByReference(ctx context.Context, conjuntoID string, ref domain.Reference) ([]domain.Transaction, error) {
	args := m.Called(ctx, conjuntoID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountDraftTransactions(ctx context.Context, conjuntoID string, from, to time.Time) (int, error) {
	args := m.Called(ctx, conjuntoID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransactionStatus(ctx context.Context, conjuntoID, transactionID string, status domain.TransactionStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, conjuntoID, transactionID, status, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockTransactionRepository) SumEntriesByAccount(ctx context.Context, conjuntoID, accountID string, from, to *time.Time) (portsrepo.EntrySums, error) {
	args := m.Called(ctx, conjuntoID, accountID, from, to)
	return args.Get(0).(portsrepo.EntrySums), args.Error(1)
}

func (m *MockTransactionRepository) SumEntriesByPeriod(ctx context.Context, conjuntoID string, from, to time.Time) (portsrepo.EntrySums, error) {
	args := m.Called(ctx, conjuntoID, from, to)
	return args.Get(0).(portsrepo.EntrySums), args.Error(1)
}

func (m *MockTransactionRepository) SumCreditsByCodePrefix(ctx context.Context, conjuntoID, prefix string, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, prefix, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) BalancesByCodePrefix(ctx context.Context, conjuntoID, prefix string, from, to time.Time) ([]domain.AccountBalance, error) {
	args := m.Called(ctx, conjuntoID, prefix, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountBalance), args.Error(1)
}

// --- Mock ClosureRepository ---

type MockClosureRepository struct {
	mock.Mock
}

var _ portsrepo.ClosureRepositoryFacade = (*MockClosureRepository)(nil)

func (m *MockClosureRepository) FindClosureByID(ctx context.Context, closureID string) (*domain.PeriodClosure, error) {
	args := m.Called(ctx, closureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodClosure), args.Error(1)
}

func (m *MockClosureRepository) FindCompletedClosure(ctx context.Context, conjuntoID string, fiscalYear int, periodType domain.PeriodType) (*domain.PeriodClosure, error) {
	args := m.Called(ctx, conjuntoID, fiscalYear, periodType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodClosure), args.Error(1)
}

func (m *MockClosureRepository) ListClosures(ctx context.Context, conjuntoID string, fiscalYear int) ([]domain.PeriodClosure, error) {
	args := m.Called(ctx, conjuntoID, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodClosure), args.Error(1)
}

func (m *MockClosureRepository) SaveClosure(ctx context.Context, closure domain.PeriodClosure) error {
	args := m.Called(ctx, closure)
	return args.Error(0)
}

func (m *MockClosureRepository) CompleteClosure(ctx context.Context, closureID string, totalIncome, totalExpenses, netResult decimal.Decimal, closingTransactionID string, updatedAt time.Time) error {
	args := m.Called(ctx, closureID, totalIncome, totalExpenses, netResult, closingTransactionID, updatedAt)
	return args.Error(0)
}

func (m *MockClosureRepository) UpdateClosureStatus(ctx context.Context, closureID string, status domain.ClosureStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, closureID, status, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockClosureRepository) LockPeriod(ctx context.Context, conjuntoID string, fiscalYear int, periodType domain.PeriodType) error {
	args := m.Called(ctx, conjuntoID, fiscalYear, periodType)
	return args.Error(0)
}

// --- Mock InvoiceRepository ---

type MockInvoiceRepository struct {
	mock.Mock
}

var _ portsrepo.InvoiceRepositoryFacade = (*MockInvoiceRepository)(nil)

func (m *MockInvoiceRepository) FindInvoiceByID(ctx context.Context, conjuntoID, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, conjuntoID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListInvoicesNeedingLateFees(ctx context.Context, conjuntoID string, asOf time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, conjuntoID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SummarizeLateFees(ctx context.Context, conjuntoID string, from, to time.Time) (*domain.LateFeeSummary, error) {
	args := m.Called(ctx, conjuntoID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LateFeeSummary), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateInvoiceLateFees(ctx context.Context, invoice domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// --- Mock ClosingRepository ---

type MockClosingRepository struct {
	mock.Mock
}

var _ portsrepo.ClosingRepositoryFacade = (*MockClosingRepository)(nil)

func (m *MockClosingRepository) FindMonthlyClosing(ctx context.Context, conjuntoID string, month, year int) (*domain.MonthlyClosing, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MonthlyClosing), args.Error(1)
}

func (m *MockClosingRepository) ListMonthlyClosings(ctx context.Context, conjuntoID string, year int) ([]domain.MonthlyClosing, error) {
	args := m.Called(ctx, conjuntoID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyClosing), args.Error(1)
}

func (m *MockClosingRepository) SaveMonthlyClosing(ctx context.Context, closing domain.MonthlyClosing) error {
	args := m.Called(ctx, closing)
	return args.Error(0)
}

// --- Mock PartyReader ---

type MockPartyReader struct {
	mock.Mock
}

var _ portsrepo.PartyReader = (*MockPartyReader)(nil)

func (m *MockPartyReader) ApartmentExists(ctx context.Context, conjuntoID, apartmentID string) (bool, error) {
	args := m.Called(ctx, conjuntoID, apartmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPartyReader) SupplierExists(ctx context.Context, conjuntoID, supplierID string) (bool, error) {
	args := m.Called(ctx, conjuntoID, supplierID)
	return args.Bool(0), args.Error(1)
}

// --- Mock TxManager ---

// MockTxManager runs the callback directly; the rollback semantics of the
// real unit of work are covered by integration tests.
type MockTxManager struct {
	mock.Mock
}

var _ portsrepo.TxManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

// --- Mock Publisher ---

type MockPublisher struct {
	mock.Mock
}

var _ portsevents.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, topic string, event any) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

// --- Mock ReportGenerator ---

type MockReportGenerator struct {
	mock.Mock
}

var _ portssvc.ReportGenerator = (*MockReportGenerator)(nil)

func (m *MockReportGenerator) GenerateMonthlyReport(ctx context.Context, conjuntoID string, month, year int) error {
	args := m.Called(ctx, conjuntoID, month, year)
	return args.Error(0)
}

// --- Mock LedgerService (as used by downstream services) ---

type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) Post(ctx context.Context, conjuntoID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error) {
	args := m.Called(ctx, conjuntoID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) Cancel(ctx context.Context, conjuntoID, transactionID, userID string) error {
	args := m.Called(ctx, conjuntoID, transactionID, userID)
	return args.Error(0)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, conjuntoID, accountID string, from, to *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, accountID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, conjuntoID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, conjuntoID string, month, year int) ([]domain.Transaction, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// --- Mock ValidationService ---

type MockValidationService struct {
	mock.Mock
}

var _ portssvc.ValidationSvcFacade = (*MockValidationService)(nil)

func (m *MockValidationService) ValidateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.ValidationResult, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

func (m *MockValidationService) ValidateBatch(ctx context.Context, txns []domain.Transaction) (*domain.BatchValidationSummary, error) {
	args := m.Called(ctx, txns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchValidationSummary), args.Error(1)
}

func (m *MockValidationService) ValidatePeriod(ctx context.Context, conjuntoID string, month, year int) (*domain.PeriodValidationResult, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodValidationResult), args.Error(1)
}

// --- Mock LateFeeService ---

type MockLateFeeService struct {
	mock.Mock
}

var _ portssvc.LateFeeSvcFacade = (*MockLateFeeService)(nil)

func (m *MockLateFeeService) ProcessMonthlyLateFee(ctx context.Context, conjuntoID, invoiceID string, asOf time.Time, dryRun bool) (*domain.LateFeeResult, error) {
	args := m.Called(ctx, conjuntoID, invoiceID, asOf, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LateFeeResult), args.Error(1)
}

func (m *MockLateFeeService) ProcessPendingLateFees(ctx context.Context, conjuntoID string, asOf time.Time, userID string) (*domain.LateFeeBatchResult, error) {
	args := m.Called(ctx, conjuntoID, asOf, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LateFeeBatchResult), args.Error(1)
}

func (m *MockLateFeeService) GetInvoicesNeedingProcessing(ctx context.Context, conjuntoID string, asOf time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, conjuntoID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockLateFeeService) GetLateFeesSummary(ctx context.Context, conjuntoID string, month, year int) (*domain.LateFeeSummary, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LateFeeSummary), args.Error(1)
}

// --- Mock ReserveFundService ---

type MockReserveFundService struct {
	mock.Mock
}

var _ portssvc.ReserveFundSvcFacade = (*MockReserveFundService)(nil)

func (m *MockReserveFundService) CalculateMonthlyReserve(ctx context.Context, conjuntoID string, month, year int) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReserveFundService) ExecuteMonthlyAppropriation(ctx context.Context, conjuntoID string, month, year int, userID string) (*domain.AppropriationResult, error) {
	args := m.Called(ctx, conjuntoID, month, year, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppropriationResult), args.Error(1)
}

func (m *MockReserveFundService) GetAppropriationHistory(ctx context.Context, conjuntoID string, year int) ([]domain.Transaction, error) {
	args := m.Called(ctx, conjuntoID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockReserveFundService) ValidateLegalCompliance(ctx context.Context, conjuntoID string, year int) (*domain.ReserveCompliance, error) {
	args := m.Called(ctx, conjuntoID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReserveCompliance), args.Error(1)
}
