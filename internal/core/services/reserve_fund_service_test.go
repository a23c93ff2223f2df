package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/core/services"
	"github.com/ingmontoya/tavira-ledger/internal/dto"
)

type ReserveFundServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockTxnRepo     *MockTransactionRepository
	mockLedgerSvc   *MockLedgerService
	service         portssvc.ReserveFundSvcFacade
	policy          services.Policy
	conjuntoID      string
	userID          string
	expenseAccount  domain.Account
	fundAccount     domain.Account
}

func (suite *ReserveFundServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.policy = services.DefaultPolicy()
	suite.service = services.NewReserveFundService(suite.mockAccountRepo, suite.mockTxnRepo, suite.mockLedgerSvc, suite.policy)

	suite.conjuntoID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.expenseAccount = domain.Account{
		AccountID:      uuid.NewString(),
		ConjuntoID:     suite.conjuntoID,
		Code:           suite.policy.Accounts.ReserveExpense,
		AccountType:    domain.Expense,
		Nature:         domain.NatureDebit,
		AcceptsPosting: true,
		IsActive:       true,
	}
	suite.fundAccount = domain.Account{
		AccountID:      uuid.NewString(),
		ConjuntoID:     suite.conjuntoID,
		Code:           suite.policy.Accounts.ReserveFund,
		AccountType:    domain.Equity,
		Nature:         domain.NatureCredit,
		AcceptsPosting: true,
		IsActive:       true,
	}
}

func (suite *ReserveFundServiceTestSuite) TestCalculateMonthlyReserve() {
	ctx := context.Background()

	suite.mockTxnRepo.On("SumCreditsByCodePrefix", ctx, suite.conjuntoID, "413",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(decimal.RequireFromString("1000000.00"), nil).Once()

	amount, err := suite.service.CalculateMonthlyReserve(ctx, suite.conjuntoID, 5, 2024)

	suite.Require().NoError(err)
	suite.True(amount.Equal(decimal.RequireFromString("300000.00")), "got %s", amount)
}

func (suite *ReserveFundServiceTestSuite) TestCalculateMonthlyReserve_RoundsToCents() {
	ctx := context.Background()

	suite.mockTxnRepo.On("SumCreditsByCodePrefix", ctx, suite.conjuntoID, "413",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(decimal.RequireFromString("333333.33"), nil).Once()

	amount, err := suite.service.CalculateMonthlyReserve(ctx, suite.conjuntoID, 5, 2024)

	suite.Require().NoError(err)
	// 333333.33 * 0.30 = 99999.999 -> 100000.00
	suite.True(amount.Equal(decimal.RequireFromString("100000.00")), "got %s", amount)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_Success() {
	ctx := context.Background()
	ref := domain.Reference{Type: domain.ReferenceReserveAppropriation, ID: "2024-05"}

	suite.mockTxnRepo.On("ListTransactionsByReference", ctx, suite.conjuntoID, ref).
		Return([]domain.Transaction{}, nil).Once()
	suite.mockTxnRepo.On("SumCreditsByCodePrefix", ctx, suite.conjuntoID, "413",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(decimal.RequireFromString("1000000.00"), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveExpense).
		Return(&suite.expenseAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveFund).
		Return(&suite.fundAccount, nil).Once()

	posted := &domain.Transaction{TransactionID: uuid.NewString(), ConjuntoID: suite.conjuntoID, Status: domain.Posted}
	suite.mockLedgerSvc.On("Post", ctx, suite.conjuntoID, mock.MatchedBy(func(req dto.CreateTransactionRequest) bool {
		if len(req.Entries) != 2 || req.Reference == nil || req.Reference.ID != "2024-05" {
			return false
		}
		expected := decimal.RequireFromString("300000.00")
		debitOK := req.Entries[0].AccountID == suite.expenseAccount.AccountID && req.Entries[0].DebitAmount.Equal(expected)
		creditOK := req.Entries[1].AccountID == suite.fundAccount.AccountID && req.Entries[1].CreditAmount.Equal(expected)
		return debitOK && creditOK
	}), suite.userID).Return(posted, nil).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 5, 2024, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.Applied)
	suite.True(result.Amount.Equal(decimal.RequireFromString("300000.00")))
	suite.Equal(posted.TransactionID, result.TransactionID)
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_Idempotent() {
	ctx := context.Background()
	ref := domain.Reference{Type: domain.ReferenceReserveAppropriation, ID: "2024-05"}
	existing := domain.Transaction{TransactionID: uuid.NewString(), ConjuntoID: suite.conjuntoID, Status: domain.Posted}

	suite.mockTxnRepo.On("ListTransactionsByReference", ctx, suite.conjuntoID, ref).
		Return([]domain.Transaction{existing}, nil).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 5, 2024, suite.userID)

	suite.Require().NoError(err)
	suite.False(result.Applied)
	suite.Equal(existing.TransactionID, result.TransactionID)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_NoIncome() {
	ctx := context.Background()
	ref := domain.Reference{Type: domain.ReferenceReserveAppropriation, ID: "2024-05"}

	suite.mockTxnRepo.On("ListTransactionsByReference", ctx, suite.conjuntoID, ref).
		Return([]domain.Transaction{}, nil).Once()
	suite.mockTxnRepo.On("SumCreditsByCodePrefix", ctx, suite.conjuntoID, "413",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(decimal.Zero, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveExpense).
		Return(&suite.expenseAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveFund).
		Return(&suite.fundAccount, nil).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 5, 2024, suite.userID)

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrMissingRequiredAccount)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_MissingFundAccount() {
	ctx := context.Background()
	ref := domain.Reference{Type: domain.ReferenceReserveAppropriation, ID: "2024-05"}

	suite.mockTxnRepo.On("ListTransactionsByReference", ctx, suite.conjuntoID, ref).
		Return([]domain.Transaction{}, nil).Once()
	suite.mockTxnRepo.On("SumCreditsByCodePrefix", ctx, suite.conjuntoID, "413",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(decimal.RequireFromString("500000.00"), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveExpense).
		Return(&suite.expenseAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveFund).
		Return(nil, apperrors.ErrNotFound).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 5, 2024, suite.userID)

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrMissingRequiredAccount)
}

func (suite *ReserveFundServiceTestSuite) TestValidateLegalCompliance_Compliant() {
	ctx := context.Background()

	suite.mockTxnRepo.On("SumCreditsByCodePrefix", ctx, suite.conjuntoID, "413",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(decimal.RequireFromString("12000000.00"), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveFund).
		Return(&suite.fundAccount, nil).Once()
	suite.mockTxnRepo.On("SumEntriesByAccount", ctx, suite.conjuntoID, suite.fundAccount.AccountID,
		mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
		Return(portsrepo.EntrySums{
			Debits:  decimal.Zero,
			Credits: decimal.RequireFromString("3600000.00"),
		}, nil).Once()

	compliance, err := suite.service.ValidateLegalCompliance(ctx, suite.conjuntoID, 2024)

	suite.Require().NoError(err)
	suite.True(compliance.IsCompliant)
	suite.True(compliance.MinimumRequired.Equal(decimal.RequireFromString("3600000.00")))
	suite.True(compliance.Deficit.IsZero())
	suite.True(compliance.CompliancePercentage.Equal(decimal.RequireFromString("100.00")), "got %s", compliance.CompliancePercentage)
}

func (suite *ReserveFundServiceTestSuite) TestValidateLegalCompliance_Deficit() {
	ctx := context.Background()

	suite.mockTxnRepo.On("SumCreditsByCodePrefix", ctx, suite.conjuntoID, "413",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(decimal.RequireFromString("10000000.00"), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, suite.policy.Accounts.ReserveFund).
		Return(&suite.fundAccount, nil).Once()
	suite.mockTxnRepo.On("SumEntriesByAccount", ctx, suite.conjuntoID, suite.fundAccount.AccountID,
		mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
		Return(portsrepo.EntrySums{
			Debits:  decimal.Zero,
			Credits: decimal.RequireFromString("2000000.00"),
		}, nil).Once()

	compliance, err := suite.service.ValidateLegalCompliance(ctx, suite.conjuntoID, 2024)

	suite.Require().NoError(err)
	suite.False(compliance.IsCompliant)
	suite.True(compliance.Deficit.Equal(decimal.RequireFromString("1000000.00")), "got %s", compliance.Deficit)
}

func (suite *ReserveFundServiceTestSuite) TestGetAppropriationHistory() {
	ctx := context.Background()
	may := domain.Transaction{TransactionID: uuid.NewString(), ConjuntoID: suite.conjuntoID}

	for month := 1; month <= 12; month++ {
		ref := domain.Reference{
			Type: domain.ReferenceReserveAppropriation,
			ID:   time.Date(2024, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		}
		txns := []domain.Transaction{}
		if month == 5 {
			txns = []domain.Transaction{may}
		}
		suite.mockTxnRepo.On("ListTransactionsByReference", ctx, suite.conjuntoID, ref).Return(txns, nil).Once()
	}

	history, err := suite.service.GetAppropriationHistory(ctx, suite.conjuntoID, 2024)

	suite.Require().NoError(err)
	suite.Len(history, 1)
	suite.Equal(may.TransactionID, history[0].TransactionID)
}

func TestReserveFundServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReserveFundServiceTestSuite))
}
