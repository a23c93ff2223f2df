package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portssvc "github.com/ingmontoya/tavira-ledger/internal/core/ports/services"
	"github.com/ingmontoya/tavira-ledger/internal/core/services"
)

type LateFeeServiceTestSuite struct {
	suite.Suite
	mockInvoiceRepo *MockInvoiceRepository
	mockPublisher   *MockPublisher
	service         portssvc.LateFeeSvcFacade
	conjuntoID      string
	asOf            time.Time
}

func (suite *LateFeeServiceTestSuite) SetupTest() {
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.mockPublisher = new(MockPublisher)
	suite.service = services.NewLateFeeService(suite.mockInvoiceRepo, suite.mockPublisher, services.DefaultPolicy())

	suite.conjuntoID = uuid.NewString()
	suite.asOf = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
}

// overdueInvoice is due 40 days before asOf, well past the grace period.
func (suite *LateFeeServiceTestSuite) overdueInvoice() *domain.Invoice {
	return &domain.Invoice{
		InvoiceID:   uuid.NewString(),
		ConjuntoID:  suite.conjuntoID,
		ApartmentID: uuid.NewString(),
		DueDate:     suite.asOf.AddDate(0, 0, -40),
		Subtotal:    decimal.RequireFromString("500000.00"),
		PaidAmount:  decimal.Zero,
		LateFees:    decimal.Zero,
		Balance:     decimal.RequireFromString("500000.00"),
		Status:      domain.InvoiceOverdue,
	}
}

func (suite *LateFeeServiceTestSuite) TestProcess_AppliesFee() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("UpdateInvoiceLateFees", ctx, mock.MatchedBy(func(inv domain.Invoice) bool {
		return inv.LateFees.Equal(decimal.RequireFromString("10000.00")) &&
			inv.Balance.Equal(decimal.RequireFromString("510000.00")) &&
			inv.OriginalBaseAmount != nil &&
			inv.OriginalBaseAmount.Equal(decimal.RequireFromString("500000.00")) &&
			len(inv.LateFeeHistory) == 1 &&
			inv.LateFeeHistory[0].Month == "2024-05" &&
			inv.LastLateFeeCalculationDate != nil
	})).Return(nil).Once()
	suite.mockPublisher.On("Publish", ctx, domain.TopicLateFeeApplied, mock.MatchedBy(func(event any) bool {
		applied, ok := event.(domain.LateFeeApplied)
		return ok && applied.InvoiceID == invoice.InvoiceID &&
			applied.Amount.Equal(decimal.RequireFromString("10000.00"))
	})).Return(nil).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, false)

	suite.Require().NoError(err)
	suite.True(result.Applied)
	// 2% of the 500,000 principal.
	suite.True(result.Amount.Equal(decimal.RequireFromString("10000.00")), "got %s", result.Amount)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
	suite.mockPublisher.AssertExpectations(suite.T())
}

func (suite *LateFeeServiceTestSuite) TestProcess_CompoundsAgainstOriginalPrincipal() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()
	original := decimal.RequireFromString("500000.00")
	invoice.OriginalBaseAmount = &original
	invoice.LateFees = decimal.RequireFromString("10000.00")
	invoice.Balance = decimal.RequireFromString("510000.00")
	prior := suite.asOf.AddDate(0, -1, 0)
	invoice.LateFeeHistory = []domain.LateFeeRecord{{Date: prior, Amount: decimal.RequireFromString("10000.00"), Month: "2024-04"}}
	invoice.LastLateFeeCalculationDate = &prior

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("UpdateInvoiceLateFees", ctx, mock.MatchedBy(func(inv domain.Invoice) bool {
		return inv.LateFees.Equal(decimal.RequireFromString("20000.00")) && len(inv.LateFeeHistory) == 2
	})).Return(nil).Once()
	suite.mockPublisher.On("Publish", ctx, domain.TopicLateFeeApplied, mock.Anything).Return(nil).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, false)

	suite.Require().NoError(err)
	suite.True(result.Applied)
	// Still 2% of the original 500,000, not of 510,000.
	suite.True(result.Amount.Equal(decimal.RequireFromString("10000.00")), "got %s", result.Amount)
}

func (suite *LateFeeServiceTestSuite) TestProcess_SameMonthWatermarkSkips() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()
	watermark := suite.asOf.AddDate(0, 0, -10)
	invoice.LastLateFeeCalculationDate = &watermark

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, false)

	suite.Require().NoError(err)
	suite.False(result.Applied)
	suite.Contains(result.Reason, "already processed")
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "UpdateInvoiceLateFees", mock.Anything, mock.Anything)
}

func (suite *LateFeeServiceTestSuite) TestProcess_NotPastDue() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()
	invoice.DueDate = suite.asOf.AddDate(0, 0, 10)

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, false)

	suite.Require().NoError(err)
	suite.False(result.Applied)
	suite.Equal("invoice is not past due", result.Reason)
}

func (suite *LateFeeServiceTestSuite) TestProcess_NoBalance() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()
	invoice.PaidAmount = invoice.Subtotal
	invoice.Balance = decimal.Zero

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, false)

	suite.Require().NoError(err)
	suite.False(result.Applied)
	suite.Equal("invoice has no outstanding balance", result.Reason)
}

func (suite *LateFeeServiceTestSuite) TestProcess_WithinGracePeriod() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()
	// Past due but inside the five grace days.
	invoice.DueDate = suite.asOf.AddDate(0, 0, -3)

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, false)

	suite.Require().NoError(err)
	suite.False(result.Applied)
	suite.Contains(result.Reason, "within grace period")
}

func (suite *LateFeeServiceTestSuite) TestProcess_DryRun() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, true)

	suite.Require().NoError(err)
	suite.True(result.Applied)
	suite.True(result.Amount.Equal(decimal.RequireFromString("10000.00")))
	suite.Equal("dry run", result.Reason)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "UpdateInvoiceLateFees", mock.Anything, mock.Anything)
	suite.mockPublisher.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LateFeeServiceTestSuite) TestProcess_PublishFailureSurfaces() {
	ctx := context.Background()
	invoice := suite.overdueInvoice()

	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, invoice.InvoiceID).
		Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("UpdateInvoiceLateFees", ctx, mock.Anything).Return(nil).Once()
	suite.mockPublisher.On("Publish", ctx, domain.TopicLateFeeApplied, mock.Anything).
		Return(errors.New("broker unreachable")).Once()

	result, err := suite.service.ProcessMonthlyLateFee(ctx, suite.conjuntoID, invoice.InvoiceID, suite.asOf, false)

	suite.Nil(result)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "event publication failed")
}

func (suite *LateFeeServiceTestSuite) TestProcessPending_IsolatesFailures() {
	ctx := context.Background()
	good := suite.overdueInvoice()
	bad := suite.overdueInvoice()

	suite.mockInvoiceRepo.On("ListInvoicesNeedingLateFees", ctx, suite.conjuntoID, suite.asOf).
		Return([]domain.Invoice{*good, *bad}, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, good.InvoiceID).
		Return(good, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, suite.conjuntoID, bad.InvoiceID).
		Return(nil, errors.New("row scan failed")).Once()
	suite.mockInvoiceRepo.On("UpdateInvoiceLateFees", ctx, mock.Anything).Return(nil).Once()
	suite.mockPublisher.On("Publish", ctx, domain.TopicLateFeeApplied, mock.Anything).Return(nil).Once()

	batch, err := suite.service.ProcessPendingLateFees(ctx, suite.conjuntoID, suite.asOf, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(2, batch.Processed)
	suite.Equal(1, batch.Applied)
	suite.Equal(1, batch.Failed)
	suite.Equal(0, batch.Skipped)
	suite.True(batch.TotalAmount.Equal(decimal.RequireFromString("10000.00")))
	suite.Len(batch.Results, 2)
}

func (suite *LateFeeServiceTestSuite) TestGetLateFeesSummary() {
	ctx := context.Background()
	summary := &domain.LateFeeSummary{
		ConjuntoID:    suite.conjuntoID,
		InvoiceCount:  3,
		TotalLateFees: decimal.RequireFromString("30000.00"),
	}

	suite.mockInvoiceRepo.On("SummarizeLateFees", ctx, suite.conjuntoID,
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(summary, nil).Once()

	got, err := suite.service.GetLateFeesSummary(ctx, suite.conjuntoID, 5, 2024)

	suite.Require().NoError(err)
	suite.Equal(3, got.InvoiceCount)
}

func TestLateFeeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LateFeeServiceTestSuite))
}
