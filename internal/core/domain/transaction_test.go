package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
)

func TestEntryIsOneSided(t *testing.T) {
	amount := decimal.RequireFromString("100.00")

	debit := domain.Entry{DebitAmount: amount}
	assert.True(t, debit.IsOneSided())
	assert.True(t, debit.IsDebit())

	credit := domain.Entry{CreditAmount: amount}
	assert.True(t, credit.IsOneSided())
	assert.False(t, credit.IsDebit())

	both := domain.Entry{DebitAmount: amount, CreditAmount: amount}
	assert.False(t, both.IsOneSided())

	neither := domain.Entry{}
	assert.False(t, neither.IsOneSided())

	negative := domain.Entry{DebitAmount: amount.Neg()}
	assert.False(t, negative.IsOneSided())
}

func TestEntryAmount(t *testing.T) {
	amount := decimal.RequireFromString("42.50")

	debit := domain.Entry{DebitAmount: amount}
	assert.True(t, debit.Amount().Equal(amount))

	credit := domain.Entry{CreditAmount: amount}
	assert.True(t, credit.Amount().Equal(amount))
}

func TestTransactionIsBalanced(t *testing.T) {
	txn := domain.Transaction{
		Entries: []domain.Entry{
			{DebitAmount: decimal.RequireFromString("60.00")},
			{DebitAmount: decimal.RequireFromString("40.00")},
			{CreditAmount: decimal.RequireFromString("100.00")},
		},
	}
	assert.True(t, txn.IsBalanced())
	assert.True(t, txn.TotalDebits().Equal(decimal.RequireFromString("100.00")))
	assert.True(t, txn.TotalCredits().Equal(decimal.RequireFromString("100.00")))

	// Sub-cent rounding residue is tolerated.
	txn.Entries[1].DebitAmount = decimal.RequireFromString("40.005")
	assert.True(t, txn.IsBalanced())

	// A difference of exactly one cent is already unbalanced.
	txn.Entries[1].DebitAmount = decimal.RequireFromString("40.01")
	assert.False(t, txn.IsBalanced())
}

func TestTransactionCanBeCancelled(t *testing.T) {
	txn := domain.Transaction{Status: domain.Posted}
	assert.True(t, txn.CanBeCancelled())

	txn.Status = domain.Cancelled
	assert.False(t, txn.CanBeCancelled())

	txn.Status = domain.Draft
	assert.False(t, txn.CanBeCancelled())

	txn.Status = domain.Posted
	txn.Reference = &domain.Reference{Type: domain.ReferenceClosure, ID: "some-closure"}
	assert.False(t, txn.CanBeCancelled())

	txn.Reference = &domain.Reference{Type: domain.ReferenceManual, ID: "note"}
	assert.True(t, txn.CanBeCancelled())
}

func TestNormalNatureFor(t *testing.T) {
	assert.Equal(t, domain.NatureDebit, domain.NormalNatureFor(domain.Asset))
	assert.Equal(t, domain.NatureDebit, domain.NormalNatureFor(domain.Expense))
	assert.Equal(t, domain.NatureCredit, domain.NormalNatureFor(domain.Liability))
	assert.Equal(t, domain.NatureCredit, domain.NormalNatureFor(domain.Equity))
	assert.Equal(t, domain.NatureCredit, domain.NormalNatureFor(domain.Income))
}

func TestInvoiceRecalculate(t *testing.T) {
	invoice := domain.Invoice{
		Subtotal:   decimal.RequireFromString("500000.00"),
		LateFees:   decimal.RequireFromString("10000.00"),
		PaidAmount: decimal.RequireFromString("200000.00"),
		Status:     domain.InvoicePending,
	}
	invoice.Recalculate()
	assert.True(t, invoice.Balance.Equal(decimal.RequireFromString("310000.00")))
	assert.Equal(t, domain.InvoicePartial, invoice.Status)

	invoice.PaidAmount = decimal.RequireFromString("510000.00")
	invoice.Recalculate()
	assert.Equal(t, domain.InvoicePaid, invoice.Status)

	cancelled := domain.Invoice{
		Subtotal: decimal.RequireFromString("100.00"),
		Status:   domain.InvoiceCancelled,
	}
	cancelled.Recalculate()
	assert.Equal(t, domain.InvoiceCancelled, cancelled.Status)
	assert.True(t, cancelled.Balance.IsZero())
}
