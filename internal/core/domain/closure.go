package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodType distinguishes monthly from annual closures.
type PeriodType string

const (
	PeriodMonthly PeriodType = "MONTHLY"
	PeriodAnnual  PeriodType = "ANNUAL"
)

// ClosureStatus indicates the state of a period closure run.
type ClosureStatus string

const (
	ClosureDraft     ClosureStatus = "DRAFT"
	ClosureCompleted ClosureStatus = "COMPLETED"
	ClosureReversed  ClosureStatus = "REVERSED"
)

// PeriodClosure records one completed (or reversed) closing run. At most one
// COMPLETED closure may exist per (conjunto, fiscal year, period type).
type PeriodClosure struct {
	ClosureID            string          `json:"closureID"` // Primary Key (UUID)
	ConjuntoID           string          `json:"conjuntoID"`
	FiscalYear           int             `json:"fiscalYear"`
	PeriodType           PeriodType      `json:"periodType"`
	PeriodStart          time.Time       `json:"periodStart"`
	PeriodEnd            time.Time       `json:"periodEnd"`
	ClosureDate          time.Time       `json:"closureDate"`
	Status               ClosureStatus   `json:"status"`
	TotalIncome          decimal.Decimal `json:"totalIncome"`
	TotalExpenses        decimal.Decimal `json:"totalExpenses"`
	NetResult            decimal.Decimal `json:"netResult"`
	ClosingTransactionID string          `json:"closingTransactionID"` // Net-result transaction, nullable
	ClosedBy             string          `json:"closedBy"`
	Notes                string          `json:"notes"`
	AuditFields
}

// AccountBalance is one line of a closure preview or closing sub-transaction:
// an account together with its windowed debit and credit activity.
type AccountBalance struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Debits    decimal.Decimal `json:"debits"`
	Credits   decimal.Decimal `json:"credits"`
	Balance   decimal.Decimal `json:"balance"` // Nature-signed
}

// ClosurePreview is the read-only projection of what a closure run would post.
type ClosurePreview struct {
	PeriodStart      time.Time        `json:"periodStart"`
	PeriodEnd        time.Time        `json:"periodEnd"`
	TotalIncome      decimal.Decimal  `json:"totalIncome"`
	TotalExpenses    decimal.Decimal  `json:"totalExpenses"`
	NetResult        decimal.Decimal  `json:"netResult"`
	IncomeBreakdown  []AccountBalance `json:"incomeBreakdown"`
	ExpenseBreakdown []AccountBalance `json:"expenseBreakdown"`
}
