package services

import "github.com/shopspring/decimal"

// AccountCodes names the well-known chart-of-accounts codes the ledger core
// relies on. Chart provisioning (external) guarantees they exist; their
// absence surfaces as apperrors.ErrMissingRequiredAccount, never as a silent
// default.
type AccountCodes struct {
	Clearing                string // Income/expense summary account used during closure
	Surplus                 string // Equity account receiving a positive net result
	Deficit                 string // Equity account absorbing a negative net result
	ReserveFund             string // Statutory reserve fund equity account
	ReserveExpense          string // Reserve appropriation expense account
	IncomePrefix            string // Income account family
	ExpensePrefix           string // Expense account family
	OperationalIncomePrefix string // Income subject to the statutory reserve
	ReceivablesPrefix       string // Receivables-aging account family
}

// Policy carries the configurable business knobs of the ledger core.
type Policy struct {
	ReservePercentage       decimal.Decimal // Statutory share of operational income
	LateFeeMonthlyRate      decimal.Decimal // Monthly rate applied to overdue principal
	GraceDays               int             // Days after due date before fees accrue
	ValidationMonthsBack    int             // Soft posting window, months into the past
	ValidationMonthsForward int             // Soft posting window, months into the future
	Accounts                AccountCodes
}

// DefaultPolicy returns the statutory defaults: 30% reserve (Ley 675), 2%
// monthly late fee with 5 grace days, and a 3-month-back / 1-month-forward
// posting window over the standard PUC account codes.
func DefaultPolicy() Policy {
	return Policy{
		ReservePercentage:       decimal.NewFromFloat(0.30),
		LateFeeMonthlyRate:      decimal.NewFromFloat(0.02),
		GraceDays:               5,
		ValidationMonthsBack:    3,
		ValidationMonthsForward: 1,
		Accounts: AccountCodes{
			Clearing:                "590505",
			Surplus:                 "360505",
			Deficit:                 "361005",
			ReserveFund:             "320505",
			ReserveExpense:          "519525",
			IncomePrefix:            "4",
			ExpensePrefix:           "5",
			OperationalIncomePrefix: "413",
			ReceivablesPrefix:       "1305",
		},
	}
}
