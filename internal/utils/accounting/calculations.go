package accounting

import (
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NatureSignedBalance folds raw debit and credit sums into the intuitive
// balance for the account's nature: debit-natured accounts grow with debits,
// credit-natured accounts grow with credits.
func NatureSignedBalance(nature domain.AccountNature, debits, credits decimal.Decimal) decimal.Decimal {
	if nature == domain.NatureDebit {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// RoundCents rounds a monetary amount to two decimal places.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// WithinTolerance reports whether two amounts agree within the one-cent
// posting tolerance. A difference of exactly one cent is outside it.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(domain.BalanceTolerance)
}

// MonthWindow returns the half-open UTC boundaries [start, end) of a calendar
// month, returned as inclusive start and exclusive end.
func MonthWindow(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// YearWindow returns the half-open UTC boundaries of a calendar year.
func YearWindow(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// MonthKey formats a (year, month) pair the way watermark and reference tags
// store it, e.g. "2024-05".
func MonthKey(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
