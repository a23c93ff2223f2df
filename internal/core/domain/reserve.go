package domain

import "github.com/shopspring/decimal"

// ReserveCompliance is the read-only result of a yearly Ley 675 audit: did
// the conjunto appropriate at least the statutory share of its operational
// income into the reserve fund.
type ReserveCompliance struct {
	ConjuntoID           string          `json:"conjuntoID"`
	Year                 int             `json:"year"`
	TotalIncome          decimal.Decimal `json:"totalIncome"`
	TotalAppropriated    decimal.Decimal `json:"totalAppropriated"`
	MinimumRequired      decimal.Decimal `json:"minimumRequired"`
	CompliancePercentage decimal.Decimal `json:"compliancePercentage"`
	IsCompliant          bool            `json:"isCompliant"`
	Deficit              decimal.Decimal `json:"deficit"`
}

// AppropriationResult is the outcome of one monthly appropriation attempt.
type AppropriationResult struct {
	Applied       bool            `json:"applied"`
	Reason        string          `json:"reason,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionID,omitempty"`
}

// LateFeeResult is the outcome of processing one invoice for the month.
type LateFeeResult struct {
	InvoiceID string          `json:"invoiceID"`
	Applied   bool            `json:"applied"`
	Reason    string          `json:"reason,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// LateFeeBatchResult aggregates a cron-style run over many invoices.
type LateFeeBatchResult struct {
	Processed   int             `json:"processed"`
	Applied     int             `json:"applied"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Results     []LateFeeResult `json:"results"`
}
