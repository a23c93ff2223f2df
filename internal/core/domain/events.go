package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event topics published by the ledger core.
const (
	TopicLateFeeApplied = "ledger.late_fee_applied"
)

// LateFeeApplied is emitted after a late fee is written to an invoice so that
// a consumer can post the corresponding ledger transaction. The compounder
// itself never talks to the ledger store.
type LateFeeApplied struct {
	InvoiceID   string          `json:"invoice_id"`
	ConjuntoID  string          `json:"conjunto_id"`
	ApartmentID string          `json:"apartment_id"`
	Amount      decimal.Decimal `json:"amount"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	Rate        decimal.Decimal `json:"rate"`
	Month       string          `json:"month"`
	AppliedAt   time.Time       `json:"applied_at"`
}
