package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePartial   InvoiceStatus = "PARTIAL"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// LateFeeRecord is one append-only line of an invoice's late fee history.
type LateFeeRecord struct {
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	BaseAmount decimal.Decimal `json:"baseAmount"`
	Rate       decimal.Decimal `json:"rate"`
	Month      string          `json:"month"` // "2024-05"
}

// Invoice is the late-fee-relevant subset of a billing invoice. The ledger
// core never creates or deletes invoices; it only reads them and appends to
// the late fee fields.
type Invoice struct {
	InvoiceID   string          `json:"invoiceID"` // Primary Key (UUID)
	ConjuntoID  string          `json:"conjuntoID"`
	ApartmentID string          `json:"apartmentID"` // Billed unit
	DueDate     time.Time       `json:"dueDate"`
	Subtotal    decimal.Decimal `json:"subtotal"` // Pre-fee amount billed
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	LateFees    decimal.Decimal `json:"lateFees"`      // Running total of applied fees
	Balance     decimal.Decimal `json:"balanceAmount"` // Subtotal + LateFees - PaidAmount
	Status      InvoiceStatus   `json:"status"`

	// OriginalBaseAmount is set once, on first fee application; subsequent
	// months compound against it rather than the growing balance.
	OriginalBaseAmount *decimal.Decimal `json:"originalBaseAmount,omitempty"`
	LateFeeHistory     []LateFeeRecord  `json:"lateFeeHistory,omitempty"`

	// LastLateFeeCalculationDate is the watermark preventing double-processing
	// within the same calendar month.
	LastLateFeeCalculationDate *time.Time `json:"lastLateFeeCalculationDate,omitempty"`
	AuditFields
}

// IsPastDue reports whether the invoice is overdue at the given date.
func (i *Invoice) IsPastDue(asOf time.Time) bool {
	return asOf.After(i.DueDate)
}

// ProcessedInMonth reports whether the watermark already covers the month of
// the given date.
func (i *Invoice) ProcessedInMonth(asOf time.Time) bool {
	if i.LastLateFeeCalculationDate == nil {
		return false
	}
	w := *i.LastLateFeeCalculationDate
	return w.Year() == asOf.Year() && w.Month() == asOf.Month()
}

// Recalculate refreshes the balance and billing status from the monetary
// fields. Cancelled invoices are left untouched.
func (i *Invoice) Recalculate() {
	if i.Status == InvoiceCancelled {
		return
	}
	i.Balance = i.Subtotal.Add(i.LateFees).Sub(i.PaidAmount)
	switch {
	case !i.Balance.IsPositive():
		i.Status = InvoicePaid
	case i.PaidAmount.IsPositive():
		i.Status = InvoicePartial
	default:
		i.Status = InvoicePending
	}
}

// LateFeeSummary aggregates applied fees over a window.
type LateFeeSummary struct {
	ConjuntoID    string          `json:"conjuntoID"`
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	InvoiceCount  int             `json:"invoiceCount"`
	TotalLateFees decimal.Decimal `json:"totalLateFees"`
}
