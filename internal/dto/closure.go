package dto

import "time"

// ExecuteClosureRequest is the payload for running a period closure.
type ExecuteClosureRequest struct {
	PeriodType  string    `json:"periodType" binding:"required,oneof=MONTHLY ANNUAL"`
	FiscalYear  int       `json:"fiscalYear" binding:"required,min=2000,max=2100"`
	ClosureDate time.Time `json:"closureDate" binding:"required"`
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd" binding:"required"`
	Notes       string    `json:"notes"`
}

// PreviewClosureRequest is the payload for a read-only closure preview.
type PreviewClosureRequest struct {
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd" binding:"required"`
}

// ClosingOptions tunes one monthly closing run.
type ClosingOptions struct {
	// Strict aborts the run when period validation reports errors instead of
	// only recording them.
	Strict bool `json:"strict"`
}

// ExecuteClosingRequest is the payload for running the monthly orchestrator.
type ExecuteClosingRequest struct {
	Month   int            `json:"month" binding:"required,min=1,max=12"`
	Year    int            `json:"year" binding:"required,min=2000,max=2100"`
	Options ClosingOptions `json:"options"`
}

// ProcessLateFeeRequest is the payload for processing one invoice.
type ProcessLateFeeRequest struct {
	InvoiceID string    `json:"invoiceID" binding:"required"`
	AsOf      time.Time `json:"asOf" binding:"required"`
	DryRun    bool      `json:"dryRun"`
}

// ProcessLateFeesRequest is the payload for a batch late fee run.
type ProcessLateFeesRequest struct {
	AsOf time.Time `json:"asOf" binding:"required"`
}
