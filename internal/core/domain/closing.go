package domain

import "time"

// StepStatus grades one orchestrator step outcome.
type StepStatus string

const (
	StepSuccess StepStatus = "SUCCESS"
	StepError   StepStatus = "ERROR"
	StepSkipped StepStatus = "SKIPPED"
)

// Well-known monthly closing step names, in execution order.
const (
	StepPreconditions    = "preconditions"
	StepValidation       = "integrity_validation"
	StepLateFees         = "late_fees"
	StepReserveFund      = "reserve_fund"
	StepDepreciation     = "depreciation"
	StepFinalBalance     = "final_balance_check"
	StepReportGeneration = "report_generation"
	StepMarkClosed       = "mark_period_closed"
)

// StepResult records one step of a monthly closing run.
type StepResult struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ClosingResult is the aggregate outcome of one monthly closing run.
type ClosingResult struct {
	ConjuntoID    string        `json:"conjuntoID"`
	Month         int           `json:"month"`
	Year          int           `json:"year"`
	Steps         []StepResult  `json:"steps"`
	TotalDuration time.Duration `json:"totalDuration"`
	Success       bool          `json:"success"`
}

// MonthlyClosing is the idempotent per-period closed marker written by the
// orchestrator. Distinct from PeriodClosure, which records explicit closing
// entries posted by the closure engine.
type MonthlyClosing struct {
	ClosingID  string    `json:"closingID"` // Primary Key (UUID)
	ConjuntoID string    `json:"conjuntoID"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	ClosedAt   time.Time `json:"closedAt"`
	ClosedBy   string    `json:"closedBy"`
	Summary    string    `json:"summary"` // Human-oriented one-liner of the run
}
