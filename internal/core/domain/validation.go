package domain

import "github.com/shopspring/decimal"

// IssueSeverity grades a validation finding.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "ERROR"
	SeverityWarning IssueSeverity = "WARNING"
	SeverityInfo    IssueSeverity = "INFO"
)

// Validation issue codes. Stable identifiers callers can branch on.
const (
	IssueUnbalanced              = "UNBALANCED"
	IssueEntryNotOneSided        = "ENTRY_NOT_ONE_SIDED"
	IssueOutsideWindow           = "OUTSIDE_OPEN_WINDOW"
	IssueNonPostableAccount      = "NON_POSTABLE_ACCOUNT"
	IssueCounterNature           = "COUNTER_NATURE_MOVEMENT"
	IssueMissingThirdParty       = "MISSING_THIRD_PARTY"
	IssueUnknownThirdParty       = "UNKNOWN_THIRD_PARTY"
	IssueUnresolvedReference     = "UNRESOLVED_REFERENCE"
	IssueReceivableWithoutUnit   = "RECEIVABLE_WITHOUT_UNIT"
	IssueReserveWithoutExpense   = "RESERVE_CREDIT_WITHOUT_EXPENSE_DEBIT"
	IssueIncomeWithoutReceivable = "INCOME_WITHOUT_RECEIVABLE"
	IssueUnknownAccount          = "UNKNOWN_ACCOUNT"
	IssuePeriodImbalance         = "PERIOD_IMBALANCE"
	IssueReserveShortfall        = "RESERVE_SHORTFALL"
)

// ValidationIssue is one finding produced by the validation engine.
type ValidationIssue struct {
	Code      string        `json:"code"`
	Severity  IssueSeverity `json:"severity"`
	Message   string        `json:"message"`
	AccountID string        `json:"accountID,omitempty"`
	EntryID   string        `json:"entryID,omitempty"`
}

// ValidationResult collects all findings for a single transaction. Findings
// are returned as data, never raised; callers decide whether warnings block.
type ValidationResult struct {
	TransactionID string            `json:"transactionID"`
	Errors        []ValidationIssue `json:"errors"`
	Warnings      []ValidationIssue `json:"warnings"`
	Info          []ValidationIssue `json:"info"`
}

// AddError appends an error-severity finding.
func (r *ValidationResult) AddError(code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{Code: code, Severity: SeverityError, Message: message})
}

// AddEntryError appends an error-severity finding tied to an entry/account.
func (r *ValidationResult) AddEntryError(code, message, accountID, entryID string) {
	r.Errors = append(r.Errors, ValidationIssue{Code: code, Severity: SeverityError, Message: message, AccountID: accountID, EntryID: entryID})
}

// AddWarning appends a warning-severity finding.
func (r *ValidationResult) AddWarning(code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Code: code, Severity: SeverityWarning, Message: message})
}

// AddEntryWarning appends a warning-severity finding tied to an entry/account.
func (r *ValidationResult) AddEntryWarning(code, message, accountID, entryID string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Code: code, Severity: SeverityWarning, Message: message, AccountID: accountID, EntryID: entryID})
}

// AddInfo appends an informational finding.
func (r *ValidationResult) AddInfo(code, message string) {
	r.Info = append(r.Info, ValidationIssue{Code: code, Severity: SeverityInfo, Message: message})
}

// IsValid reports whether no error-severity findings were recorded.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// BatchValidationSummary aggregates counts across a batch of transactions.
type BatchValidationSummary struct {
	Total        int                `json:"total"`
	Valid        int                `json:"valid"`
	WithErrors   int                `json:"withErrors"`
	WithWarnings int                `json:"withWarnings"`
	Results      []ValidationResult `json:"results"`
}

// PeriodValidationResult carries per-transaction findings plus the
// period-level integrity checks for one month.
type PeriodValidationResult struct {
	ConjuntoID       string             `json:"conjuntoID"`
	Month            int                `json:"month"`
	Year             int                `json:"year"`
	Results          []ValidationResult `json:"results"`
	PeriodDebits     decimal.Decimal    `json:"periodDebits"`
	PeriodCredits    decimal.Decimal    `json:"periodCredits"`
	Balanced         bool               `json:"balanced"`
	ReserveCompliant bool               `json:"reserveCompliant"`
	Issues           []ValidationIssue  `json:"issues"` // Period-level findings
}
