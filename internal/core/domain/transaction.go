package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus indicates the state of a transaction.
type TransactionStatus string

const (
	Draft     TransactionStatus = "DRAFT"
	Posted    TransactionStatus = "POSTED"
	Cancelled TransactionStatus = "CANCELLED"
)

// ReferenceType tags the kind of business record a transaction points at.
type ReferenceType string

const (
	ReferenceInvoice              ReferenceType = "INVOICE"
	ReferenceExpense              ReferenceType = "EXPENSE"
	ReferenceClosure              ReferenceType = "CLOSURE"
	ReferenceReserveAppropriation ReferenceType = "RESERVE_APPROPRIATION"
	ReferenceLateFee              ReferenceType = "LATE_FEE"
	ReferenceManual               ReferenceType = "MANUAL"
)

// Reference points at the business event that caused a transaction.
type Reference struct {
	Type ReferenceType `json:"type"`
	ID   string        `json:"id"`
}

// ThirdPartyType tags the kind of entity an entry is attributed to.
type ThirdPartyType string

const (
	ThirdPartyApartment ThirdPartyType = "APARTMENT"
	ThirdPartySupplier  ThirdPartyType = "SUPPLIER"
)

// ThirdParty attributes an entry to an external entity for subledger reporting.
type ThirdParty struct {
	Type ThirdPartyType `json:"type"`
	ID   string         `json:"id"`
}

// BalanceTolerance is the maximum accepted difference between debit and
// credit totals of a posted transaction (one cent).
var BalanceTolerance = decimal.New(1, -2)

// Entry is one leg of a transaction. Exactly one of DebitAmount and
// CreditAmount is non-zero.
type Entry struct {
	EntryID       string          `json:"entryID"`       // Primary Key (UUID)
	TransactionID string          `json:"transactionID"` // FK -> Transaction (Not Null)
	AccountID     string          `json:"accountID"`     // FK -> Account (Not Null)
	DebitAmount   decimal.Decimal `json:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	Description   string          `json:"description"`
	ThirdParty    *ThirdParty     `json:"thirdParty,omitempty"`
	AuditFields
}

// IsDebit reports whether this entry moves the debit side.
func (e Entry) IsDebit() bool {
	return e.DebitAmount.IsPositive()
}

// Amount returns the magnitude of the entry regardless of side.
func (e Entry) Amount() decimal.Decimal {
	if e.IsDebit() {
		return e.DebitAmount
	}
	return e.CreditAmount
}

// IsOneSided reports whether exactly one side of the entry is positive and the
// other is zero.
func (e Entry) IsOneSided() bool {
	debit := e.DebitAmount.IsPositive() && e.CreditAmount.IsZero()
	credit := e.CreditAmount.IsPositive() && e.DebitAmount.IsZero()
	return debit || credit
}

// Transaction is an atomic unit of posting owning its entries exclusively.
// Monetary content is immutable once status reaches POSTED.
type Transaction struct {
	TransactionID string            `json:"transactionID"` // Primary Key (UUID)
	ConjuntoID    string            `json:"conjuntoID"`    // Owner scope (NON-NULL)
	Date          time.Time         `json:"date"`
	Description   string            `json:"description"`
	Status        TransactionStatus `json:"status"`
	Reference     *Reference        `json:"reference,omitempty"`
	Entries       []Entry           `json:"entries,omitempty"`
	AuditFields
}

// TotalDebits sums the debit side of all entries.
func (t *Transaction) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		total = total.Add(e.DebitAmount)
	}
	return total
}

// TotalCredits sums the credit side of all entries.
func (t *Transaction) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		total = total.Add(e.CreditAmount)
	}
	return total
}

// IsBalanced reports whether debit and credit totals agree within
// BalanceTolerance. A difference of exactly one cent is already unbalanced.
func (t *Transaction) IsBalanced() bool {
	diff := t.TotalDebits().Sub(t.TotalCredits()).Abs()
	return diff.LessThan(BalanceTolerance)
}

// CanBeCancelled reports whether a cancellation may proceed. Closure
// transactions are only undone through an explicit closure reversal.
func (t *Transaction) CanBeCancelled() bool {
	if t.Status != Posted {
		return false
	}
	if t.Reference != nil && t.Reference.Type == ReferenceClosure {
		return false
	}
	return true
}
