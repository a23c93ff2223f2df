package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// AccountNature indicates the side on which an account normally increases.
type AccountNature string

const (
	NatureDebit  AccountNature = "DEBIT"
	NatureCredit AccountNature = "CREDIT"
)

// Account represents one node of a conjunto's hierarchical chart of accounts.
// Non-leaf accounts are pure aggregation nodes; only accounts with
// AcceptsPosting=true may appear in entries.
type Account struct {
	AccountID          string        `json:"accountID"`          // Primary Key (UUID)
	ConjuntoID         string        `json:"conjuntoID"`         // Owner scope (NON-NULL)
	Code               string        `json:"code"`               // Hierarchical code, e.g. "4135", "590505"
	Name               string        `json:"name"`               // Display name
	AccountType        AccountType   `json:"accountType"`        // ASSET, LIABILITY, etc.
	Nature             AccountNature `json:"nature"`             // Side on which the account increases
	ParentAccountID    string        `json:"parentAccountID"`    // Nullable FK -> accounts.account_id
	AcceptsPosting     bool          `json:"acceptsPosting"`     // Stored flag, true for leaves only
	RequiresThirdParty bool          `json:"requiresThirdParty"` // Every entry must carry a third party
	IsActive           bool          `json:"isActive"`
	AuditFields
}

// NormalNatureFor returns the conventional nature for an account type. Used by
// chart provisioning as a default; the stored Nature is authoritative.
func NormalNatureFor(t AccountType) AccountNature {
	switch t {
	case Asset, Expense:
		return NatureDebit
	default:
		return NatureCredit
	}
}
