package repositories

import (
	"context"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
)

// AccountReader defines read operations over a conjunto's chart of accounts.
// The chart is provisioned externally; the ledger core only reads it.
type AccountReader interface {
	// FindAccountByID retrieves a single account by its identifier.
	FindAccountByID(ctx context.Context, conjuntoID, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves a single account by its hierarchical code.
	FindAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error)

	// FindAccountsByIDs retrieves several accounts at once, keyed by ID.
	// Missing IDs are simply absent from the map.
	FindAccountsByIDs(ctx context.Context, conjuntoID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccountsByCodePrefix lists active accounts whose code starts with
	// the given prefix, optionally restricted to posting-enabled leaves.
	ListAccountsByCodePrefix(ctx context.Context, conjuntoID, prefix string, postableOnly bool) ([]domain.Account, error)
}

// AccountRepositoryFacade combines all account repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
}

// PartyReader resolves third party references against the provisioning data.
type PartyReader interface {
	// ApartmentExists reports whether the unit exists in the conjunto.
	ApartmentExists(ctx context.Context, conjuntoID, apartmentID string) (bool, error)

	// SupplierExists reports whether the supplier exists in the conjunto.
	SupplierExists(ctx context.Context, conjuntoID, supplierID string) (bool, error)
}
