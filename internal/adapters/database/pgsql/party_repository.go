package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
)

type PgxPartyRepository struct {
	pool *pgxpool.Pool
}

// NewPgxPartyRepository creates the repository that resolves third party
// references against the provisioning tables.
func NewPgxPartyRepository(pool *pgxpool.Pool) portsrepo.PartyReader {
	return &PgxPartyRepository{pool: pool}
}

var _ portsrepo.PartyReader = (*PgxPartyRepository)(nil)

func (r *PgxPartyRepository) ApartmentExists(ctx context.Context, conjuntoID, apartmentID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM apartments WHERE conjunto_id = $1 AND apartment_id = $2);`
	var exists bool
	if err := queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, apartmentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check apartment %s: %w", apartmentID, err)
	}
	return exists, nil
}

func (r *PgxPartyRepository) SupplierExists(ctx context.Context, conjuntoID, supplierID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM suppliers WHERE conjunto_id = $1 AND supplier_id = $2);`
	var exists bool
	if err := queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, supplierID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check supplier %s: %w", supplierID, err)
	}
	return exists, nil
}
