package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgx repository onto one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:       NewPgxTxManager(pool),
		AccountRepo:     NewPgxAccountRepository(pool),
		TransactionRepo: NewPgxTransactionRepository(pool),
		ClosureRepo:     NewPgxClosureRepository(pool),
		InvoiceRepo:     NewPgxInvoiceRepository(pool),
		ClosingRepo:     NewPgxClosingRepository(pool),
		PartyRepo:       NewPgxPartyRepository(pool),
	}
}
