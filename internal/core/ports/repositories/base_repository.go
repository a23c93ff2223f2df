package repositories

import "context"

// TxManager is the explicit unit of work. Every multi-step operation (period
// closure, reversal) runs inside WithinTx: the callback either commits as a
// whole or every write is rolled back. Repositories called with the callback
// context join the same database transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RepositoryProvider bundles the repositories handed to the service container.
type RepositoryProvider struct {
	TxManager       TxManager
	AccountRepo     AccountRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
	ClosureRepo     ClosureRepositoryFacade
	InvoiceRepo     InvoiceRepositoryFacade
	ClosingRepo     ClosingRepositoryFacade
	PartyRepo       PartyReader
}
