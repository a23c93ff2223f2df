package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
)

type PgxTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewPgxTransactionRepository creates the repository for transactions and
// their entries.
func NewPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{pool: pool}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// SaveTransaction persists a transaction and its entries atomically. Outside
// an open unit of work it opens its own.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	db := queryEngine(ctx, r.pool)
	if _, joined := ctx.Value(txContextKey{}).(pgx.Tx); !joined {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()
		if err := r.insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction %s: %w", txn.TransactionID, err)
		}
		return nil
	}
	return r.insertTransaction(ctx, db, txn)
}

func (r *PgxTransactionRepository) insertTransaction(ctx context.Context, db querier, txn domain.Transaction) error {
	var refType, refID *string
	if txn.Reference != nil {
		t := string(txn.Reference.Type)
		refType = &t
		refID = &txn.Reference.ID
	}

	txnQuery := `
		INSERT INTO transactions (transaction_id, conjunto_id, transaction_date, description, status, reference_type, reference_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := db.Exec(ctx, txnQuery,
		txn.TransactionID,
		txn.ConjuntoID,
		txn.Date,
		txn.Description,
		txn.Status,
		refType,
		refID,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}

	batch := &pgx.Batch{}
	entryQuery := `
		INSERT INTO entries (entry_id, transaction_id, account_id, debit_amount, credit_amount, description, third_party_type, third_party_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, entry := range txn.Entries {
		var tpType, tpID *string
		if entry.ThirdParty != nil {
			t := string(entry.ThirdParty.Type)
			tpType = &t
			tpID = &entry.ThirdParty.ID
		}
		batch.Queue(entryQuery,
			entry.EntryID,
			entry.TransactionID,
			entry.AccountID,
			entry.DebitAmount,
			entry.CreditAmount,
			entry.Description,
			tpType,
			tpID,
			entry.CreatedAt,
			entry.CreatedBy,
			entry.LastUpdatedAt,
			entry.LastUpdatedBy,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert entries for transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

const transactionColumns = `transaction_id, conjunto_id, transaction_date, description, status,
	COALESCE(reference_type, ''), COALESCE(reference_id, ''), created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var txn domain.Transaction
	var refType, refID string
	err := row.Scan(
		&txn.TransactionID,
		&txn.ConjuntoID,
		&txn.Date,
		&txn.Description,
		&txn.Status,
		&refType,
		&refID,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if refType != "" {
		txn.Reference = &domain.Reference{Type: domain.ReferenceType(refType), ID: refID}
	}
	return &txn, nil
}

// FindTransactionByID retrieves a transaction together with its entries.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, conjuntoID, transactionID string) (*domain.Transaction, error) {
	db := queryEngine(ctx, r.pool)
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE conjunto_id = $1 AND transaction_id = $2;`, transactionColumns)
	txn, err := scanTransaction(db.QueryRow(ctx, query, conjuntoID, transactionID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	entries, err := r.findEntries(ctx, db, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	return txn, nil
}

func (r *PgxTransactionRepository) findEntries(ctx context.Context, db querier, transactionID string) ([]domain.Entry, error) {
	query := `
		SELECT entry_id, transaction_id, account_id, debit_amount, credit_amount, description,
			COALESCE(third_party_type, ''), COALESCE(third_party_id, ''),
			created_at, created_by, last_updated_at, last_updated_by
		FROM entries
		WHERE transaction_id = $1
		ORDER BY entry_id;
	`
	rows, err := db.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var entry domain.Entry
		var tpType, tpID string
		if err := rows.Scan(
			&entry.EntryID,
			&entry.TransactionID,
			&entry.AccountID,
			&entry.DebitAmount,
			&entry.CreditAmount,
			&entry.Description,
			&tpType,
			&tpID,
			&entry.CreatedAt,
			&entry.CreatedBy,
			&entry.LastUpdatedAt,
			&entry.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if tpType != "" {
			entry.ThirdParty = &domain.ThirdParty{Type: domain.ThirdPartyType(tpType), ID: tpID}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// ListTransactionsByPeriod retrieves transaction headers dated inside
// [from, to), newest first.
func (r *PgxTransactionRepository) ListTransactionsByPeriod(ctx context.Context, conjuntoID string, from, to time.Time, status *domain.TransactionStatus) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE conjunto_id = $1 AND transaction_date >= $2 AND transaction_date < $3
		AND ($4::text IS NULL OR status = $4)
		ORDER BY transaction_date DESC, transaction_id;
	`, transactionColumns)
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, conjuntoID, from, to, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by period: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(ctx, rows)
}

// ListTransactionsByReference retrieves non-cancelled transactions tagged
// with the given business reference, entries included.
func (r *PgxTransactionRepository) ListTransactionsByReference(ctx context.Context, conjuntoID string, ref domain.Reference) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE conjunto_id = $1 AND reference_type = $2 AND reference_id = $3 AND status <> $4
		ORDER BY created_at;
	`, transactionColumns)
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, conjuntoID, string(ref.Type), ref.ID, domain.Cancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by reference %s/%s: %w", ref.Type, ref.ID, err)
	}
	defer rows.Close()

	txns, err := r.collectTransactions(ctx, rows)
	if err != nil {
		return nil, err
	}
	db := queryEngine(ctx, r.pool)
	for i := range txns {
		entries, err := r.findEntries(ctx, db, txns[i].TransactionID)
		if err != nil {
			return nil, err
		}
		txns[i].Entries = entries
	}
	return txns, nil
}

func (r *PgxTransactionRepository) collectTransactions(_ context.Context, rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txns, nil
}

// CountDraftTransactions counts draft transactions dated inside [from, to).
func (r *PgxTransactionRepository) CountDraftTransactions(ctx context.Context, conjuntoID string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM transactions
		WHERE conjunto_id = $1 AND status = $2 AND transaction_date >= $3 AND transaction_date < $4;
	`
	var count int
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, domain.Draft, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count draft transactions: %w", err)
	}
	return count, nil
}

// UpdateTransactionStatus flips a transaction's status without touching its
// monetary content.
func (r *PgxTransactionRepository) UpdateTransactionStatus(ctx context.Context, conjuntoID, transactionID string, status domain.TransactionStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = $1, last_updated_by = $2, last_updated_at = $3
		WHERE conjunto_id = $4 AND transaction_id = $5;
	`
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, query, status, updatedBy, updatedAt, conjuntoID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to update status of transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SumEntriesByAccount totals posted entries for one account over an optional
// window, straight from the entries table.
func (r *PgxTransactionRepository) SumEntriesByAccount(ctx context.Context, conjuntoID, accountID string, from, to *time.Time) (portsrepo.EntrySums, error) {
	query := `
		SELECT COALESCE(SUM(e.debit_amount), 0), COALESCE(SUM(e.credit_amount), 0)
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE t.conjunto_id = $1 AND e.account_id = $2 AND t.status = $3
		AND ($4::timestamptz IS NULL OR t.transaction_date >= $4)
		AND ($5::timestamptz IS NULL OR t.transaction_date < $5);
	`
	var sums portsrepo.EntrySums
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, accountID, domain.Posted, from, to).
		Scan(&sums.Debits, &sums.Credits)
	if err != nil {
		return portsrepo.EntrySums{}, fmt.Errorf("failed to sum entries for account %s: %w", accountID, err)
	}
	return sums, nil
}

// SumEntriesByPeriod totals every posted entry dated inside [from, to).
func (r *PgxTransactionRepository) SumEntriesByPeriod(ctx context.Context, conjuntoID string, from, to time.Time) (portsrepo.EntrySums, error) {
	query := `
		SELECT COALESCE(SUM(e.debit_amount), 0), COALESCE(SUM(e.credit_amount), 0)
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE t.conjunto_id = $1 AND t.status = $2 AND t.transaction_date >= $3 AND t.transaction_date < $4;
	`
	var sums portsrepo.EntrySums
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, domain.Posted, from, to).
		Scan(&sums.Debits, &sums.Credits)
	if err != nil {
		return portsrepo.EntrySums{}, fmt.Errorf("failed to sum entries for period: %w", err)
	}
	return sums, nil
}

// SumCreditsByCodePrefix totals the credit side of posted entries whose
// account code starts with the prefix, inside [from, to).
func (r *PgxTransactionRepository) SumCreditsByCodePrefix(ctx context.Context, conjuntoID, prefix string, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(e.credit_amount), 0)
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		JOIN accounts a ON a.account_id = e.account_id
		WHERE t.conjunto_id = $1 AND t.status = $2 AND a.code LIKE $3 || '%'
		AND t.transaction_date >= $4 AND t.transaction_date < $5;
	`
	var total decimal.Decimal
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, domain.Posted, prefix, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum credits for prefix %s: %w", prefix, err)
	}
	return total, nil
}

// BalancesByCodePrefix returns windowed per-account activity for every
// posting-enabled account under the code prefix with non-zero movement.
func (r *PgxTransactionRepository) BalancesByCodePrefix(ctx context.Context, conjuntoID, prefix string, from, to time.Time) ([]domain.AccountBalance, error) {
	query := `
		SELECT a.account_id, a.code, a.name,
			COALESCE(SUM(e.debit_amount), 0), COALESCE(SUM(e.credit_amount), 0)
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		JOIN accounts a ON a.account_id = e.account_id
		WHERE t.conjunto_id = $1 AND t.status = $2 AND a.code LIKE $3 || '%'
		AND a.accepts_posting AND t.transaction_date >= $4 AND t.transaction_date < $5
		GROUP BY a.account_id, a.code, a.name
		HAVING COALESCE(SUM(e.debit_amount), 0) <> COALESCE(SUM(e.credit_amount), 0)
		ORDER BY a.code;
	`
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, conjuntoID, domain.Posted, prefix, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances for prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var balances []domain.AccountBalance
	for rows.Next() {
		var bal domain.AccountBalance
		if err := rows.Scan(&bal.AccountID, &bal.Code, &bal.Name, &bal.Debits, &bal.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan account balance: %w", err)
		}
		balances = append(balances, bal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account balances: %w", err)
	}
	return balances, nil
}
