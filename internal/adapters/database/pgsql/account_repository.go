package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ingmontoya/tavira-ledger/internal/apperrors"
	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	portsrepo "github.com/ingmontoya/tavira-ledger/internal/core/ports/repositories"
)

const accountColumns = `account_id, conjunto_id, code, name, account_type, nature, COALESCE(parent_account_id, ''),
	accepts_posting, requires_third_party, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPgxAccountRepository creates a read-only repository over the chart of
// accounts. Provisioning writes the chart elsewhere.
func NewPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.AccountID,
		&acc.ConjuntoID,
		&acc.Code,
		&acc.Name,
		&acc.AccountType,
		&acc.Nature,
		&acc.ParentAccountID,
		&acc.AcceptsPosting,
		&acc.RequiresThirdParty,
		&acc.IsActive,
		&acc.CreatedAt,
		&acc.CreatedBy,
		&acc.LastUpdatedAt,
		&acc.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// FindAccountByID retrieves a single account by its identifier.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, conjuntoID, accountID string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE conjunto_id = $1 AND account_id = $2;`, accountColumns)
	acc, err := scanAccount(queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, accountID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return acc, nil
}

// FindAccountByCode retrieves a single account by its hierarchical code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE conjunto_id = $1 AND code = $2;`, accountColumns)
	acc, err := scanAccount(queryEngine(ctx, r.pool).QueryRow(ctx, query, conjuntoID, code))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by code %s: %w", code, err)
	}
	return acc, nil
}

// FindAccountsByIDs retrieves several accounts at once, keyed by ID.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, conjuntoID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return accounts, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE conjunto_id = $1 AND account_id = ANY($2);`, accountColumns)
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, conjuntoID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[acc.AccountID] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	return accounts, nil
}

// ListAccountsByCodePrefix lists active accounts under a code prefix,
// optionally restricted to posting-enabled leaves, ordered by code.
func (r *PgxAccountRepository) ListAccountsByCodePrefix(ctx context.Context, conjuntoID, prefix string, postableOnly bool) ([]domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE conjunto_id = $1 AND code LIKE $2 || '%%' AND is_active
		AND ($3 = false OR accepts_posting)
		ORDER BY code;
	`, accountColumns)
	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, conjuntoID, prefix, postableOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	return accounts, nil
}
