package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	"github.com/tokenward/tokenward/internal/database"
	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// addrString converts an address to its canonical stored form. Addresses are
// stored as lowercase 0x-prefixed hex so lookups don't depend on checksum
// casing.
func addrString(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// PostgreSQLAccountRepository implements Account persistence for PostgreSQL databases.
type PostgreSQLAccountRepository struct {
	db *sql.DB
}

// NewPostgreSQLAccountRepository creates a new PostgreSQL Account repository instance.
func NewPostgreSQLAccountRepository(db *sql.DB) *PostgreSQLAccountRepository {
	return &PostgreSQLAccountRepository{db: db}
}

// Create inserts a new account into the PostgreSQL database.
func (p *PostgreSQLAccountRepository) Create(ctx context.Context, account *accountDomain.Account) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO accounts (address, controller, created_at, updated_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(
		ctx,
		query,
		addrString(account.Address),
		addrString(account.Controller),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return accountDomain.ErrAccountExists
		}
		return apperrors.Wrap(err, "failed to create account")
	}
	return nil
}

// Get retrieves an account and its delegate set by address.
func (p *PostgreSQLAccountRepository) Get(
	ctx context.Context,
	address common.Address,
) (*accountDomain.Account, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT address, controller, created_at, updated_at
			  FROM accounts
			  WHERE address = $1`

	var addr, controller string
	account := accountDomain.Account{Delegates: make(map[common.Address][]byte)}
	err := querier.QueryRowContext(ctx, query, addrString(address)).Scan(
		&addr,
		&controller,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, accountDomain.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get account")
	}
	account.Address = common.HexToAddress(addr)
	account.Controller = common.HexToAddress(controller)

	delegatesQuery := `SELECT delegate_address, init_data
					   FROM account_delegates
					   WHERE account_address = $1`

	rows, err := querier.QueryContext(ctx, delegatesQuery, addrString(address))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get account delegates")
	}
	defer rows.Close()

	for rows.Next() {
		var delegate string
		var initData []byte
		if err := rows.Scan(&delegate, &initData); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan account delegate")
		}
		account.Delegates[common.HexToAddress(delegate)] = initData
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate account delegates")
	}

	return &account, nil
}

// UpdateController changes the stored controller of an account.
func (p *PostgreSQLAccountRepository) UpdateController(
	ctx context.Context,
	address, controller common.Address,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE accounts
			  SET controller = $1, updated_at = $2
			  WHERE address = $3`

	result, err := querier.ExecContext(ctx, query, addrString(controller), updatedAt, addrString(address))
	if err != nil {
		return apperrors.Wrap(err, "failed to update account controller")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return accountDomain.ErrAccountNotFound
	}
	return nil
}

// AddDelegate adds a delegate and its install payload to an account's
// delegate set.
func (p *PostgreSQLAccountRepository) AddDelegate(
	ctx context.Context,
	address, delegate common.Address,
	initData []byte,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO account_delegates (account_address, delegate_address, init_data, created_at)
			  VALUES ($1, $2, $3, $4)`

	if _, err := querier.ExecContext(ctx, query, addrString(address), addrString(delegate), initData, updatedAt); err != nil {
		if isUniqueViolation(err) {
			return accountDomain.ErrDelegateInstalled
		}
		return apperrors.Wrap(err, "failed to add account delegate")
	}

	return p.touch(ctx, querier, address, updatedAt)
}

// RemoveDelegate removes a delegate from an account's delegate set.
func (p *PostgreSQLAccountRepository) RemoveDelegate(
	ctx context.Context,
	address, delegate common.Address,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM account_delegates
			  WHERE account_address = $1 AND delegate_address = $2`

	if _, err := querier.ExecContext(ctx, query, addrString(address), addrString(delegate)); err != nil {
		return apperrors.Wrap(err, "failed to remove account delegate")
	}

	return p.touch(ctx, querier, address, updatedAt)
}

// touch bumps the account's updated_at timestamp.
func (p *PostgreSQLAccountRepository) touch(
	ctx context.Context,
	querier database.Querier,
	address common.Address,
	updatedAt time.Time,
) error {
	query := `UPDATE accounts
			  SET updated_at = $1
			  WHERE address = $2`

	if _, err := querier.ExecContext(ctx, query, updatedAt, addrString(address)); err != nil {
		return apperrors.Wrap(err, "failed to touch account")
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint violation for
// either supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || // PostgreSQL
		strings.Contains(msg, "Duplicate entry") // MySQL
}
