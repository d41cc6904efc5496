package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	"github.com/tokenward/tokenward/internal/database"
	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// MySQLAccountRepository implements Account persistence for MySQL databases.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL Account repository instance.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// Create inserts a new account into the MySQL database.
func (m *MySQLAccountRepository) Create(ctx context.Context, account *accountDomain.Account) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO accounts (address, controller, created_at, updated_at)
			  VALUES (?, ?, ?, ?)`

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
func (m *MySQLAccountRepository) Get(
	ctx context.Context,
	address common.Address,
) (*accountDomain.Account, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT address, controller, created_at, updated_at
			  FROM accounts
			  WHERE address = ?`

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
					   WHERE account_address = ?`

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
func (m *MySQLAccountRepository) UpdateController(
	ctx context.Context,
	address, controller common.Address,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE accounts
			  SET controller = ?, updated_at = ?
			  WHERE address = ?`

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
func (m *MySQLAccountRepository) AddDelegate(
	ctx context.Context,
	address, delegate common.Address,
	initData []byte,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO account_delegates (account_address, delegate_address, init_data, created_at)
			  VALUES (?, ?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, addrString(address), addrString(delegate), initData, updatedAt); err != nil {
		if isUniqueViolation(err) {
			return accountDomain.ErrDelegateInstalled
		}
		return apperrors.Wrap(err, "failed to add account delegate")
	}

	return m.touch(ctx, querier, address, updatedAt)
}

// RemoveDelegate removes a delegate from an account's delegate set.
func (m *MySQLAccountRepository) RemoveDelegate(
	ctx context.Context,
	address, delegate common.Address,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM account_delegates
			  WHERE account_address = ? AND delegate_address = ?`

	if _, err := querier.ExecContext(ctx, query, addrString(address), addrString(delegate)); err != nil {
		return apperrors.Wrap(err, "failed to remove account delegate")
	}

	return m.touch(ctx, querier, address, updatedAt)
}

// touch bumps the account's updated_at timestamp.
func (m *MySQLAccountRepository) touch(
	ctx context.Context,
	querier database.Querier,
	address common.Address,
	updatedAt time.Time,
) error {
	query := `UPDATE accounts
			  SET updated_at = ?
			  WHERE address = ?`

	if _, err := querier.ExecContext(ctx, query, updatedAt, addrString(address)); err != nil {
		return apperrors.Wrap(err, "failed to touch account")
	}
	return nil
}
