package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenward/tokenward/internal/database"
	apperrors "github.com/tokenward/tokenward/internal/errors"
	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
)

// MySQLRecordRepository implements OwnershipRecord persistence for MySQL databases.
type MySQLRecordRepository struct {
	db *sql.DB
}

// NewMySQLRecordRepository creates a new MySQL OwnershipRecord repository instance.
func NewMySQLRecordRepository(db *sql.DB) *MySQLRecordRepository {
	return &MySQLRecordRepository{db: db}
}

// Create inserts a new ownership record into the MySQL database.
func (m *MySQLRecordRepository) Create(ctx context.Context, record *registryDomain.OwnershipRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO ownership_records (token_id, bound_account, confirmed_controller, last_confirmed_at, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.TokenID,
		addrString(record.BoundAccount),
		addrString(record.ConfirmedController),
		record.LastConfirmedAt,
		record.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return registryDomain.ErrAlreadyRegistered
		}
		return apperrors.Wrap(err, "failed to create ownership record")
	}
	return nil
}

// Get retrieves an ownership record by token ID.
func (m *MySQLRecordRepository) Get(
	ctx context.Context,
	tokenID uint64,
) (*registryDomain.OwnershipRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT token_id, bound_account, confirmed_controller, last_confirmed_at, created_at
			  FROM ownership_records
			  WHERE token_id = ?`

	var account, controller string
	var record registryDomain.OwnershipRecord
	err := querier.QueryRowContext(ctx, query, tokenID).Scan(
		&record.TokenID,
		&account,
		&controller,
		&record.LastConfirmedAt,
		&record.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get ownership record")
	}
	record.BoundAccount = common.HexToAddress(account)
	record.ConfirmedController = common.HexToAddress(controller)

	return &record, nil
}

// UpdateController updates the confirmed controller after a successful claim.
func (m *MySQLRecordRepository) UpdateController(
	ctx context.Context,
	tokenID uint64,
	controller common.Address,
	confirmedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE ownership_records
			  SET confirmed_controller = ?, last_confirmed_at = ?
			  WHERE token_id = ?`

	result, err := querier.ExecContext(ctx, query, addrString(controller), confirmedAt, tokenID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update ownership record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
