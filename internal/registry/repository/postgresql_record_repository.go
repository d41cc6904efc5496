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

// addrString converts an address to its canonical stored form.
func addrString(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// PostgreSQLRecordRepository implements OwnershipRecord persistence for PostgreSQL databases.
type PostgreSQLRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLRecordRepository creates a new PostgreSQL OwnershipRecord repository instance.
func NewPostgreSQLRecordRepository(db *sql.DB) *PostgreSQLRecordRepository {
	return &PostgreSQLRecordRepository{db: db}
}

// Create inserts a new ownership record into the PostgreSQL database.
func (p *PostgreSQLRecordRepository) Create(ctx context.Context, record *registryDomain.OwnershipRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO ownership_records (token_id, bound_account, confirmed_controller, last_confirmed_at, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

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
		if strings.Contains(err.Error(), "duplicate key value") {
			return registryDomain.ErrAlreadyRegistered
		}
		return apperrors.Wrap(err, "failed to create ownership record")
	}
	return nil
}

// Get retrieves an ownership record by token ID.
func (p *PostgreSQLRecordRepository) Get(
	ctx context.Context,
	tokenID uint64,
) (*registryDomain.OwnershipRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT token_id, bound_account, confirmed_controller, last_confirmed_at, created_at
			  FROM ownership_records
			  WHERE token_id = $1`

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
func (p *PostgreSQLRecordRepository) UpdateController(
	ctx context.Context,
	tokenID uint64,
	controller common.Address,
	confirmedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE ownership_records
			  SET confirmed_controller = $1, last_confirmed_at = $2
			  WHERE token_id = $3`

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
