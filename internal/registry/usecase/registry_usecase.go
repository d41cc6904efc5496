package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	"github.com/tokenward/tokenward/internal/database"
	apperrors "github.com/tokenward/tokenward/internal/errors"
	"github.com/tokenward/tokenward/internal/events"
	"github.com/tokenward/tokenward/internal/ledger"
	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
)

// registryUseCase implements the RegistryUseCase interface.
type registryUseCase struct {
	txManager   database.TxManager
	recordRepo  RecordRepository
	ledger      ledger.Ledger
	forwarder   Forwarder
	publisher   events.Publisher
	logger      *slog.Logger
	authority   common.Address
	claimWindow time.Duration

	// mu guards locks; one mutex per token serializes register/claim on that
	// token while operations on different tokens proceed in parallel.
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewRegistryUseCase creates a new registry use case instance. authority is
// the address this registry forwards as when instructing delegate modules.
func NewRegistryUseCase(
	txManager database.TxManager,
	recordRepo RecordRepository,
	tokenLedger ledger.Ledger,
	forwarder Forwarder,
	publisher events.Publisher,
	logger *slog.Logger,
	authority common.Address,
	claimWindow time.Duration,
) RegistryUseCase {
	return &registryUseCase{
		txManager:   txManager,
		recordRepo:  recordRepo,
		ledger:      tokenLedger,
		forwarder:   forwarder,
		publisher:   publisher,
		logger:      logger,
		authority:   authority,
		claimWindow: claimWindow,
		locks:       make(map[uint64]*sync.Mutex),
	}
}

// lock returns the per-token mutex, creating it on first use.
func (r *registryUseCase) lock(tokenID uint64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locks[tokenID]; !ok {
		r.locks[tokenID] = &sync.Mutex{}
	}
	return r.locks[tokenID]
}

// Register binds tokenID to account.
func (r *registryUseCase) Register(
	ctx context.Context,
	caller common.Address,
	tokenID uint64,
	account common.Address,
) (*registryDomain.OwnershipRecord, error) {
	lock := r.lock(tokenID)
	lock.Lock()
	defer lock.Unlock()

	holder, err := r.ledger.HolderOf(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if holder != caller {
		return nil, registryDomain.ErrCallerNotHolder
	}

	existing, err := r.recordRepo.Get(ctx, tokenID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, registryDomain.ErrAlreadyRegistered
	}

	now := time.Now().UTC()
	record := &registryDomain.OwnershipRecord{
		TokenID:             tokenID,
		BoundAccount:        account,
		ConfirmedController: caller,
		LastConfirmedAt:     now,
		CreatedAt:           now,
	}

	err = r.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return r.recordRepo.Create(txCtx, record)
	})
	if err != nil {
		return nil, err
	}

	r.publishRegistered(ctx, record)
	return record, nil
}

// Claim transfers control of the bound account to the caller.
func (r *registryUseCase) Claim(
	ctx context.Context,
	caller common.Address,
	tokenID uint64,
) (*registryDomain.OwnershipRecord, error) {
	lock := r.lock(tokenID)
	lock.Lock()
	defer lock.Unlock()

	record, err := r.recordRepo.Get(ctx, tokenID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, registryDomain.ErrNoBoundAccount
		}
		return nil, err
	}

	holder, err := r.ledger.HolderOf(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if holder != caller {
		return nil, registryDomain.ErrCallerNotHolder
	}
	if record.ConfirmedController == caller {
		return nil, registryDomain.ErrClaimNotNeeded
	}

	// Force the controller change through the delegate module before
	// persisting anything. If forwarding fails, no registry state changes;
	// if persisting fails afterwards, the caller is still the holder and
	// can retry the claim.
	instruction := accountDomain.ControllerChangeInstruction(record.BoundAccount, caller)
	if err := r.forwarder.Forward(ctx, r.authority, record.BoundAccount, instruction); err != nil {
		return nil, apperrors.Wrap(registryDomain.ErrDelegateForwardFailed, err.Error())
	}

	previous := record.ConfirmedController
	now := time.Now().UTC()
	err = r.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return r.recordRepo.UpdateController(txCtx, tokenID, caller, now)
	})
	if err != nil {
		return nil, err
	}

	record.ConfirmedController = caller
	record.LastConfirmedAt = now

	r.publishClaimed(ctx, record, previous)
	return record, nil
}

// IsPendingClaim reports whether the ledger holder differs from the confirmed
// controller. Unregistered tokens are never pending.
func (r *registryUseCase) IsPendingClaim(ctx context.Context, tokenID uint64) (bool, error) {
	record, err := r.recordRepo.Get(ctx, tokenID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	holder, err := r.ledger.HolderOf(ctx, tokenID)
	if err != nil {
		return false, err
	}
	return holder != record.ConfirmedController, nil
}

// IsInClaimWindow reports whether the last confirmation is younger than the
// configured claim window.
func (r *registryUseCase) IsInClaimWindow(ctx context.Context, tokenID uint64) (bool, error) {
	record, err := r.recordRepo.Get(ctx, tokenID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return time.Now().UTC().Sub(record.LastConfirmedAt) < r.claimWindow, nil
}

// Status assembles the token's registry plus ledger projection.
func (r *registryUseCase) Status(ctx context.Context, tokenID uint64) (*registryDomain.TokenStatus, error) {
	holder, err := r.ledger.HolderOf(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	status := &registryDomain.TokenStatus{
		TokenID:       tokenID,
		CurrentHolder: holder,
	}

	record, err := r.recordRepo.Get(ctx, tokenID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			status.State = registryDomain.StateUnregistered
			return status, nil
		}
		return nil, err
	}

	status.BoundAccount = record.BoundAccount
	status.ConfirmedController = record.ConfirmedController
	status.LastConfirmedAt = record.LastConfirmedAt
	status.PendingClaim = holder != record.ConfirmedController
	status.InClaimWindow = time.Now().UTC().Sub(record.LastConfirmedAt) < r.claimWindow

	if status.PendingClaim {
		status.State = registryDomain.StatePendingClaim
	} else {
		status.State = registryDomain.StateRegistered
	}
	return status, nil
}

// Record returns the stored ownership record for a token.
func (r *registryUseCase) Record(ctx context.Context, tokenID uint64) (*registryDomain.OwnershipRecord, error) {
	record, err := r.recordRepo.Get(ctx, tokenID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, registryDomain.ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

// publishRegistered emits a RegisteredEvent. Best-effort.
func (r *registryUseCase) publishRegistered(ctx context.Context, record *registryDomain.OwnershipRecord) {
	event := events.RegisteredEvent{
		TokenID:    record.TokenID,
		Account:    record.BoundAccount.Hex(),
		Controller: record.ConfirmedController.Hex(),
		At:         record.LastConfirmedAt,
	}
	if err := r.publisher.PublishRegistered(ctx, event); err != nil {
		r.logger.Warn("failed to publish registered event",
			slog.Uint64("token_id", record.TokenID),
			slog.Any("error", err),
		)
	}
}

// publishClaimed emits a ClaimedEvent. Best-effort.
func (r *registryUseCase) publishClaimed(
	ctx context.Context,
	record *registryDomain.OwnershipRecord,
	previous common.Address,
) {
	event := events.ClaimedEvent{
		TokenID:            record.TokenID,
		Account:            record.BoundAccount.Hex(),
		PreviousController: previous.Hex(),
		NewController:      record.ConfirmedController.Hex(),
		At:                 record.LastConfirmedAt,
	}
	if err := r.publisher.PublishClaimed(ctx, event); err != nil {
		r.logger.Warn("failed to publish claimed event",
			slog.Uint64("token_id", record.TokenID),
			slog.Any("error", err),
		)
	}
}
