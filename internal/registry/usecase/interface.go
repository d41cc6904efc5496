// Package usecase defines the interfaces and implementations for the
// ownership registry business logic: the register/claim state machine and the
// derived pending-claim and claim-window queries.
package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
)

// RecordRepository defines the interface for OwnershipRecord persistence operations.
type RecordRepository interface {
	Create(ctx context.Context, record *registryDomain.OwnershipRecord) error
	Get(ctx context.Context, tokenID uint64) (*registryDomain.OwnershipRecord, error)
	UpdateController(ctx context.Context, tokenID uint64, controller common.Address, confirmedAt time.Time) error
}

// Forwarder relays an instruction to an account through its delegated
// execution path, on behalf of the named caller.
type Forwarder interface {
	Forward(
		ctx context.Context,
		caller, account common.Address,
		instruction accountDomain.Instruction,
	) error
}

// RegistryUseCase defines the interface for ownership registry business logic.
type RegistryUseCase interface {
	// Register binds tokenID to account. Caller must be the token's current
	// holder on the ledger; a token binds exactly once.
	Register(ctx context.Context, caller common.Address, tokenID uint64, account common.Address) (*registryDomain.OwnershipRecord, error)
	// Claim transfers control of the bound account to the caller, who must
	// be the token's current holder and must not already be the confirmed
	// controller. The controller change travels through the delegate module.
	Claim(ctx context.Context, caller common.Address, tokenID uint64) (*registryDomain.OwnershipRecord, error)
	// IsPendingClaim reports whether the token changed hands on the ledger
	// without a matching claim. Always computed from a live ledger read.
	IsPendingClaim(ctx context.Context, tokenID uint64) (bool, error)
	// IsInClaimWindow reports whether the last registration or claim is
	// recent enough that extra caution is warranted.
	IsInClaimWindow(ctx context.Context, tokenID uint64) (bool, error)
	// Status assembles the read-only projection of registry plus ledger
	// state for one token.
	Status(ctx context.Context, tokenID uint64) (*registryDomain.TokenStatus, error)
	// Record returns the stored ownership record for a token.
	Record(ctx context.Context, tokenID uint64) (*registryDomain.OwnershipRecord, error)
}
