// Package domain defines the core domain models for the ownership registry.
// The registry binds each ownership token to exactly one executable account
// and tracks the address it last confirmed as that account's controller.
// Pending-claim and claim-window flags are derived from the stored record plus
// a live ledger read; they are never persisted.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ClaimState is the registry's view of a token's lifecycle.
type ClaimState string

const (
	// StateUnregistered means the token has no bound account.
	StateUnregistered ClaimState = "unregistered"
	// StateRegistered means the confirmed controller still holds the token.
	StateRegistered ClaimState = "registered"
	// StatePendingClaim means the token changed hands on the ledger but
	// control of the bound account has not been transferred yet.
	StatePendingClaim ClaimState = "pending_claim"
)

// OwnershipRecord binds a token to its executable account.
type OwnershipRecord struct {
	// TokenID is the ledger identifier of the ownership token.
	TokenID uint64
	// BoundAccount is the executable account address, set exactly once at
	// registration and immutable thereafter.
	BoundAccount common.Address
	// ConfirmedController is the address the registry last confirmed as the
	// account's controller. Updated only by a successful claim.
	ConfirmedController common.Address
	// LastConfirmedAt is the UTC timestamp of the last successful
	// registration or claim.
	LastConfirmedAt time.Time
	// CreatedAt is the UTC timestamp when the record was created.
	CreatedAt time.Time
}

// TokenStatus is a read-only projection of registry and ledger state for one
// token. Computed per query; nothing here is stored.
type TokenStatus struct {
	TokenID             uint64
	State               ClaimState
	CurrentHolder       common.Address
	BoundAccount        common.Address
	ConfirmedController common.Address
	LastConfirmedAt     time.Time
	PendingClaim        bool
	InClaimWindow       bool
}
