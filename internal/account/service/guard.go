package service

import (
	"context"

	"github.com/tokenward/tokenward/internal/errors"
)

// ClaimChecker reports whether a token has a pending ownership claim.
type ClaimChecker interface {
	IsPendingClaim(ctx context.Context, tokenID uint64) (bool, error)
}

// ErrClaimPending indicates an operation was refused because the token backing
// the account has a pending ownership claim.
var ErrClaimPending = errors.Wrap(errors.ErrForbidden, "ownership claim pending for token")

// PendingClaimGuard refuses high-risk account operations while the backing
// token has a pending claim. The guard sits outside the account on purpose:
// the account itself stays permissive and callers that handle value route
// through the guard first.
type PendingClaimGuard struct {
	checker ClaimChecker
}

// NewPendingClaimGuard creates a guard over the given claim checker.
func NewPendingClaimGuard(checker ClaimChecker) *PendingClaimGuard {
	return &PendingClaimGuard{checker: checker}
}

// Check returns ErrClaimPending if tokenID has a pending claim. A ledger
// failure propagates as-is; the guard never treats "unknown" as safe.
func (g *PendingClaimGuard) Check(ctx context.Context, tokenID uint64) error {
	pending, err := g.checker.IsPendingClaim(ctx, tokenID)
	if err != nil {
		return err
	}
	if pending {
		return ErrClaimPending
	}
	return nil
}
