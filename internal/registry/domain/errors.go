package domain

import (
	"github.com/tokenward/tokenward/internal/errors"
)

// Registry-specific error definitions.
var (
	// ErrCallerNotHolder indicates the caller does not currently hold the token.
	ErrCallerNotHolder = errors.Wrap(errors.ErrForbidden, "caller is not the current token holder")
	// ErrAlreadyRegistered indicates the token already has a bound account.
	ErrAlreadyRegistered = errors.Wrap(errors.ErrConflict, "token already has a bound account")
	// ErrClaimNotNeeded indicates the caller is already the confirmed controller.
	ErrClaimNotNeeded = errors.Wrap(errors.ErrConflict, "caller is already the confirmed controller")
	// ErrNoBoundAccount indicates the token has no bound account to claim.
	ErrNoBoundAccount = errors.Wrap(errors.ErrNotFound, "token has no bound account")
	// ErrDelegateForwardFailed indicates the delegate could not forward the
	// controller-change instruction to the bound account.
	ErrDelegateForwardFailed = errors.Wrap(errors.ErrUnavailable, "delegate failed to forward controller change")
	// ErrRecordNotFound indicates no ownership record exists for the token.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "ownership record not found")
)
