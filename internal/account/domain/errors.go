package domain

import (
	"github.com/tokenward/tokenward/internal/errors"
)

// Account-specific error definitions.
var (
	// ErrAccountNotFound indicates no account exists at the given address.
	ErrAccountNotFound = errors.Wrap(errors.ErrNotFound, "account not found")
	// ErrAccountExists indicates an account already exists at the given address.
	ErrAccountExists = errors.Wrap(errors.ErrConflict, "account already exists")
	// ErrNotController indicates the caller is not the account's controller.
	ErrNotController = errors.Wrap(errors.ErrForbidden, "caller is not the account controller")
	// ErrNotDelegate indicates the caller is not an installed delegate.
	ErrNotDelegate = errors.Wrap(errors.ErrForbidden, "caller is not an installed delegate")
	// ErrNotSelfDirected indicates a delegated instruction targets an address
	// other than the account itself.
	ErrNotSelfDirected = errors.Wrap(errors.ErrForbidden, "delegated instruction must target the account itself")
	// ErrUnknownSelfInstruction indicates a self-directed instruction whose
	// payload the account does not recognize.
	ErrUnknownSelfInstruction = errors.Wrap(errors.ErrInvalidInput, "unrecognized self-directed instruction")
	// ErrZeroController indicates an attempt to hand control to the zero address.
	ErrZeroController = errors.Wrap(errors.ErrInvalidInput, "controller must not be the zero address")
	// ErrBatchShapeMismatch indicates batch argument slices of different lengths.
	ErrBatchShapeMismatch = errors.Wrap(errors.ErrInvalidInput, "batch targets, values and payloads must have equal length")
	// ErrDelegateInstalled indicates the delegate is already installed.
	ErrDelegateInstalled = errors.Wrap(errors.ErrConflict, "delegate already installed")
	// ErrDelegateNotInstalled indicates the delegate is not installed.
	ErrDelegateNotInstalled = errors.Wrap(errors.ErrNotFound, "delegate not installed")
)
