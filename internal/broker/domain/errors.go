package domain

import (
	"github.com/tokenward/tokenward/internal/errors"
)

// Broker-specific error definitions.
var (
	// ErrBadResourceID indicates a resource identifier that does not match
	// t<tokenID>/<slug>.
	ErrBadResourceID = errors.Wrap(errors.ErrInvalidInput, "resource id must match t<tokenID>/<slug>")
	// ErrBadAction indicates an action outside {read, write}.
	ErrBadAction = errors.Wrap(errors.ErrInvalidInput, "action must be read or write")
	// ErrStaleTimestamp indicates a timestamp outside the replay window.
	ErrStaleTimestamp = errors.Wrap(errors.ErrUnauthorized, "request timestamp outside replay window")
	// ErrSignerNotHolder indicates the recovered signer does not currently
	// hold the token. Deliberately indistinguishable from a bad signature at
	// the HTTP surface.
	ErrSignerNotHolder = errors.Wrap(errors.ErrForbidden, "signer does not hold the token")
	// ErrTokenMismatch indicates the token named in the request is not the
	// token encoded in the resource id.
	ErrTokenMismatch = errors.Wrap(errors.ErrInvalidInput, "token id does not match resource id")
	// ErrNoObjectKeys indicates a write request without object keys.
	ErrNoObjectKeys = errors.Wrap(errors.ErrInvalidInput, "write requests must name at least one object key")
)
