// Package ledger defines the identity ledger port: the authoritative,
// read-only record of which address currently holds each ownership token.
// The registry and the broker both take it as an injected dependency and
// never cache its answers.
package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger resolves the current holder of an ownership token. Implementations
// must treat the read as possibly slow and possibly failing: safe to retry,
// never safe to assume stale.
type Ledger interface {
	// HolderOf returns the address currently holding tokenID.
	// Returns an error wrapping errors.ErrUnavailable on transport failure
	// and errors.ErrNotFound for a token the ledger does not know.
	HolderOf(ctx context.Context, tokenID uint64) (common.Address, error)
}
