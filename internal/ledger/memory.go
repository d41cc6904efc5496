package ledger

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// MemoryLedger is an in-memory Ledger for tests and embedded use. Holders
// are mutated directly through SetHolder, simulating external transfers that
// this system only ever observes.
type MemoryLedger struct {
	mu      sync.RWMutex
	holders map[uint64]common.Address

	// failWith, when set, makes every read fail. Used to exercise
	// dependency-error paths.
	failWith error
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{holders: make(map[uint64]common.Address)}
}

// SetHolder records holder as the current holder of tokenID.
func (l *MemoryLedger) SetHolder(tokenID uint64, holder common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holders[tokenID] = holder
}

// FailWith makes subsequent reads return err; pass nil to restore normal
// behavior.
func (l *MemoryLedger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failWith = err
}

// HolderOf returns the recorded holder of tokenID.
func (l *MemoryLedger) HolderOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.failWith != nil {
		return common.Address{}, l.failWith
	}

	holder, ok := l.holders[tokenID]
	if !ok {
		return common.Address{}, apperrors.Wrap(apperrors.ErrNotFound, "token not found on ledger")
	}
	return holder, nil
}
