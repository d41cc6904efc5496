// Package repository implements data persistence for executable accounts.
// Repositories support PostgreSQL, MySQL and an in-memory store for embedded
// and test use.
package repository

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
)

// MemoryAccountRepository implements Account persistence in process memory.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[common.Address]*accountDomain.Account
}

// NewMemoryAccountRepository creates a new in-memory Account repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[common.Address]*accountDomain.Account)}
}

// Create stores a new account.
func (m *MemoryAccountRepository) Create(ctx context.Context, account *accountDomain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.Address]; ok {
		return accountDomain.ErrAccountExists
	}
	m.accounts[account.Address] = account.Clone()
	return nil
}

// Get retrieves an account by address.
func (m *MemoryAccountRepository) Get(ctx context.Context, address common.Address) (*accountDomain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[address]
	if !ok {
		return nil, accountDomain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// UpdateController changes the stored controller of an account.
func (m *MemoryAccountRepository) UpdateController(
	ctx context.Context,
	address, controller common.Address,
	updatedAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[address]
	if !ok {
		return accountDomain.ErrAccountNotFound
	}
	account.Controller = controller
	account.UpdatedAt = updatedAt
	return nil
}

// AddDelegate adds a delegate and its install payload to an account's
// delegate set.
func (m *MemoryAccountRepository) AddDelegate(
	ctx context.Context,
	address, delegate common.Address,
	initData []byte,
	updatedAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[address]
	if !ok {
		return accountDomain.ErrAccountNotFound
	}
	account.Delegates[delegate] = bytes.Clone(initData)
	account.UpdatedAt = updatedAt
	return nil
}

// RemoveDelegate removes a delegate from an account's delegate set.
func (m *MemoryAccountRepository) RemoveDelegate(
	ctx context.Context,
	address, delegate common.Address,
	updatedAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[address]
	if !ok {
		return accountDomain.ErrAccountNotFound
	}
	delete(account.Delegates, delegate)
	account.UpdatedAt = updatedAt
	return nil
}
