// Package repository implements data persistence for ownership records.
// Repositories support PostgreSQL, MySQL and an in-memory store for embedded
// and test use.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
)

// MemoryRecordRepository implements OwnershipRecord persistence in process memory.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[uint64]*registryDomain.OwnershipRecord
}

// NewMemoryRecordRepository creates a new in-memory OwnershipRecord repository.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{records: make(map[uint64]*registryDomain.OwnershipRecord)}
}

// Create stores a new ownership record.
func (m *MemoryRecordRepository) Create(ctx context.Context, record *registryDomain.OwnershipRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.TokenID]; ok {
		return registryDomain.ErrAlreadyRegistered
	}
	stored := *record
	m.records[record.TokenID] = &stored
	return nil
}

// Get retrieves an ownership record by token ID.
func (m *MemoryRecordRepository) Get(ctx context.Context, tokenID uint64) (*registryDomain.OwnershipRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[tokenID]
	if !ok {
		return nil, registryDomain.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

// UpdateController updates the confirmed controller after a successful claim.
func (m *MemoryRecordRepository) UpdateController(
	ctx context.Context,
	tokenID uint64,
	controller common.Address,
	confirmedAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[tokenID]
	if !ok {
		return registryDomain.ErrRecordNotFound
	}
	record.ConfirmedController = controller
	record.LastConfirmedAt = confirmedAt
	return nil
}
