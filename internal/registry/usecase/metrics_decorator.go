package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenward/tokenward/internal/metrics"
	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
)

// registryUseCaseWithMetrics decorates RegistryUseCase with metrics instrumentation.
type registryUseCaseWithMetrics struct {
	next    RegistryUseCase
	metrics metrics.BusinessMetrics
}

// NewRegistryUseCaseWithMetrics wraps a RegistryUseCase with metrics recording.
func NewRegistryUseCaseWithMetrics(useCase RegistryUseCase, m metrics.BusinessMetrics) RegistryUseCase {
	return &registryUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Register records metrics for token registration operations.
func (r *registryUseCaseWithMetrics) Register(
	ctx context.Context,
	caller common.Address,
	tokenID uint64,
	account common.Address,
) (*registryDomain.OwnershipRecord, error) {
	start := time.Now()
	record, err := r.next.Register(ctx, caller, tokenID, account)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "registry", "register", status)
	r.metrics.RecordDuration(ctx, "registry", "register", time.Since(start), status)

	return record, err
}

// Claim records metrics for ownership claim operations.
func (r *registryUseCaseWithMetrics) Claim(
	ctx context.Context,
	caller common.Address,
	tokenID uint64,
) (*registryDomain.OwnershipRecord, error) {
	start := time.Now()
	record, err := r.next.Claim(ctx, caller, tokenID)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "registry", "claim", status)
	r.metrics.RecordDuration(ctx, "registry", "claim", time.Since(start), status)

	return record, err
}

// IsPendingClaim records metrics for pending-claim queries.
func (r *registryUseCaseWithMetrics) IsPendingClaim(ctx context.Context, tokenID uint64) (bool, error) {
	start := time.Now()
	pending, err := r.next.IsPendingClaim(ctx, tokenID)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "registry", "is_pending_claim", status)
	r.metrics.RecordDuration(ctx, "registry", "is_pending_claim", time.Since(start), status)

	return pending, err
}

// IsInClaimWindow records metrics for claim-window queries.
func (r *registryUseCaseWithMetrics) IsInClaimWindow(ctx context.Context, tokenID uint64) (bool, error) {
	start := time.Now()
	inWindow, err := r.next.IsInClaimWindow(ctx, tokenID)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "registry", "is_in_claim_window", status)
	r.metrics.RecordDuration(ctx, "registry", "is_in_claim_window", time.Since(start), status)

	return inWindow, err
}

// Status records metrics for status projections.
func (r *registryUseCaseWithMetrics) Status(ctx context.Context, tokenID uint64) (*registryDomain.TokenStatus, error) {
	start := time.Now()
	result, err := r.next.Status(ctx, tokenID)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "registry", "status", status)
	r.metrics.RecordDuration(ctx, "registry", "status", time.Since(start), status)

	return result, err
}

// Record passes through without instrumentation; it backs other queries.
func (r *registryUseCaseWithMetrics) Record(ctx context.Context, tokenID uint64) (*registryDomain.OwnershipRecord, error) {
	return r.next.Record(ctx, tokenID)
}
