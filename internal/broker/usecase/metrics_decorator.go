package usecase

import (
	"context"
	"time"

	brokerDomain "github.com/tokenward/tokenward/internal/broker/domain"
	"github.com/tokenward/tokenward/internal/metrics"
)

// brokerUseCaseWithMetrics decorates BrokerUseCase with metrics instrumentation.
type brokerUseCaseWithMetrics struct {
	next    BrokerUseCase
	metrics metrics.BusinessMetrics
}

// NewBrokerUseCaseWithMetrics wraps a BrokerUseCase with metrics recording.
func NewBrokerUseCaseWithMetrics(useCase BrokerUseCase, m metrics.BusinessMetrics) BrokerUseCase {
	return &brokerUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Presign records metrics for credential issuance operations.
func (b *brokerUseCaseWithMetrics) Presign(
	ctx context.Context,
	request *brokerDomain.AccessRequest,
) (*brokerDomain.IssuedCredential, error) {
	start := time.Now()
	credential, err := b.next.Presign(ctx, request)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "broker", "presign", status)
	b.metrics.RecordDuration(ctx, "broker", "presign", time.Since(start), status)

	return credential, err
}

// Status records metrics for status projections.
func (b *brokerUseCaseWithMetrics) Status(
	ctx context.Context,
	resourceID string,
) (*brokerDomain.ResourceStatus, error) {
	start := time.Now()
	result, err := b.next.Status(ctx, resourceID)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "broker", "status", status)
	b.metrics.RecordDuration(ctx, "broker", "status", time.Since(start), status)

	return result, err
}
