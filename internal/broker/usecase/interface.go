// Package usecase implements the credential broker: verification of signed
// access requests against live ledger ownership and issuance of short-lived
// presigned storage URLs. The broker holds no mutable state; every request is
// verifiable from its own contents plus one ledger read.
package usecase

import (
	"context"

	brokerDomain "github.com/tokenward/tokenward/internal/broker/domain"
	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
)

// StatusProvider is the slice of the registry the broker needs for the public
// status projection.
type StatusProvider interface {
	Status(ctx context.Context, tokenID uint64) (*registryDomain.TokenStatus, error)
}

// BrokerUseCase defines the interface for credential broker business logic.
type BrokerUseCase interface {
	// Presign verifies a signed access request and, if the signer currently
	// holds the named token, issues presigned URLs for the resource. Either
	// the full credential set is issued or nothing is.
	Presign(ctx context.Context, request *brokerDomain.AccessRequest) (*brokerDomain.IssuedCredential, error)
	// Status returns the public ownership projection for the token encoded
	// in resourceID.
	Status(ctx context.Context, resourceID string) (*brokerDomain.ResourceStatus, error)
}
