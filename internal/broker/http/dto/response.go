package dto

import (
	"time"

	brokerDomain "github.com/tokenward/tokenward/internal/broker/domain"
)

// CredentialURLsResponse groups the presigned URLs of one issued credential.
type CredentialURLsResponse struct {
	Manifest string            `json:"manifest"`
	Report   string            `json:"report"`
	Objects  map[string]string `json:"objects"`
}

// PresignResponse represents an issued credential in API responses.
type PresignResponse struct {
	ExpiresAt time.Time              `json:"expires_at"`
	URLs      CredentialURLsResponse `json:"urls"`
}

// MapCredentialToResponse converts an issued credential to an API response.
func MapCredentialToResponse(credential *brokerDomain.IssuedCredential) PresignResponse {
	return PresignResponse{
		ExpiresAt: credential.ExpiresAt,
		URLs: CredentialURLsResponse{
			Manifest: credential.URLs.Manifest,
			Report:   credential.URLs.Report,
			Objects:  credential.URLs.Objects,
		},
	}
}

// StatusResponse represents the public ownership projection of a resource.
type StatusResponse struct {
	ResourceID          string `json:"resource_id"`
	TokenID             uint64 `json:"token_id"`
	State               string `json:"state"`
	CurrentHolder       string `json:"current_holder"`
	BoundAccount        string `json:"bound_account"`
	ConfirmedController string `json:"confirmed_controller"`
	PendingClaim        bool   `json:"pending_claim"`
	InClaimWindow       bool   `json:"in_claim_window"`
}

// MapStatusToResponse converts a resource status to an API response.
func MapStatusToResponse(status *brokerDomain.ResourceStatus) StatusResponse {
	return StatusResponse{
		ResourceID:          status.ResourceID,
		TokenID:             status.TokenID,
		State:               status.State,
		CurrentHolder:       status.CurrentHolder,
		BoundAccount:        status.BoundAccount,
		ConfirmedController: status.ConfirmedController,
		PendingClaim:        status.PendingClaim,
		InClaimWindow:       status.InClaimWindow,
	}
}
