// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	brokerDomain "github.com/tokenward/tokenward/internal/broker/domain"
	customValidation "github.com/tokenward/tokenward/internal/validation"
)

// PresignRequest contains the parameters of a signed storage access request.
type PresignRequest struct {
	ResourceID string   `json:"resource_id"`
	TokenID    uint64   `json:"token_id"`
	Action     string   `json:"action"`
	ObjectKeys []string `json:"object_keys,omitempty"`
	Timestamp  int64    `json:"timestamp"`
	Signature  string   `json:"signature"`
}

// Validate checks if the presign request is structurally valid.
func (r *PresignRequest) Validate() error {
	// TokenID carries no Required rule: zero is a valid ledger token id, and
	// the resource id cross-check catches mismatches.
	return validation.ValidateStruct(r,
		validation.Field(&r.ResourceID, validation.Required, customValidation.ResourceID),
		validation.Field(&r.Action, validation.Required, validation.In("read", "write")),
		validation.Field(&r.ObjectKeys, validation.Each(customValidation.ObjectKey)),
		validation.Field(&r.Timestamp, validation.Required),
		validation.Field(&r.Signature, validation.Required, customValidation.HexSignature),
	)
}

// ToDomain converts the request into the broker's domain model.
func (r *PresignRequest) ToDomain() (*brokerDomain.AccessRequest, error) {
	action, err := brokerDomain.ParseAction(r.Action)
	if err != nil {
		return nil, err
	}
	return &brokerDomain.AccessRequest{
		ResourceID: r.ResourceID,
		TokenID:    r.TokenID,
		Action:     action,
		ObjectKeys: r.ObjectKeys,
		Timestamp:  r.Timestamp,
		Signature:  r.Signature,
	}, nil
}
