// Package domain defines the transient domain models for the credential
// broker. Nothing in this package is persisted: an access request lives for
// one HTTP call and an issued credential is returned to the caller and
// forgotten.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/tokenward/tokenward/internal/signer"
)

// Action is the kind of storage access being requested.
type Action string

const (
	// ActionRead requests presigned GET URLs for a resource's objects.
	ActionRead Action = "read"
	// ActionWrite requests presigned PUT URLs for a resource's objects.
	ActionWrite Action = "write"
)

// ParseAction parses and validates an action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionRead:
		return ActionRead, nil
	case ActionWrite:
		return ActionWrite, nil
	default:
		return "", ErrBadAction
	}
}

// AccessRequest is one signed request for temporary storage access. Created
// per HTTP call, validated, and discarded.
type AccessRequest struct {
	// ResourceID names the protected resource, format "t<tokenID>/<slug>".
	ResourceID string
	// TokenID is the ownership token said to authorize the access.
	TokenID uint64
	// Action is read or write.
	Action Action
	// ObjectKeys are the keys to presign for a write. Ignored for reads,
	// which presign whatever exists under the resource.
	ObjectKeys []string
	// Timestamp is the signer's unix time, bounded by the replay window.
	Timestamp int64
	// Signature is the 0x-prefixed compact signature over SignedMessage().
	Signature string
}

// SignedMessage returns the canonical bytes the signature must cover.
func (r *AccessRequest) SignedMessage() []byte {
	return signer.CanonicalMessage(r.ResourceID, string(r.Action), r.TokenID, r.Timestamp)
}

// CredentialURLs groups the presigned URLs of one issued credential.
type CredentialURLs struct {
	// Manifest is the URL for the resource manifest.
	Manifest string
	// Report is the URL for the redaction report.
	Report string
	// Objects maps object keys to their presigned URLs.
	Objects map[string]string
}

// IssuedCredential is a set of presigned URLs sharing one expiry. Never
// persisted; once issued there is no revocation before expiry.
type IssuedCredential struct {
	ExpiresAt time.Time
	URLs      CredentialURLs
}

// ResourceStatus is the public projection returned by the status endpoint.
type ResourceStatus struct {
	ResourceID          string
	TokenID             uint64
	State               string
	CurrentHolder       string
	BoundAccount        string
	ConfirmedController string
	PendingClaim        bool
	InClaimWindow       bool
}

// ParseResourceID splits a "t<tokenID>/<slug>" resource identifier. The token
// binding is structural: the owning token is encoded in the identifier, so
// the broker needs no lookup table to resolve it.
func ParseResourceID(resourceID string) (uint64, string, error) {
	rest, ok := strings.CutPrefix(resourceID, "t")
	if !ok {
		return 0, "", ErrBadResourceID
	}
	idPart, slug, ok := strings.Cut(rest, "/")
	if !ok || idPart == "" || slug == "" {
		return 0, "", ErrBadResourceID
	}
	tokenID, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return 0, "", ErrBadResourceID
	}
	return tokenID, slug, nil
}

// Storage key layout for a resource:
//
//	resources/<resourceID>/manifest.json
//	resources/<resourceID>/report.json
//	resources/<resourceID>/objects/<key>

// ResourcePrefix returns the storage prefix holding a resource.
func ResourcePrefix(resourceID string) string {
	return "resources/" + resourceID + "/"
}

// ManifestKey returns the storage key of a resource's manifest.
func ManifestKey(resourceID string) string {
	return ResourcePrefix(resourceID) + "manifest.json"
}

// ReportKey returns the storage key of a resource's redaction report.
func ReportKey(resourceID string) string {
	return ResourcePrefix(resourceID) + "report.json"
}

// ObjectsPrefix returns the storage prefix holding a resource's objects.
func ObjectsPrefix(resourceID string) string {
	return ResourcePrefix(resourceID) + "objects/"
}

// ObjectStorageKey returns the full storage key for one object of a resource.
func ObjectStorageKey(resourceID, objectKey string) string {
	return ObjectsPrefix(resourceID) + objectKey
}

// ObjectKeyFromStorage strips the resource prefix from a listed storage key.
func ObjectKeyFromStorage(resourceID, storageKey string) string {
	return strings.TrimPrefix(storageKey, ObjectsPrefix(resourceID))
}
