// Package signer implements the canonical request message and its EIP-191
// personal-sign signature scheme. The broker never receives a public key:
// the signer's address is recovered from the 65-byte compact signature and
// compared against the ledger's current holder.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// signatureLength is the length of a compact [R || S || V] secp256k1 signature.
const signatureLength = 65

// CanonicalMessage builds the exact byte string a client must sign for a
// presign request. Any deviation in field order or separator produces a
// different recovered address and a rejected request.
func CanonicalMessage(resourceID, action string, tokenID uint64, timestamp int64) []byte {
	var b strings.Builder
	b.WriteString(resourceID)
	b.WriteByte(':')
	b.WriteString(action)
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(tokenID, 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(timestamp, 10))
	return []byte(b.String())
}

// RecoverAddress recovers the signer address from a hex-encoded compact
// signature over the EIP-191 personal-sign hash of message. The recovery id
// accepts both the raw {0,1} and the Ethereum-style {27,28} conventions.
func RecoverAddress(message []byte, signatureHex string) (common.Address, error) {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		return common.Address{}, apperrors.Wrap(apperrors.ErrForbidden, "malformed signature encoding")
	}
	if len(sig) != signatureLength {
		return common.Address{}, apperrors.Wrap(
			apperrors.ErrForbidden,
			fmt.Sprintf("signature must be %d bytes", signatureLength),
		)
	}

	// Normalize the recovery id without mutating the caller's view of the request.
	normalized := make([]byte, signatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, apperrors.Wrap(apperrors.ErrForbidden, "invalid signature recovery id")
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), normalized)
	if err != nil {
		return common.Address{}, apperrors.Wrap(apperrors.ErrForbidden, "signature recovery failed")
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// Sign produces a hex-encoded compact signature over the EIP-191
// personal-sign hash of message, with the Ethereum-style {27,28} recovery id.
// Used by the CLI and by tests; the broker only ever recovers.
func Sign(message []byte, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// ParseKey decodes a hex-encoded secp256k1 private key, accepting an
// optional 0x prefix.
func ParseKey(keyHex string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(keyHex, "0x")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// AddressOf returns the Ethereum address derived from a private key.
func AddressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
