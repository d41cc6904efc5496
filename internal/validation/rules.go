// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/tokenward/tokenward/internal/errors"
)

var (
	// addressRegex matches a 0x-prefixed 20-byte hex address.
	addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	// signatureRegex matches a 0x-prefixed 65-byte compact signature.
	signatureRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{130}$`)
	// resourceIDRegex matches "t<tokenID>/<slug>" resource identifiers.
	resourceIDRegex = regexp.MustCompile(`^t[0-9]+/[a-z0-9][a-z0-9._\-]{0,63}$`)
	// objectKeyRegex matches object keys inside a resource: path segments of
	// safe characters, no traversal.
	objectKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]+(/[a-zA-Z0-9._\-]+)*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// EthAddress validates a 0x-prefixed hex account address.
var EthAddress = validation.NewStringRuleWithError(
	func(s string) bool {
		return addressRegex.MatchString(s)
	},
	validation.NewError("validation_eth_address", "must be a 0x-prefixed 40-character hex address"),
)

// HexSignature validates a 0x-prefixed 65-byte compact signature.
var HexSignature = validation.NewStringRuleWithError(
	func(s string) bool {
		return signatureRegex.MatchString(s)
	},
	validation.NewError("validation_hex_signature", "must be a 0x-prefixed 130-character hex signature"),
)

// ResourceID validates a resource identifier of the form "t<tokenID>/<slug>".
var ResourceID = validation.NewStringRuleWithError(
	func(s string) bool {
		return resourceIDRegex.MatchString(s)
	},
	validation.NewError("validation_resource_id", "must match t<tokenID>/<slug>"),
)

// ObjectKey validates an object key within a resource. Keys are relative
// paths and must not escape the resource prefix.
var ObjectKey = validation.NewStringRuleWithError(
	func(s string) bool {
		if !objectKeyRegex.MatchString(s) {
			return false
		}
		for _, segment := range strings.Split(s, "/") {
			if segment == "." || segment == ".." {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_object_key", "must be a relative path without traversal segments"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
