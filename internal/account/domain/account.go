// Package domain defines the core domain models for executable accounts.
// An executable account has exactly one controller with full direct-execute
// rights and a set of installed delegate modules that may only trigger
// self-directed instructions.
package domain

import (
	"bytes"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Account represents an executable account.
type Account struct {
	// Address identifies the account.
	Address common.Address
	// Controller is the single address with direct execution rights.
	Controller common.Address
	// Delegates maps installed module addresses to the install payload each
	// module was given. The payload is persisted with the delegate so a
	// module can rebuild its per-account state from storage alone.
	Delegates map[common.Address][]byte
	// CreatedAt is the UTC timestamp when the account was created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last controller or delegate change.
	UpdatedAt time.Time
}

// NewAccount creates an account controlled by controller with no delegates.
func NewAccount(address, controller common.Address, now time.Time) *Account {
	return &Account{
		Address:    address,
		Controller: controller,
		Delegates:  make(map[common.Address][]byte),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsController reports whether caller is the account's controller.
func (a *Account) IsController(caller common.Address) bool {
	return caller == a.Controller
}

// HasDelegate reports whether delegate is installed on the account.
func (a *Account) HasDelegate(delegate common.Address) bool {
	_, ok := a.Delegates[delegate]
	return ok
}

// DelegateInitData returns the install payload recorded for delegate.
func (a *Account) DelegateInitData(delegate common.Address) ([]byte, bool) {
	initData, ok := a.Delegates[delegate]
	return initData, ok
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	delegates := make(map[common.Address][]byte, len(a.Delegates))
	for addr, initData := range a.Delegates {
		delegates[addr] = bytes.Clone(initData)
	}
	clone := *a
	clone.Delegates = delegates
	return &clone
}
