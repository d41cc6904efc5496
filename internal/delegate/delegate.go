// Package delegate implements the trusted forwarder that the registry uses to
// force a controller change during an ownership claim. The module keeps no
// state of its own: the authority permitted to forward is read back from the
// install payload persisted on the account, so every process over the same
// store resolves the same authority. The self-directed rule is enforced by
// the account, not here.
package delegate

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// Module errors.
var (
	// ErrNotInstalled indicates the module is not installed on the account.
	ErrNotInstalled = apperrors.Wrap(apperrors.ErrNotFound, "delegate module not installed on account")
	// ErrCallerNotAuthority indicates the caller is not the authority recorded
	// at install time.
	ErrCallerNotAuthority = apperrors.Wrap(apperrors.ErrForbidden, "caller is not the installing authority")
	// ErrBadInitData indicates the install payload is not a valid authority address.
	ErrBadInitData = apperrors.Wrap(apperrors.ErrInvalidInput, "init data must be a 20-byte authority address")
)

// AccountExecutor is the slice of the account use case the module needs.
type AccountExecutor interface {
	Get(ctx context.Context, address common.Address) (*accountDomain.Account, error)
	ExecuteFromDelegate(
		ctx context.Context,
		caller, account common.Address,
		instruction accountDomain.Instruction,
	) error
}

// Module is an authorized forwarder. Each account that installs it names one
// authority in the install payload; only that authority may forward
// instructions to the account.
type Module struct {
	address  common.Address
	accounts AccountExecutor
}

// NewModule creates a delegate module identified by address.
func NewModule(address common.Address, accounts AccountExecutor) *Module {
	return &Module{
		address:  address,
		accounts: accounts,
	}
}

// Address returns the module's identity in account delegate sets.
func (m *Module) Address() common.Address {
	return m.address
}

// OnInstall validates the install payload. The account persists the payload
// alongside the delegate; the module reads it back on every Forward.
func (m *Module) OnInstall(ctx context.Context, account common.Address, initData []byte) error {
	_, err := authorityFromInitData(initData)
	return err
}

// Forward relays an instruction to the account through the delegated
// execution path. Only the authority named at install time may call it.
func (m *Module) Forward(
	ctx context.Context,
	caller, account common.Address,
	instruction accountDomain.Instruction,
) error {
	authority, err := m.authority(ctx, account)
	if err != nil {
		return err
	}
	if caller != authority {
		return ErrCallerNotAuthority
	}

	return m.accounts.ExecuteFromDelegate(ctx, m.address, account, instruction)
}

// authority resolves the forwarding authority for account from the install
// payload stored with the delegate.
func (m *Module) authority(ctx context.Context, account common.Address) (common.Address, error) {
	acc, err := m.accounts.Get(ctx, account)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return common.Address{}, ErrNotInstalled
		}
		return common.Address{}, err
	}

	initData, ok := acc.DelegateInitData(m.address)
	if !ok {
		return common.Address{}, ErrNotInstalled
	}
	authority, err := authorityFromInitData(initData)
	if err != nil {
		return common.Address{}, ErrNotInstalled
	}
	return authority, nil
}

// authorityFromInitData decodes the authority address out of an install payload.
func authorityFromInitData(initData []byte) (common.Address, error) {
	if len(initData) != common.AddressLength {
		return common.Address{}, ErrBadInitData
	}
	authority := common.BytesToAddress(initData)
	if authority == (common.Address{}) {
		return common.Address{}, ErrBadInitData
	}
	return authority, nil
}
