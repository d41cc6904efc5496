// Package usecase defines the interfaces and implementations for executable
// account business logic. Use cases enforce the account's two control
// channels: direct execution by the controller and self-directed execution
// through installed delegate modules.
package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
)

// AccountRepository defines the interface for Account persistence operations.
type AccountRepository interface {
	Create(ctx context.Context, account *accountDomain.Account) error
	Get(ctx context.Context, address common.Address) (*accountDomain.Account, error)
	UpdateController(ctx context.Context, address, controller common.Address, updatedAt time.Time) error
	AddDelegate(ctx context.Context, address, delegate common.Address, initData []byte, updatedAt time.Time) error
	RemoveDelegate(ctx context.Context, address, delegate common.Address, updatedAt time.Time) error
}

// Dispatcher runs an instruction against an external target on behalf of an
// account. Self-directed instructions never reach the dispatcher; the account
// applies those itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, account common.Address, instruction accountDomain.Instruction) ([]byte, error)
}

// DelegateModule is the surface an account needs from a delegate at install
// time. The module's address identifies it in the account's delegate set.
type DelegateModule interface {
	Address() common.Address
	OnInstall(ctx context.Context, account common.Address, initData []byte) error
}

// AccountUseCase defines the interface for executable account business logic.
// Every mutating operation takes the caller explicitly; authorization is
// decided here, not by the transport.
type AccountUseCase interface {
	Create(ctx context.Context, address, controller common.Address) (*accountDomain.Account, error)
	Get(ctx context.Context, address common.Address) (*accountDomain.Account, error)
	// Execute runs one instruction. Controller-only. Self-directed
	// instructions are applied to the account's own state; anything else
	// goes to the dispatcher.
	Execute(ctx context.Context, caller, account common.Address, instruction accountDomain.Instruction) ([]byte, error)
	// ExecuteBatch runs instructions in order. Controller-only. All
	// instructions are authorized up front; a failing step aborts the rest.
	ExecuteBatch(ctx context.Context, caller, account common.Address, instructions []accountDomain.Instruction) ([][]byte, error)
	// ChangeController hands control to newController. Allowed for the
	// current controller and for the account itself (self-call).
	ChangeController(ctx context.Context, caller, account, newController common.Address) error
	InstallDelegate(ctx context.Context, caller, account common.Address, module DelegateModule, initData []byte) error
	RemoveDelegate(ctx context.Context, caller, account, delegate common.Address) error
	// ExecuteFromDelegate runs an instruction on behalf of an installed
	// delegate. Only self-directed instructions are accepted, so a delegate
	// can never reach targets beyond the account itself.
	ExecuteFromDelegate(ctx context.Context, caller, account common.Address, instruction accountDomain.Instruction) error
}
