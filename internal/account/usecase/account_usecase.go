package usecase

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	"github.com/tokenward/tokenward/internal/database"
	"github.com/tokenward/tokenward/internal/events"
)

// accountUseCase implements the AccountUseCase interface.
type accountUseCase struct {
	txManager   database.TxManager
	accountRepo AccountRepository
	dispatcher  Dispatcher
	publisher   events.Publisher
	logger      *slog.Logger

	// mu guards locks; one mutex per account serializes operations on that
	// account while operations on different accounts proceed in parallel.
	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

// NewAccountUseCase creates a new account use case instance.
func NewAccountUseCase(
	txManager database.TxManager,
	accountRepo AccountRepository,
	dispatcher Dispatcher,
	publisher events.Publisher,
	logger *slog.Logger,
) AccountUseCase {
	return &accountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		dispatcher:  dispatcher,
		publisher:   publisher,
		logger:      logger,
		locks:       make(map[common.Address]*sync.Mutex),
	}
}

// lock returns the per-account mutex, creating it on first use.
func (a *accountUseCase) lock(address common.Address) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.locks[address]; !ok {
		a.locks[address] = &sync.Mutex{}
	}
	return a.locks[address]
}

// Create creates a new executable account controlled by controller.
func (a *accountUseCase) Create(
	ctx context.Context,
	address, controller common.Address,
) (*accountDomain.Account, error) {
	if controller == (common.Address{}) {
		return nil, accountDomain.ErrZeroController
	}

	lock := a.lock(address)
	lock.Lock()
	defer lock.Unlock()

	account := accountDomain.NewAccount(address, controller, time.Now().UTC())
	if err := a.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Get retrieves an account by its address.
func (a *accountUseCase) Get(ctx context.Context, address common.Address) (*accountDomain.Account, error) {
	return a.accountRepo.Get(ctx, address)
}

// Execute runs one instruction as the controller.
func (a *accountUseCase) Execute(
	ctx context.Context,
	caller, account common.Address,
	instruction accountDomain.Instruction,
) ([]byte, error) {
	lock := a.lock(account)
	lock.Lock()
	defer lock.Unlock()

	acc, err := a.accountRepo.Get(ctx, account)
	if err != nil {
		return nil, err
	}
	if !acc.IsController(caller) {
		return nil, accountDomain.ErrNotController
	}

	return a.run(ctx, caller, acc, instruction)
}

// ExecuteBatch runs instructions in order as the controller. The batch is
// all-or-nothing for account state: self-directed steps apply to a staged
// copy and nothing is persisted until every step has succeeded.
func (a *accountUseCase) ExecuteBatch(
	ctx context.Context,
	caller, account common.Address,
	instructions []accountDomain.Instruction,
) ([][]byte, error) {
	lock := a.lock(account)
	lock.Lock()
	defer lock.Unlock()

	acc, err := a.accountRepo.Get(ctx, account)
	if err != nil {
		return nil, err
	}
	if !acc.IsController(caller) {
		return nil, accountDomain.ErrNotController
	}

	staged := acc.Clone()
	results := make([][]byte, 0, len(instructions))
	for _, instruction := range instructions {
		result, err := a.stage(ctx, staged, instruction)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if staged.Controller != acc.Controller {
		now := time.Now().UTC()
		err := a.txManager.WithTx(ctx, func(txCtx context.Context) error {
			return a.accountRepo.UpdateController(txCtx, acc.Address, staged.Controller, now)
		})
		if err != nil {
			return nil, err
		}
	}

	for _, instruction := range instructions {
		a.publishExecuted(ctx, caller, acc.Address, instruction)
	}
	return results, nil
}

// stage runs one batch step. Self-directed instructions mutate the staged
// account only; dispatches to external targets run immediately.
func (a *accountUseCase) stage(
	ctx context.Context,
	staged *accountDomain.Account,
	instruction accountDomain.Instruction,
) ([]byte, error) {
	if !instruction.IsSelfDirected(staged.Address) {
		return a.dispatcher.Dispatch(ctx, staged.Address, instruction)
	}

	newController, ok := accountDomain.ParseControllerChange(instruction.Data)
	if !ok {
		return nil, accountDomain.ErrUnknownSelfInstruction
	}
	if newController == (common.Address{}) {
		return nil, accountDomain.ErrZeroController
	}
	staged.Controller = newController
	return nil, nil
}

// run executes a single authorized instruction. Self-directed instructions
// mutate the account's own state; everything else goes to the dispatcher.
func (a *accountUseCase) run(
	ctx context.Context,
	caller common.Address,
	acc *accountDomain.Account,
	instruction accountDomain.Instruction,
) ([]byte, error) {
	var result []byte
	var err error

	if instruction.IsSelfDirected(acc.Address) {
		err = a.applySelfInstruction(ctx, acc, instruction)
	} else {
		result, err = a.dispatcher.Dispatch(ctx, acc.Address, instruction)
	}
	if err != nil {
		return nil, err
	}

	a.publishExecuted(ctx, caller, acc.Address, instruction)
	return result, nil
}

// applySelfInstruction decodes and applies an instruction the account sends
// to itself. Only controller changes are recognized.
func (a *accountUseCase) applySelfInstruction(
	ctx context.Context,
	acc *accountDomain.Account,
	instruction accountDomain.Instruction,
) error {
	newController, ok := accountDomain.ParseControllerChange(instruction.Data)
	if !ok {
		return accountDomain.ErrUnknownSelfInstruction
	}
	return a.changeController(ctx, acc, newController)
}

// changeController persists a controller change. Callers must already hold
// the account lock and have authorized the change.
func (a *accountUseCase) changeController(
	ctx context.Context,
	acc *accountDomain.Account,
	newController common.Address,
) error {
	if newController == (common.Address{}) {
		return accountDomain.ErrZeroController
	}

	now := time.Now().UTC()
	err := a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return a.accountRepo.UpdateController(txCtx, acc.Address, newController, now)
	})
	if err != nil {
		return err
	}

	acc.Controller = newController
	acc.UpdatedAt = now
	return nil
}

// ChangeController hands control of the account to newController.
func (a *accountUseCase) ChangeController(
	ctx context.Context,
	caller, account, newController common.Address,
) error {
	lock := a.lock(account)
	lock.Lock()
	defer lock.Unlock()

	acc, err := a.accountRepo.Get(ctx, account)
	if err != nil {
		return err
	}
	// Self-call or controller-only.
	if caller != acc.Address && !acc.IsController(caller) {
		return accountDomain.ErrNotController
	}

	return a.changeController(ctx, acc, newController)
}

// InstallDelegate installs a delegate module on the account. Controller-only.
// The module's OnInstall hook runs before the delegate set is updated; an
// install that fails its hook leaves the account unchanged. The install
// payload is persisted with the delegate so the module can read it back
// after a restart.
func (a *accountUseCase) InstallDelegate(
	ctx context.Context,
	caller, account common.Address,
	module DelegateModule,
	initData []byte,
) error {
	lock := a.lock(account)
	lock.Lock()
	defer lock.Unlock()

	acc, err := a.accountRepo.Get(ctx, account)
	if err != nil {
		return err
	}
	if !acc.IsController(caller) {
		return accountDomain.ErrNotController
	}
	if acc.HasDelegate(module.Address()) {
		return accountDomain.ErrDelegateInstalled
	}

	if err := module.OnInstall(ctx, account, initData); err != nil {
		return err
	}

	now := time.Now().UTC()
	err = a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return a.accountRepo.AddDelegate(txCtx, account, module.Address(), initData, now)
	})
	if err != nil {
		return err
	}

	acc.Delegates[module.Address()] = initData
	acc.UpdatedAt = now
	return nil
}

// RemoveDelegate removes an installed delegate from the account. Controller-only.
func (a *accountUseCase) RemoveDelegate(
	ctx context.Context,
	caller, account, delegate common.Address,
) error {
	lock := a.lock(account)
	lock.Lock()
	defer lock.Unlock()

	acc, err := a.accountRepo.Get(ctx, account)
	if err != nil {
		return err
	}
	if !acc.IsController(caller) {
		return accountDomain.ErrNotController
	}
	if !acc.HasDelegate(delegate) {
		return accountDomain.ErrDelegateNotInstalled
	}

	now := time.Now().UTC()
	err = a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return a.accountRepo.RemoveDelegate(txCtx, account, delegate, now)
	})
	if err != nil {
		return err
	}

	delete(acc.Delegates, delegate)
	acc.UpdatedAt = now
	return nil
}

// ExecuteFromDelegate runs an instruction forwarded by an installed delegate.
// The self-directed rule is enforced here, inside the account, because the
// account is the only party that can safely make that guarantee.
func (a *accountUseCase) ExecuteFromDelegate(
	ctx context.Context,
	caller, account common.Address,
	instruction accountDomain.Instruction,
) error {
	lock := a.lock(account)
	lock.Lock()
	defer lock.Unlock()

	acc, err := a.accountRepo.Get(ctx, account)
	if err != nil {
		return err
	}
	if !acc.HasDelegate(caller) {
		return accountDomain.ErrNotDelegate
	}
	if !instruction.IsSelfDirected(acc.Address) {
		return accountDomain.ErrNotSelfDirected
	}

	if err := a.applySelfInstruction(ctx, acc, instruction); err != nil {
		return err
	}

	a.publishExecuted(ctx, caller, acc.Address, instruction)
	return nil
}

// publishExecuted emits an ExecutedEvent. Publishing is best-effort and never
// fails the execution that produced it.
func (a *accountUseCase) publishExecuted(
	ctx context.Context,
	caller, account common.Address,
	instruction accountDomain.Instruction,
) {
	value := new(big.Int)
	if instruction.Value != nil {
		value = instruction.Value
	}
	event := events.ExecutedEvent{
		Account:  account.Hex(),
		Caller:   caller.Hex(),
		Target:   instruction.Target.Hex(),
		Value:    value.String(),
		DataSize: len(instruction.Data),
		At:       time.Now().UTC(),
	}
	if err := a.publisher.PublishExecuted(ctx, event); err != nil {
		a.logger.Warn("failed to publish executed event",
			slog.String("account", event.Account),
			slog.Any("error", err),
		)
	}
}
