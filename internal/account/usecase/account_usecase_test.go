package usecase

import (
	"context"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	accountRepository "github.com/tokenward/tokenward/internal/account/repository"
	"github.com/tokenward/tokenward/internal/events"
)

// noopTxManager runs the function without a transaction; the in-memory
// repository has no transactional semantics.
type noopTxManager struct{}

func (noopTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingDispatcher records dispatched instructions.
type recordingDispatcher struct {
	dispatched []accountDomain.Instruction
	err        error
}

func (d *recordingDispatcher) Dispatch(
	ctx context.Context,
	account common.Address,
	instruction accountDomain.Instruction,
) ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.dispatched = append(d.dispatched, instruction)
	return []byte("ok"), nil
}

// stubDelegateModule is a DelegateModule with a fixed address.
type stubDelegateModule struct {
	address    common.Address
	installErr error
	installed  []common.Address
}

func (m *stubDelegateModule) Address() common.Address { return m.address }

func (m *stubDelegateModule) OnInstall(ctx context.Context, account common.Address, initData []byte) error {
	if m.installErr != nil {
		return m.installErr
	}
	m.installed = append(m.installed, account)
	return nil
}

var (
	accountAddr    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	controllerAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	delegateAddr   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	strangerAddr   = common.HexToAddress("0x3333333333333333333333333333333333333333")
	targetAddr     = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func newTestUseCase(t *testing.T) (AccountUseCase, *recordingDispatcher) {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	uc := NewAccountUseCase(
		noopTxManager{},
		accountRepository.NewMemoryAccountRepository(),
		dispatcher,
		events.NewNoopPublisher(),
		slog.New(slog.DiscardHandler),
	)
	return uc, dispatcher
}

func TestAccountUseCase_Create(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	account, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)
	assert.Equal(t, controllerAddr, account.Controller)

	_, err = uc.Create(ctx, accountAddr, controllerAddr)
	assert.ErrorIs(t, err, accountDomain.ErrAccountExists)

	_, err = uc.Create(ctx, strangerAddr, common.Address{})
	assert.ErrorIs(t, err, accountDomain.ErrZeroController)
}

func TestAccountUseCase_Execute(t *testing.T) {
	uc, dispatcher := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	instruction := accountDomain.Instruction{
		Target: targetAddr,
		Value:  big.NewInt(100),
		Data:   []byte{0x01},
	}

	result, err := uc.Execute(ctx, controllerAddr, accountAddr, instruction)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), result)
	require.Len(t, dispatcher.dispatched, 1)

	_, err = uc.Execute(ctx, strangerAddr, accountAddr, instruction)
	assert.ErrorIs(t, err, accountDomain.ErrNotController)
	assert.Len(t, dispatcher.dispatched, 1)
}

func TestAccountUseCase_Execute_SelfDirectedControllerChange(t *testing.T) {
	uc, dispatcher := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	instruction := accountDomain.ControllerChangeInstruction(accountAddr, strangerAddr)
	_, err = uc.Execute(ctx, controllerAddr, accountAddr, instruction)
	require.NoError(t, err)

	// Self-directed instructions never reach the dispatcher.
	assert.Empty(t, dispatcher.dispatched)

	account, err := uc.Get(ctx, accountAddr)
	require.NoError(t, err)
	assert.Equal(t, strangerAddr, account.Controller)

	// The old controller lost its rights.
	_, err = uc.Execute(ctx, controllerAddr, accountAddr, instruction)
	assert.ErrorIs(t, err, accountDomain.ErrNotController)
}

func TestAccountUseCase_Execute_UnknownSelfInstruction(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	instruction := accountDomain.Instruction{Target: accountAddr, Data: []byte{0xde, 0xad}}
	_, err = uc.Execute(ctx, controllerAddr, accountAddr, instruction)
	assert.ErrorIs(t, err, accountDomain.ErrUnknownSelfInstruction)
}

func TestAccountUseCase_ExecuteBatch(t *testing.T) {
	uc, dispatcher := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	instructions := []accountDomain.Instruction{
		{Target: targetAddr, Data: []byte{0x01}},
		{Target: strangerAddr, Data: []byte{0x02}},
	}

	results, err := uc.ExecuteBatch(ctx, controllerAddr, accountAddr, instructions)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, dispatcher.dispatched, 2)

	_, err = uc.ExecuteBatch(ctx, strangerAddr, accountAddr, instructions)
	assert.ErrorIs(t, err, accountDomain.ErrNotController)
}

func TestAccountUseCase_ExecuteBatch_AbortsOnFailure(t *testing.T) {
	uc, dispatcher := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	instructions := []accountDomain.Instruction{
		{Target: accountAddr, Data: []byte{0xde, 0xad}}, // fails: unknown self-op
		{Target: targetAddr, Data: []byte{0x01}},
	}

	_, err = uc.ExecuteBatch(ctx, controllerAddr, accountAddr, instructions)
	assert.ErrorIs(t, err, accountDomain.ErrUnknownSelfInstruction)
	assert.Empty(t, dispatcher.dispatched)
}

func TestAccountUseCase_ExecuteBatch_FailureDiscardsEarlierSteps(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	instructions := []accountDomain.Instruction{
		accountDomain.ControllerChangeInstruction(accountAddr, strangerAddr),
		{Target: accountAddr, Data: []byte{0xde, 0xad}}, // fails: unknown self-op
	}

	_, err = uc.ExecuteBatch(ctx, controllerAddr, accountAddr, instructions)
	assert.ErrorIs(t, err, accountDomain.ErrUnknownSelfInstruction)

	// The controller change from the first step must not survive the failure.
	account, err := uc.Get(ctx, accountAddr)
	require.NoError(t, err)
	assert.Equal(t, controllerAddr, account.Controller)
}

func TestAccountUseCase_ExecuteBatch_ControllerChangeApplies(t *testing.T) {
	uc, dispatcher := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	instructions := []accountDomain.Instruction{
		{Target: targetAddr, Data: []byte{0x01}},
		accountDomain.ControllerChangeInstruction(accountAddr, strangerAddr),
	}

	results, err := uc.ExecuteBatch(ctx, controllerAddr, accountAddr, instructions)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, dispatcher.dispatched, 1)

	account, err := uc.Get(ctx, accountAddr)
	require.NoError(t, err)
	assert.Equal(t, strangerAddr, account.Controller)
}

func TestAccountUseCase_ChangeController(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	// Stranger cannot change control.
	err = uc.ChangeController(ctx, strangerAddr, accountAddr, strangerAddr)
	assert.ErrorIs(t, err, accountDomain.ErrNotController)

	// Zero address is never a valid controller.
	err = uc.ChangeController(ctx, controllerAddr, accountAddr, common.Address{})
	assert.ErrorIs(t, err, accountDomain.ErrZeroController)

	// Controller can hand off control.
	require.NoError(t, uc.ChangeController(ctx, controllerAddr, accountAddr, strangerAddr))

	// The account itself can also change its controller (self-call path).
	require.NoError(t, uc.ChangeController(ctx, accountAddr, accountAddr, controllerAddr))

	account, err := uc.Get(ctx, accountAddr)
	require.NoError(t, err)
	assert.Equal(t, controllerAddr, account.Controller)
}

func TestAccountUseCase_InstallAndRemoveDelegate(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	module := &stubDelegateModule{address: delegateAddr}

	err = uc.InstallDelegate(ctx, strangerAddr, accountAddr, module, nil)
	assert.ErrorIs(t, err, accountDomain.ErrNotController)

	require.NoError(t, uc.InstallDelegate(ctx, controllerAddr, accountAddr, module, []byte("init")))
	assert.Equal(t, []common.Address{accountAddr}, module.installed)

	err = uc.InstallDelegate(ctx, controllerAddr, accountAddr, module, nil)
	assert.ErrorIs(t, err, accountDomain.ErrDelegateInstalled)

	account, err := uc.Get(ctx, accountAddr)
	require.NoError(t, err)
	assert.True(t, account.HasDelegate(delegateAddr))

	require.NoError(t, uc.RemoveDelegate(ctx, controllerAddr, accountAddr, delegateAddr))
	err = uc.RemoveDelegate(ctx, controllerAddr, accountAddr, delegateAddr)
	assert.ErrorIs(t, err, accountDomain.ErrDelegateNotInstalled)
}

func TestAccountUseCase_InstallDelegate_HookFailureLeavesAccountUnchanged(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	module := &stubDelegateModule{address: delegateAddr, installErr: assert.AnError}
	err = uc.InstallDelegate(ctx, controllerAddr, accountAddr, module, nil)
	assert.ErrorIs(t, err, assert.AnError)

	account, err := uc.Get(ctx, accountAddr)
	require.NoError(t, err)
	assert.False(t, account.HasDelegate(delegateAddr))
}

func TestAccountUseCase_ExecuteFromDelegate(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	module := &stubDelegateModule{address: delegateAddr}
	require.NoError(t, uc.InstallDelegate(ctx, controllerAddr, accountAddr, module, nil))

	instruction := accountDomain.ControllerChangeInstruction(accountAddr, strangerAddr)

	// Only installed delegates may use this path.
	err = uc.ExecuteFromDelegate(ctx, strangerAddr, accountAddr, instruction)
	assert.ErrorIs(t, err, accountDomain.ErrNotDelegate)

	require.NoError(t, uc.ExecuteFromDelegate(ctx, delegateAddr, accountAddr, instruction))

	account, err := uc.Get(ctx, accountAddr)
	require.NoError(t, err)
	assert.Equal(t, strangerAddr, account.Controller)
}

func TestAccountUseCase_ExecuteFromDelegate_Confinement(t *testing.T) {
	uc, dispatcher := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, accountAddr, controllerAddr)
	require.NoError(t, err)

	module := &stubDelegateModule{address: delegateAddr}
	require.NoError(t, uc.InstallDelegate(ctx, controllerAddr, accountAddr, module, nil))

	// Any instruction that does not target the account itself is rejected,
	// whatever its payload. A delegate can never reach external targets.
	outward := []accountDomain.Instruction{
		{Target: targetAddr, Value: big.NewInt(1), Data: nil},
		accountDomain.ControllerChangeInstruction(targetAddr, delegateAddr),
		{Target: controllerAddr, Data: []byte{0x01, 0x02}},
	}
	for _, instruction := range outward {
		err := uc.ExecuteFromDelegate(ctx, delegateAddr, accountAddr, instruction)
		assert.ErrorIs(t, err, accountDomain.ErrNotSelfDirected)
	}
	assert.Empty(t, dispatcher.dispatched)

	// Self-directed but unrecognized payloads are rejected too.
	err = uc.ExecuteFromDelegate(ctx, delegateAddr, accountAddr, accountDomain.Instruction{
		Target: accountAddr,
		Data:   []byte{0xde, 0xad, 0xbe, 0xef},
	})
	assert.ErrorIs(t, err, accountDomain.ErrUnknownSelfInstruction)
}
