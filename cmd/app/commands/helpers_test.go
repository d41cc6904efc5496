package commands

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	accountRepository "github.com/tokenward/tokenward/internal/account/repository"
	accountService "github.com/tokenward/tokenward/internal/account/service"
	accountUsecase "github.com/tokenward/tokenward/internal/account/usecase"
	"github.com/tokenward/tokenward/internal/app"
	"github.com/tokenward/tokenward/internal/database"
	"github.com/tokenward/tokenward/internal/delegate"
	"github.com/tokenward/tokenward/internal/events"
	"github.com/tokenward/tokenward/internal/ledger"
	registryRepository "github.com/tokenward/tokenward/internal/registry/repository"
	registryUsecase "github.com/tokenward/tokenward/internal/registry/usecase"
)

// commandFixture wires the registry and account use cases over in-memory
// backends, the same shape the container builds in memory mode.
type commandFixture struct {
	tokenLedger *ledger.MemoryLedger
	registry    registryUsecase.RegistryUseCase
	accounts    accountUsecase.AccountUseCase
	module      *delegate.Module
	authority   common.Address
	logger      *slog.Logger
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	txManager := database.NewNoopTxManager()
	publisher := events.NewNoopPublisher()

	accounts := accountUsecase.NewAccountUseCase(
		txManager,
		accountRepository.NewMemoryAccountRepository(),
		accountService.NewLogDispatcher(logger),
		publisher,
		logger,
	)
	module := delegate.NewModule(app.DelegateModuleAddress, accounts)
	tokenLedger := ledger.NewMemoryLedger()
	authority := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	registry := registryUsecase.NewRegistryUseCase(
		txManager,
		registryRepository.NewMemoryRecordRepository(),
		tokenLedger,
		module,
		publisher,
		logger,
		authority,
		time.Hour,
	)

	return &commandFixture{
		tokenLedger: tokenLedger,
		registry:    registry,
		accounts:    accounts,
		module:      module,
		authority:   authority,
		logger:      logger,
	}
}

// newHolderKey generates a throwaway holder keypair for a test.
func newHolderKey(t *testing.T) (string, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return hexutil.Encode(crypto.FromECDSA(key)), crypto.PubkeyToAddress(key.PublicKey)
}
