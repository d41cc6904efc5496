package app

import (
	"sync"

	accountUsecase "github.com/tokenward/tokenward/internal/account/usecase"
	brokerHTTP "github.com/tokenward/tokenward/internal/broker/http"
	brokerUsecase "github.com/tokenward/tokenward/internal/broker/usecase"
	"github.com/tokenward/tokenward/internal/delegate"
	registryUsecase "github.com/tokenward/tokenward/internal/registry/usecase"
)

// moduleState holds the per-module components of the container. Split out so
// di.go stays focused on infrastructure; accessors live in di_registry.go,
// di_account.go and di_broker.go.
type moduleState struct {
	accountRepo     accountUsecase.AccountRepository
	accountUseCase  accountUsecase.AccountUseCase
	delegateModule  *delegate.Module
	registryRepo    registryUsecase.RecordRepository
	registryUseCase registryUsecase.RegistryUseCase
	brokerUseCase   brokerUsecase.BrokerUseCase
	brokerHandler   *brokerHTTP.BrokerHandler

	accountRepoInit     sync.Once
	accountUseCaseInit  sync.Once
	delegateModuleInit  sync.Once
	registryRepoInit    sync.Once
	registryUseCaseInit sync.Once
	brokerUseCaseInit   sync.Once
	brokerHandlerInit   sync.Once
}
