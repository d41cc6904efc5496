package app

import (
	"fmt"

	accountRepository "github.com/tokenward/tokenward/internal/account/repository"
	accountService "github.com/tokenward/tokenward/internal/account/service"
	accountUsecase "github.com/tokenward/tokenward/internal/account/usecase"
	"github.com/tokenward/tokenward/internal/delegate"
)

// AccountRepository returns the account repository instance.
func (c *Container) AccountRepository() (accountUsecase.AccountRepository, error) {
	var err error
	c.accountRepoInit.Do(func() {
		c.accountRepo, err = c.initAccountRepository()
		if err != nil {
			c.initErrors["accountRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accountRepo"]; exists {
		return nil, storedErr
	}
	return c.accountRepo, nil
}

// AccountUseCase returns the account use case instance.
func (c *Container) AccountUseCase() (accountUsecase.AccountUseCase, error) {
	var err error
	c.accountUseCaseInit.Do(func() {
		c.accountUseCase, err = c.initAccountUseCase()
		if err != nil {
			c.initErrors["accountUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accountUseCase"]; exists {
		return nil, storedErr
	}
	return c.accountUseCase, nil
}

// DelegateModule returns the trusted forwarder module used for claims.
func (c *Container) DelegateModule() (*delegate.Module, error) {
	var err error
	c.delegateModuleInit.Do(func() {
		c.delegateModule, err = c.initDelegateModule()
		if err != nil {
			c.initErrors["delegateModule"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["delegateModule"]; exists {
		return nil, storedErr
	}
	return c.delegateModule, nil
}

// ClaimGuard returns a guard that refuses high-risk operations while the
// backing token has a pending claim.
func (c *Container) ClaimGuard() (*accountService.PendingClaimGuard, error) {
	registryUseCase, err := c.RegistryUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry use case for claim guard: %w", err)
	}
	return accountService.NewPendingClaimGuard(registryUseCase), nil
}

// initAccountRepository creates the account repository instance.
func (c *Container) initAccountRepository() (accountUsecase.AccountRepository, error) {
	if c.config.DBDriver == "memory" {
		return accountRepository.NewMemoryAccountRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for account repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return accountRepository.NewMySQLAccountRepository(db), nil
	case "postgres":
		return accountRepository.NewPostgreSQLAccountRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAccountUseCase creates the account use case with all its dependencies.
func (c *Container) initAccountUseCase() (accountUsecase.AccountUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for account use case: %w", err)
	}

	accountRepo, err := c.AccountRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get account repository for account use case: %w", err)
	}

	publisher, err := c.EventPublisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get event publisher for account use case: %w", err)
	}

	dispatcher := accountService.NewLogDispatcher(c.Logger())

	return accountUsecase.NewAccountUseCase(txManager, accountRepo, dispatcher, publisher, c.Logger()), nil
}

// initDelegateModule creates the delegate module over the account use case.
func (c *Container) initDelegateModule() (*delegate.Module, error) {
	accountUseCase, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for delegate module: %w", err)
	}
	return delegate.NewModule(DelegateModuleAddress, accountUseCase), nil
}
