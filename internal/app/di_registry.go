package app

import (
	"fmt"

	registryRepository "github.com/tokenward/tokenward/internal/registry/repository"
	registryUsecase "github.com/tokenward/tokenward/internal/registry/usecase"
)

// RegistryRepository returns the ownership record repository instance.
func (c *Container) RegistryRepository() (registryUsecase.RecordRepository, error) {
	var err error
	c.registryRepoInit.Do(func() {
		c.registryRepo, err = c.initRegistryRepository()
		if err != nil {
			c.initErrors["registryRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registryRepo"]; exists {
		return nil, storedErr
	}
	return c.registryRepo, nil
}

// RegistryUseCase returns the registry use case instance, wrapped with
// business metrics when enabled.
func (c *Container) RegistryUseCase() (registryUsecase.RegistryUseCase, error) {
	var err error
	c.registryUseCaseInit.Do(func() {
		c.registryUseCase, err = c.initRegistryUseCase()
		if err != nil {
			c.initErrors["registryUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registryUseCase"]; exists {
		return nil, storedErr
	}
	return c.registryUseCase, nil
}

// initRegistryRepository creates the ownership record repository instance.
func (c *Container) initRegistryRepository() (registryUsecase.RecordRepository, error) {
	if c.config.DBDriver == "memory" {
		return registryRepository.NewMemoryRecordRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for registry repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return registryRepository.NewMySQLRecordRepository(db), nil
	case "postgres":
		return registryRepository.NewPostgreSQLRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRegistryUseCase creates the registry use case with all its dependencies.
func (c *Container) initRegistryUseCase() (registryUsecase.RegistryUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for registry use case: %w", err)
	}

	recordRepo, err := c.RegistryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry repository for registry use case: %w", err)
	}

	tokenLedger, err := c.Ledger()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for registry use case: %w", err)
	}

	forwarder, err := c.DelegateModule()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegate module for registry use case: %w", err)
	}

	publisher, err := c.EventPublisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get event publisher for registry use case: %w", err)
	}

	useCase := registryUsecase.NewRegistryUseCase(
		txManager,
		recordRepo,
		tokenLedger,
		forwarder,
		publisher,
		c.Logger(),
		c.AuthorityAddress(),
		c.config.ClaimWindow,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for registry use case: %w", err)
	}

	return registryUsecase.NewRegistryUseCaseWithMetrics(useCase, businessMetrics), nil
}
