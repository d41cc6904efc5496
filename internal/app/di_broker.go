package app

import (
	"fmt"

	brokerHTTP "github.com/tokenward/tokenward/internal/broker/http"
	brokerUsecase "github.com/tokenward/tokenward/internal/broker/usecase"
)

// BrokerUseCase returns the credential broker use case instance, wrapped with
// business metrics when enabled.
func (c *Container) BrokerUseCase() (brokerUsecase.BrokerUseCase, error) {
	var err error
	c.brokerUseCaseInit.Do(func() {
		c.brokerUseCase, err = c.initBrokerUseCase()
		if err != nil {
			c.initErrors["brokerUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["brokerUseCase"]; exists {
		return nil, storedErr
	}
	return c.brokerUseCase, nil
}

// BrokerHandler returns the HTTP handler for credential broker operations.
func (c *Container) BrokerHandler() (*brokerHTTP.BrokerHandler, error) {
	var err error
	c.brokerHandlerInit.Do(func() {
		c.brokerHandler, err = c.initBrokerHandler()
		if err != nil {
			c.initErrors["brokerHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["brokerHandler"]; exists {
		return nil, storedErr
	}
	return c.brokerHandler, nil
}

// initBrokerUseCase creates the broker use case with all its dependencies.
func (c *Container) initBrokerUseCase() (brokerUsecase.BrokerUseCase, error) {
	tokenLedger, err := c.Ledger()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for broker use case: %w", err)
	}

	presigner, err := c.Presigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get presigner for broker use case: %w", err)
	}

	registryUseCase, err := c.RegistryUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry use case for broker use case: %w", err)
	}

	useCase := brokerUsecase.NewBrokerUseCase(
		tokenLedger,
		presigner,
		registryUseCase,
		c.Logger(),
		c.config.PresignTTL,
		c.config.ReplayWindow,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for broker use case: %w", err)
	}

	return brokerUsecase.NewBrokerUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initBrokerHandler creates the broker HTTP handler.
func (c *Container) initBrokerHandler() (*brokerHTTP.BrokerHandler, error) {
	brokerUseCase, err := c.BrokerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get broker use case for broker handler: %w", err)
	}
	return brokerHTTP.NewBrokerHandler(brokerUseCase, c.Logger()), nil
}
