// Package service provides supporting services for executable accounts.
package service

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
)

// LogDispatcher records outbound instructions without side effects. It stands
// in for an on-chain submitter: targets outside the account have no local
// state to mutate, so the dispatch is logged and acknowledged.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a dispatcher that logs every outbound instruction.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the instruction and returns an empty result.
func (d *LogDispatcher) Dispatch(
	ctx context.Context,
	account common.Address,
	instruction accountDomain.Instruction,
) ([]byte, error) {
	value := "0"
	if instruction.Value != nil {
		value = instruction.Value.String()
	}
	d.logger.Info("dispatching instruction",
		slog.String("account", account.Hex()),
		slog.String("target", instruction.Target.Hex()),
		slog.String("value", value),
		slog.Int("data_size", len(instruction.Data)),
	)
	return nil, nil
}
