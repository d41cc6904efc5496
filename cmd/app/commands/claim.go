package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	registryUseCase "github.com/tokenward/tokenward/internal/registry/usecase"
)

// RunClaim transfers control of a bound account to the token's current
// holder, identified by the configured private key. The controller change
// travels through the delegate module installed at registration.
//
// Requirements: Database must be migrated, PRIVATE_KEY must be set, and the
// registry must hold the authority key the delegate module was installed with.
func RunClaim(
	ctx context.Context,
	registry registryUseCase.RegistryUseCase,
	logger *slog.Logger,
	writer io.Writer,
	keyHex string,
	tokenID uint64,
	format string,
) error {
	holder, err := holderAddress(keyHex)
	if err != nil {
		return err
	}

	logger.Info("claiming token",
		slog.Uint64("token_id", tokenID),
		slog.String("holder", holder.Hex()),
	)

	record, err := registry.Claim(ctx, holder, tokenID)
	if err != nil {
		return fmt.Errorf("failed to claim token: %w", err)
	}

	if format == "json" {
		outputJSON(mapRecordOutput(record), writer)
	} else {
		outputRecordText(record, writer)
	}

	logger.Info("token claimed successfully",
		slog.Uint64("token_id", record.TokenID),
		slog.String("confirmed_controller", record.ConfirmedController.Hex()),
	)

	return nil
}
