package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
	registryUseCase "github.com/tokenward/tokenward/internal/registry/usecase"
)

// statusOutput is the CLI projection of a token's registry and ledger state.
type statusOutput struct {
	TokenID             uint64    `json:"token_id"`
	State               string    `json:"state"`
	CurrentHolder       string    `json:"current_holder"`
	BoundAccount        string    `json:"bound_account"`
	ConfirmedController string    `json:"confirmed_controller"`
	LastConfirmedAt     time.Time `json:"last_confirmed_at"`
	PendingClaim        bool      `json:"pending_claim"`
	InClaimWindow       bool      `json:"in_claim_window"`
}

// RunStatus shows the registry and ledger state for one token. The pending
// claim flag comes from a live ledger read, never from stored state.
func RunStatus(
	ctx context.Context,
	registry registryUseCase.RegistryUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tokenID uint64,
	format string,
) error {
	logger.Info("querying token status", slog.Uint64("token_id", tokenID))

	status, err := registry.Status(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to query token status: %w", err)
	}

	if format == "json" {
		outputJSON(mapStatusOutput(status), writer)
	} else {
		outputStatusText(status, writer)
	}

	return nil
}

// mapStatusOutput converts a domain status to its CLI projection.
func mapStatusOutput(status *registryDomain.TokenStatus) statusOutput {
	return statusOutput{
		TokenID:             status.TokenID,
		State:               string(status.State),
		CurrentHolder:       status.CurrentHolder.Hex(),
		BoundAccount:        status.BoundAccount.Hex(),
		ConfirmedController: status.ConfirmedController.Hex(),
		LastConfirmedAt:     status.LastConfirmedAt,
		PendingClaim:        status.PendingClaim,
		InClaimWindow:       status.InClaimWindow,
	}
}

// outputStatusText outputs a token status in human-readable text format.
func outputStatusText(status *registryDomain.TokenStatus, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Token ID:             %d\n", status.TokenID)
	_, _ = fmt.Fprintf(writer, "State:                %s\n", status.State)
	_, _ = fmt.Fprintf(writer, "Current holder:       %s\n", status.CurrentHolder.Hex())
	_, _ = fmt.Fprintf(writer, "Bound account:        %s\n", status.BoundAccount.Hex())
	_, _ = fmt.Fprintf(writer, "Confirmed controller: %s\n", status.ConfirmedController.Hex())
	if !status.LastConfirmedAt.IsZero() {
		_, _ = fmt.Fprintf(writer, "Last confirmed at:    %s\n", status.LastConfirmedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(writer, "Pending claim:        %t\n", status.PendingClaim)
	_, _ = fmt.Fprintf(writer, "In claim window:      %t\n", status.InClaimWindow)
}
