package commands

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	accountUseCase "github.com/tokenward/tokenward/internal/account/usecase"
	registryDomain "github.com/tokenward/tokenward/internal/registry/domain"
	registryUseCase "github.com/tokenward/tokenward/internal/registry/usecase"
)

// recordOutput is the CLI projection of an ownership record.
type recordOutput struct {
	TokenID             uint64    `json:"token_id"`
	BoundAccount        string    `json:"bound_account"`
	ConfirmedController string    `json:"confirmed_controller"`
	LastConfirmedAt     time.Time `json:"last_confirmed_at"`
}

// RunRegister binds an ownership token to an executable account. The caller
// is identified by the configured private key and must be the token's current
// holder on the ledger.
//
// When accountHex is empty a fresh account is created, controlled by the
// holder, with the delegate module installed so a future claim can force a
// controller change. When accountHex names an existing account it is bound
// as-is; the account is expected to already carry the delegate module.
//
// Requirements: Database must be migrated, PRIVATE_KEY must be set.
func RunRegister(
	ctx context.Context,
	registry registryUseCase.RegistryUseCase,
	accounts accountUseCase.AccountUseCase,
	module accountUseCase.DelegateModule,
	authority common.Address,
	logger *slog.Logger,
	writer io.Writer,
	keyHex string,
	tokenID uint64,
	accountHex string,
	format string,
) error {
	holder, err := holderAddress(keyHex)
	if err != nil {
		return err
	}

	logger.Info("registering token",
		slog.Uint64("token_id", tokenID),
		slog.String("holder", holder.Hex()),
	)

	var account common.Address
	if accountHex != "" {
		if !common.IsHexAddress(accountHex) {
			return fmt.Errorf("invalid account address: %s", accountHex)
		}
		account = common.HexToAddress(accountHex)
	} else {
		if authority == (common.Address{}) {
			return fmt.Errorf("AUTHORITY_KEY must be set to create an account with the delegate module")
		}

		account = deriveAccountAddress(holder, tokenID)
		if _, err := accounts.Create(ctx, account, holder); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		if err := accounts.InstallDelegate(ctx, holder, account, module, authority.Bytes()); err != nil {
			return fmt.Errorf("failed to install delegate module: %w", err)
		}
	}

	record, err := registry.Register(ctx, holder, tokenID, account)
	if err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}

	if format == "json" {
		outputJSON(mapRecordOutput(record), writer)
	} else {
		outputRecordText(record, writer)
	}

	logger.Info("token registered successfully",
		slog.Uint64("token_id", record.TokenID),
		slog.String("bound_account", record.BoundAccount.Hex()),
	)

	return nil
}

// deriveAccountAddress derives a deterministic account address from the
// holder and token, in the manner of a counterfactual deployment. The same
// holder registering the same token always lands on the same account.
func deriveAccountAddress(holder common.Address, tokenID uint64) common.Address {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], tokenID)
	return common.BytesToAddress(crypto.Keccak256(holder.Bytes(), id[:])[12:])
}

// mapRecordOutput converts a domain record to its CLI projection.
func mapRecordOutput(record *registryDomain.OwnershipRecord) recordOutput {
	return recordOutput{
		TokenID:             record.TokenID,
		BoundAccount:        record.BoundAccount.Hex(),
		ConfirmedController: record.ConfirmedController.Hex(),
		LastConfirmedAt:     record.LastConfirmedAt,
	}
}

// outputRecordText outputs an ownership record in human-readable text format.
func outputRecordText(record *registryDomain.OwnershipRecord, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Token ID:             %d\n", record.TokenID)
	_, _ = fmt.Fprintf(writer, "Bound account:        %s\n", record.BoundAccount.Hex())
	_, _ = fmt.Fprintf(writer, "Confirmed controller: %s\n", record.ConfirmedController.Hex())
	_, _ = fmt.Fprintf(writer, "Last confirmed at:    %s\n", record.LastConfirmedAt.Format(time.RFC3339))
}
