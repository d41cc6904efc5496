// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-migrate/migrate/v4"

	"github.com/tokenward/tokenward/internal/app"
	"github.com/tokenward/tokenward/internal/signer"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// holderAddress derives the token holder address from the configured private
// key. Commands that act as a holder (register, claim) identify the caller
// this way instead of trusting a bare address flag.
func holderAddress(keyHex string) (common.Address, error) {
	if keyHex == "" {
		return common.Address{}, fmt.Errorf("PRIVATE_KEY must be set for holder commands")
	}
	key, err := signer.ParseKey(keyHex)
	if err != nil {
		return common.Address{}, err
	}
	return signer.AddressOf(key), nil
}

// outputJSON writes v as indented JSON for machine consumption.
func outputJSON(v any, writer io.Writer) {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
