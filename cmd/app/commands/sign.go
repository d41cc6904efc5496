package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/tokenward/tokenward/internal/signer"
)

// signOutput carries a signed presign request ready to submit to the broker.
type signOutput struct {
	ResourceID string `json:"resource_id"`
	TokenID    uint64 `json:"token_id"`
	Action     string `json:"action"`
	Timestamp  int64  `json:"timestamp"`
	Signature  string `json:"signature"`
	Signer     string `json:"signer"`
}

// RunSign signs the canonical presign request message with the configured
// private key. The output fields map one to one onto the broker's presign
// request body. A zero timestamp means "now".
func RunSign(
	writer io.Writer,
	keyHex string,
	resourceID string,
	action string,
	tokenID uint64,
	timestamp int64,
	format string,
) error {
	if keyHex == "" {
		return fmt.Errorf("PRIVATE_KEY must be set to sign requests")
	}
	if action != "read" && action != "write" {
		return fmt.Errorf("invalid action: %s (valid options: read, write)", action)
	}

	key, err := signer.ParseKey(keyHex)
	if err != nil {
		return err
	}

	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	message := signer.CanonicalMessage(resourceID, action, tokenID, timestamp)
	signature, err := signer.Sign(message, key)
	if err != nil {
		return err
	}

	output := signOutput{
		ResourceID: resourceID,
		TokenID:    tokenID,
		Action:     action,
		Timestamp:  timestamp,
		Signature:  signature,
		Signer:     signer.AddressOf(key).Hex(),
	}

	if format == "json" {
		outputJSON(output, writer)
		return nil
	}

	_, _ = fmt.Fprintf(writer, "Resource ID: %s\n", output.ResourceID)
	_, _ = fmt.Fprintf(writer, "Token ID:    %d\n", output.TokenID)
	_, _ = fmt.Fprintf(writer, "Action:      %s\n", output.Action)
	_, _ = fmt.Fprintf(writer, "Timestamp:   %d\n", output.Timestamp)
	_, _ = fmt.Fprintf(writer, "Signature:   %s\n", output.Signature)
	_, _ = fmt.Fprintf(writer, "Signer:      %s\n", output.Signer)
	return nil
}
