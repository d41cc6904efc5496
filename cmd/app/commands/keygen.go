package commands

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokenward/tokenward/internal/signer"
)

// keygenOutput carries a freshly generated holder keypair.
type keygenOutput struct {
	PrivateKey string `json:"private_key"`
	Address    string `json:"address"`
}

// RunKeygen generates a new secp256k1 keypair and prints the private key with
// its derived address. The private key is printed once and never stored.
func RunKeygen(writer io.Writer, format string) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	output := keygenOutput{
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		Address:    signer.AddressOf(key).Hex(),
	}

	if format == "json" {
		outputJSON(output, writer)
		return nil
	}

	_, _ = fmt.Fprintf(writer, "Private key: %s\n", output.PrivateKey)
	_, _ = fmt.Fprintf(writer, "Address:     %s\n", output.Address)
	return nil
}
