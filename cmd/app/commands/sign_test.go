package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenward/tokenward/internal/signer"
)

func TestRunSign(t *testing.T) {
	t.Run("signature recovers to the holder address", func(t *testing.T) {
		keyHex, holder := newHolderKey(t)

		var out bytes.Buffer
		err := RunSign(&out, keyHex, "t42/ancestor-archive", "read", 42, 1700000000, "json")
		require.NoError(t, err)

		var output signOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &output))
		require.Equal(t, holder.Hex(), output.Signer)
		require.Equal(t, int64(1700000000), output.Timestamp)

		message := signer.CanonicalMessage(output.ResourceID, output.Action, output.TokenID, output.Timestamp)
		recovered, err := signer.RecoverAddress(message, output.Signature)
		require.NoError(t, err)
		require.Equal(t, holder, recovered)
	})

	t.Run("zero timestamp defaults to now", func(t *testing.T) {
		keyHex, _ := newHolderKey(t)

		var out bytes.Buffer
		err := RunSign(&out, keyHex, "t42/ancestor-archive", "write", 42, 0, "json")
		require.NoError(t, err)

		var output signOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &output))
		require.Greater(t, output.Timestamp, int64(0))
	})

	t.Run("invalid action", func(t *testing.T) {
		keyHex, _ := newHolderKey(t)

		var out bytes.Buffer
		err := RunSign(&out, keyHex, "t42/ancestor-archive", "delete", 42, 0, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid action")
	})

	t.Run("missing private key", func(t *testing.T) {
		var out bytes.Buffer
		err := RunSign(&out, "", "t42/ancestor-archive", "read", 42, 0, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "PRIVATE_KEY")
	})
}
