// Package integration exercises the full stack over in-process backends:
// in-memory repositories, the in-memory ledger, and a signed fileblob bucket.
package integration

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"

	accountDomain "github.com/tokenward/tokenward/internal/account/domain"
	accountService "github.com/tokenward/tokenward/internal/account/service"
	"github.com/tokenward/tokenward/internal/app"
	"github.com/tokenward/tokenward/internal/config"
	"github.com/tokenward/tokenward/internal/ledger"
	"github.com/tokenward/tokenward/internal/signer"
)

const authorityKeyHex = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

// testEnv is a fully wired application over in-process backends.
type testEnv struct {
	container   *app.Container
	tokenLedger *ledger.MemoryLedger
	handler     http.Handler
	bucket      *blob.Bucket
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	// A signed fileblob bucket lets SignedURL work without a cloud backend.
	// The signing key lives outside the bucket directory so it never shows
	// up in key listings.
	bucketDir := t.TempDir()
	keyPath := filepath.Join(t.TempDir(), "signing.key")
	require.NoError(t, os.WriteFile(keyPath, []byte("integration-signing-key"), 0o600))
	bucketURL := fmt.Sprintf(
		"file://%s?base_url=http://localhost:8080/objects&secret_key_path=%s",
		bucketDir, keyPath,
	)

	cfg := &config.Config{
		LogLevel:         "error",
		ServerHost:       "localhost",
		ServerPort:       8080,
		DBDriver:         "memory",
		StorageBucketURL: bucketURL,
		StorageTimeout:   5 * time.Second,
		PresignTTL:       time.Hour,
		ReplayWindow:     5 * time.Minute,
		ClaimWindow:      time.Hour,
		LedgerTimeout:    5 * time.Second,
		AuthorityKey:     authorityKeyHex,
		MetricsNamespace: "tokenward",
	}

	container := app.NewContainer(cfg)
	t.Cleanup(func() {
		require.NoError(t, container.Shutdown(context.Background()))
	})

	tokenLedger, err := container.Ledger()
	require.NoError(t, err)
	memLedger, ok := tokenLedger.(*ledger.MemoryLedger)
	require.True(t, ok, "expected the in-memory ledger when no contract is configured")

	server, err := container.HTTPServer()
	require.NoError(t, err)

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })

	return &testEnv{
		container:   container,
		tokenLedger: memLedger,
		handler:     server.GetHandler(),
		bucket:      bucket,
	}
}

// newKey generates a throwaway keypair.
func newKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

// TestOwnershipTransferFlow walks the whole trust-transfer lifecycle:
// register, use, transfer on the ledger, claim, and lockout of the seller.
func TestOwnershipTransferFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const tokenID = uint64(42)
	_, seller := newKey(t)
	_, buyer := newKey(t)

	env.tokenLedger.SetHolder(tokenID, seller)

	accounts, err := env.container.AccountUseCase()
	require.NoError(t, err)
	registry, err := env.container.RegistryUseCase()
	require.NoError(t, err)
	module, err := env.container.DelegateModule()
	require.NoError(t, err)
	guard, err := env.container.ClaimGuard()
	require.NoError(t, err)

	// Seller sets up the executable account and binds the token to it.
	account := common.HexToAddress("0x00000000000000000000000000000000c0ffee42")
	_, err = accounts.Create(ctx, account, seller)
	require.NoError(t, err)
	require.NoError(t, accounts.InstallDelegate(
		ctx, seller, account, module, env.container.AuthorityAddress().Bytes(),
	))

	record, err := registry.Register(ctx, seller, tokenID, account)
	require.NoError(t, err)
	assert.Equal(t, seller, record.ConfirmedController)

	// Seller controls the account directly.
	instruction := accountDomain.Instruction{
		Target: common.HexToAddress("0x00000000000000000000000000000000000000ee"),
		Value:  big.NewInt(0),
		Data:   []byte{0x01},
	}
	_, err = accounts.Execute(ctx, seller, account, instruction)
	require.NoError(t, err)
	require.NoError(t, guard.Check(ctx, tokenID))

	// The token changes hands on the ledger, outside this system.
	env.tokenLedger.SetHolder(tokenID, buyer)

	pending, err := registry.IsPendingClaim(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, pending)
	assert.ErrorIs(t, guard.Check(ctx, tokenID), accountService.ErrClaimPending)

	// The buyer cannot act until the claim lands.
	_, err = accounts.Execute(ctx, buyer, account, instruction)
	require.Error(t, err)

	record, err = registry.Claim(ctx, buyer, tokenID)
	require.NoError(t, err)
	assert.Equal(t, buyer, record.ConfirmedController)

	storedAccount, err := accounts.Get(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, buyer, storedAccount.Controller)

	// The seller is locked out; the buyer is in control.
	_, err = accounts.Execute(ctx, seller, account, instruction)
	require.Error(t, err)
	_, err = accounts.Execute(ctx, buyer, account, instruction)
	require.NoError(t, err)

	pending, err = registry.IsPendingClaim(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, pending)
	require.NoError(t, guard.Check(ctx, tokenID))
}

// presignRequest mirrors the broker's presign request body.
type presignRequest struct {
	ResourceID string   `json:"resource_id"`
	TokenID    uint64   `json:"token_id"`
	Action     string   `json:"action"`
	ObjectKeys []string `json:"object_keys,omitempty"`
	Timestamp  int64    `json:"timestamp"`
	Signature  string   `json:"signature"`
}

// presignResponse mirrors the broker's presign response body.
type presignResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	URLs      struct {
		Manifest string            `json:"manifest"`
		Report   string            `json:"report"`
		Objects  map[string]string `json:"objects"`
	} `json:"urls"`
}

// signedPresignRequest builds and signs a presign request as key's owner.
func signedPresignRequest(
	t *testing.T,
	key *ecdsa.PrivateKey,
	resourceID, action string,
	tokenID uint64,
	timestamp int64,
	objectKeys []string,
) presignRequest {
	t.Helper()

	message := signer.CanonicalMessage(resourceID, action, tokenID, timestamp)
	signature, err := signer.Sign(message, key)
	require.NoError(t, err)

	return presignRequest{
		ResourceID: resourceID,
		TokenID:    tokenID,
		Action:     action,
		ObjectKeys: objectKeys,
		Timestamp:  timestamp,
		Signature:  signature,
	}
}

// postPresign submits a presign request to the broker API.
func postPresign(t *testing.T, handler http.Handler, request presignRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(request)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/presign", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestPresignFlow drives the broker API end to end against the in-memory
// ledger and a signed fileblob bucket.
func TestPresignFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const (
		tokenID    = uint64(42)
		resourceID = "t42/ancestor-archive"
	)
	holderKey, holder := newKey(t)
	env.tokenLedger.SetHolder(tokenID, holder)

	seed := []string{
		"resources/t42/ancestor-archive/manifest.json",
		"resources/t42/ancestor-archive/report.json",
		"resources/t42/ancestor-archive/objects/photo.jpg",
		"resources/t42/ancestor-archive/objects/letters/january.txt",
	}
	for _, key := range seed {
		require.NoError(t, env.bucket.WriteAll(ctx, key, []byte("data"), nil))
	}

	t.Run("read grants urls for every object", func(t *testing.T) {
		request := signedPresignRequest(t, holderKey, resourceID, "read", tokenID, time.Now().Unix(), nil)
		rec := postPresign(t, env.handler, request)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var response presignResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Contains(t, response.URLs.Manifest, "http://localhost:8080/objects")
		assert.NotEmpty(t, response.URLs.Report)
		require.Len(t, response.URLs.Objects, 2)
		assert.NotEmpty(t, response.URLs.Objects["photo.jpg"])
		assert.NotEmpty(t, response.URLs.Objects["letters/january.txt"])
		assert.True(t, response.ExpiresAt.After(time.Now()))
	})

	t.Run("write grants urls for the named objects", func(t *testing.T) {
		request := signedPresignRequest(
			t, holderKey, resourceID, "write", tokenID, time.Now().Unix(), []string{"new.bin"},
		)
		rec := postPresign(t, env.handler, request)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var response presignResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.Len(t, response.URLs.Objects, 1)
		assert.NotEmpty(t, response.URLs.Objects["new.bin"])
	})

	t.Run("write without object keys is rejected", func(t *testing.T) {
		request := signedPresignRequest(t, holderKey, resourceID, "write", tokenID, time.Now().Unix(), nil)
		rec := postPresign(t, env.handler, request)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-holder signature is refused", func(t *testing.T) {
		strangerKey, _ := newKey(t)
		request := signedPresignRequest(t, strangerKey, resourceID, "read", tokenID, time.Now().Unix(), nil)
		rec := postPresign(t, env.handler, request)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("stale timestamp is refused", func(t *testing.T) {
		stale := time.Now().Add(-10 * time.Minute).Unix()
		request := signedPresignRequest(t, holderKey, resourceID, "read", tokenID, stale, nil)
		rec := postPresign(t, env.handler, request)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ownership transfer cuts off the old holder", func(t *testing.T) {
		_, buyer := newKey(t)
		env.tokenLedger.SetHolder(tokenID, buyer)
		t.Cleanup(func() { env.tokenLedger.SetHolder(tokenID, holder) })

		request := signedPresignRequest(t, holderKey, resourceID, "read", tokenID, time.Now().Unix(), nil)
		rec := postPresign(t, env.handler, request)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("status reports live ownership", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/status/t42/ancestor-archive", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var response map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, resourceID, response["resource_id"])
		assert.Equal(t, "unregistered", response["state"])
		assert.Equal(t, holder.Hex(), response["current_holder"])
	})
}
