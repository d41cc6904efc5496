package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brokerDomain "github.com/tokenward/tokenward/internal/broker/domain"
	"github.com/tokenward/tokenward/internal/broker/http/dto"
	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// fakeBrokerUseCase returns canned results and records the last request.
type fakeBrokerUseCase struct {
	credential  *brokerDomain.IssuedCredential
	status      *brokerDomain.ResourceStatus
	err         error
	lastRequest *brokerDomain.AccessRequest
	lastStatus  string
}

func (f *fakeBrokerUseCase) Presign(
	ctx context.Context,
	request *brokerDomain.AccessRequest,
) (*brokerDomain.IssuedCredential, error) {
	f.lastRequest = request
	if f.err != nil {
		return nil, f.err
	}
	return f.credential, nil
}

func (f *fakeBrokerUseCase) Status(ctx context.Context, resourceID string) (*brokerDomain.ResourceStatus, error) {
	f.lastStatus = resourceID
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func setupTestHandler(t *testing.T) (*BrokerHandler, *fakeBrokerUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	useCase := &fakeBrokerUseCase{}
	handler := NewBrokerHandler(useCase, slog.New(slog.DiscardHandler))
	return handler, useCase
}

func createTestContext(t *testing.T, method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func validPresignRequest() dto.PresignRequest {
	return dto.PresignRequest{
		ResourceID: "t42/ancestor-archive",
		TokenID:    42,
		Action:     "read",
		Timestamp:  time.Now().Unix(),
		Signature:  "0x" + repeatHex(130),
	}
}

func repeatHex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestBrokerHandler_PresignHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, useCase := setupTestHandler(t)
		expiresAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
		useCase.credential = &brokerDomain.IssuedCredential{
			ExpiresAt: expiresAt,
			URLs: brokerDomain.CredentialURLs{
				Manifest: "https://storage.test/manifest",
				Report:   "https://storage.test/report",
				Objects:  map[string]string{"photo.jpg": "https://storage.test/photo"},
			},
		}

		c, w := createTestContext(t, http.MethodPost, "/v1/presign", validPresignRequest())
		handler.PresignHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.PresignResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "https://storage.test/manifest", response.URLs.Manifest)
		assert.Equal(t, "https://storage.test/report", response.URLs.Report)
		assert.Equal(t, "https://storage.test/photo", response.URLs.Objects["photo.jpg"])
		assert.True(t, expiresAt.Equal(response.ExpiresAt))

		require.NotNil(t, useCase.lastRequest)
		assert.Equal(t, brokerDomain.ActionRead, useCase.lastRequest.Action)
		assert.Equal(t, uint64(42), useCase.lastRequest.TokenID)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(t, http.MethodPost, "/v1/presign", nil)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/presign", bytes.NewReader([]byte("{not json")))

		handler.PresignHandler(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_ValidationFailures", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*dto.PresignRequest)
		}{
			{"bad resource id", func(r *dto.PresignRequest) { r.ResourceID = "archive" }},
			{"bad action", func(r *dto.PresignRequest) { r.Action = "delete" }},
			{"bad signature", func(r *dto.PresignRequest) { r.Signature = "0xdead" }},
			{"traversal object key", func(r *dto.PresignRequest) {
				r.Action = "write"
				r.ObjectKeys = []string{"../escape"}
			}},
			{"missing timestamp", func(r *dto.PresignRequest) { r.Timestamp = 0 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				handler, useCase := setupTestHandler(t)

				request := validPresignRequest()
				tt.mutate(&request)

				c, w := createTestContext(t, http.MethodPost, "/v1/presign", request)
				handler.PresignHandler(c)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Nil(t, useCase.lastRequest)
			})
		}
	})

	t.Run("Error_SignerNotHolder", func(t *testing.T) {
		handler, useCase := setupTestHandler(t)
		useCase.err = brokerDomain.ErrSignerNotHolder

		c, w := createTestContext(t, http.MethodPost, "/v1/presign", validPresignRequest())
		handler.PresignHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_StaleTimestamp", func(t *testing.T) {
		handler, useCase := setupTestHandler(t)
		useCase.err = brokerDomain.ErrStaleTimestamp

		c, w := createTestContext(t, http.MethodPost, "/v1/presign", validPresignRequest())
		handler.PresignHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_LedgerUnavailable", func(t *testing.T) {
		handler, useCase := setupTestHandler(t)
		useCase.err = apperrors.Wrap(apperrors.ErrUnavailable, "ledger down")

		c, w := createTestContext(t, http.MethodPost, "/v1/presign", validPresignRequest())
		handler.PresignHandler(c)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestBrokerHandler_StatusHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, useCase := setupTestHandler(t)
		useCase.status = &brokerDomain.ResourceStatus{
			ResourceID:    "t42/ancestor-archive",
			TokenID:       42,
			State:         "pending_claim",
			PendingClaim:  true,
			InClaimWindow: true,
		}

		c, w := createTestContext(t, http.MethodGet, "/v1/status/t42/ancestor-archive", nil)
		c.Params = gin.Params{{Key: "resource", Value: "/t42/ancestor-archive"}}

		handler.StatusHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "t42/ancestor-archive", useCase.lastStatus)

		var response dto.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "pending_claim", response.State)
		assert.True(t, response.PendingClaim)
		assert.True(t, response.InClaimWindow)
	})

	t.Run("Error_EmptyResource", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(t, http.MethodGet, "/v1/status/", nil)
		c.Params = gin.Params{{Key: "resource", Value: "/"}}

		handler.StatusHandler(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_UnregisteredToken", func(t *testing.T) {
		handler, useCase := setupTestHandler(t)
		useCase.err = brokerDomain.ErrBadResourceID

		c, w := createTestContext(t, http.MethodGet, "/v1/status/x", nil)
		c.Params = gin.Params{{Key: "resource", Value: "/x"}}

		handler.StatusHandler(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
