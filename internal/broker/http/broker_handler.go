// Package http provides HTTP handlers for the credential broker. The broker
// endpoints are unauthenticated at the transport level: authorization is the
// signature inside the request body, verified against live ledger ownership.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tokenward/tokenward/internal/broker/http/dto"
	brokerUseCase "github.com/tokenward/tokenward/internal/broker/usecase"
	"github.com/tokenward/tokenward/internal/httputil"
	customValidation "github.com/tokenward/tokenward/internal/validation"
)

// BrokerHandler handles HTTP requests for credential issuance and status.
type BrokerHandler struct {
	brokerUseCase brokerUseCase.BrokerUseCase
	logger        *slog.Logger
}

// NewBrokerHandler creates a new broker handler with required dependencies.
func NewBrokerHandler(useCase brokerUseCase.BrokerUseCase, logger *slog.Logger) *BrokerHandler {
	return &BrokerHandler{
		brokerUseCase: useCase,
		logger:        logger,
	}
}

// PresignHandler verifies a signed access request and issues presigned URLs.
// POST /v1/presign
// Returns 200 OK with the credential set, or the error class mapped by httputil.
func (h *BrokerHandler) PresignHandler(c *gin.Context) {
	var req dto.PresignRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	request, err := req.ToDomain()
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	credential, err := h.brokerUseCase.Presign(c.Request.Context(), request)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapCredentialToResponse(credential)
	c.JSON(http.StatusOK, response)
}

// StatusHandler returns the public ownership projection for a resource.
// GET /v1/status/*resource - the wildcard is needed because resource IDs
// contain a slash ("t<tokenID>/<slug>").
// Returns 200 OK with the projection.
func (h *BrokerHandler) StatusHandler(c *gin.Context) {
	resourceID := strings.TrimPrefix(c.Param("resource"), "/")
	if resourceID == "" {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("resource id cannot be empty"),
			h.logger,
		)
		return
	}

	status, err := h.brokerUseCase.Status(c.Request.Context(), resourceID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapStatusToResponse(status)
	c.JSON(http.StatusOK, response)
}
