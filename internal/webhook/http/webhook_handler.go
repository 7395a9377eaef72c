// Package http provides HTTP handlers for inbound webhook deliveries.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/opentab/gatekeeper/internal/errors"
	"github.com/opentab/gatekeeper/internal/httputil"
	webhookService "github.com/opentab/gatekeeper/internal/webhook/service"
)

// Webhook authentication headers.
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"
	RequestIDHeader = "X-Webhook-Request-Id"
)

// WebhookHandler verifies and acknowledges inbound provider callbacks.
type WebhookHandler struct {
	verifier *webhookService.Verifier
	logger   *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(verifier *webhookService.Verifier, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, logger: logger}
}

// ReceiveHandler authenticates one provider callback and acknowledges it.
// POST /v1/webhooks/:provider - Authenticated by HMAC signature, not bearer token.
//
// The body is read raw before any parsing: the signature covers the exact
// bytes the provider sent.
func (h *WebhookHandler) ReceiveHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrMalformedRequest, "failed to read body"), h.logger)
		return
	}

	req := &webhookService.Request{
		Provider:  c.Param("provider"),
		Signature: c.GetHeader(SignatureHeader),
		Timestamp: c.GetHeader(TimestampHeader),
		RequestID: c.GetHeader(RequestIDHeader),
		Body:      body,
	}

	if err := h.verifier.Verify(c.Request.Context(), req); err != nil {
		h.logger.Warn("webhook rejected",
			slog.String("provider", req.Provider),
			slog.String("request_id", req.RequestID),
			slog.Any("error", err),
		)
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("webhook accepted",
		slog.String("provider", req.Provider),
		slog.String("request_id", req.RequestID),
	)

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
