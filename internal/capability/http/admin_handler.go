// Package http provides HTTP handlers for capability-gated administrative
// actions. Every route here runs behind AuthenticationMiddleware and
// CapabilityMiddleware; a request that reaches a handler has already been
// authorized and audited.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/opentab/gatekeeper/internal/auth/domain"
	authHTTP "github.com/opentab/gatekeeper/internal/auth/http"
	authDTO "github.com/opentab/gatekeeper/internal/auth/http/dto"
	authUseCase "github.com/opentab/gatekeeper/internal/auth/usecase"
	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	"github.com/opentab/gatekeeper/internal/capability/http/dto"
	capabilityUseCase "github.com/opentab/gatekeeper/internal/capability/usecase"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
	"github.com/opentab/gatekeeper/internal/httputil"
)

// AdminHandler handles capability-gated administrative endpoints.
type AdminHandler struct {
	authUC       authUseCase.AuthUseCase
	capabilityUC capabilityUseCase.CapabilityUseCase
	logger       *slog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	authUC authUseCase.AuthUseCase,
	capabilityUC capabilityUseCase.CapabilityUseCase,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		authUC:       authUC,
		capabilityUC: capabilityUC,
		logger:       logger,
	}
}

// VoidOrderHandler authorizes voiding a paid order.
// POST /v1/admin/orders/:id/void - Requires manager tier.
func (h *AdminHandler) VoidOrderHandler(c *gin.Context) {
	h.receipt(c, capabilityDomain.ActionVoidPaidOrder)
}

// ReopenPeriodHandler authorizes reopening a closed accounting period.
// POST /v1/admin/periods/:id/reopen - Owner exclusive.
func (h *AdminHandler) ReopenPeriodHandler(c *gin.Context) {
	h.receipt(c, capabilityDomain.ActionReopenPeriod)
}

// PostPayrollHandler authorizes posting a payroll run.
// POST /v1/admin/payroll/:id/post - Requires admin tier.
func (h *AdminHandler) PostPayrollHandler(c *gin.Context) {
	h.receipt(c, capabilityDomain.ActionPostPayroll)
}

// RotateBillingCredentialHandler authorizes rotating the billing credential.
// POST /v1/admin/billing-credential/rotate - Owner exclusive.
func (h *AdminHandler) RotateBillingCredentialHandler(c *gin.Context) {
	h.receipt(c, capabilityDomain.ActionRotateBillingCredential)
}

// receipt acknowledges an action that the capability gate already allowed and
// audited. The control plane decides; the system of record executes.
func (h *AdminHandler) receipt(c *gin.Context, action capabilityDomain.Action) {
	c.JSON(http.StatusOK, dto.ActionReceiptResponse{
		Action:        string(action),
		ResourceID:    c.Param("id"),
		CorrelationID: requestid.Get(c),
		Decision:      string(capabilityDomain.DecisionAllow),
	})
}

// RevokePrincipalSessionsHandler terminates every session of the target
// principal and invalidates its outstanding credentials.
// POST /v1/admin/principals/:id/revoke-sessions - Requires admin tier.
func (h *AdminHandler) RevokePrincipalSessionsHandler(c *gin.Context) {
	identity, ok := authHTTP.GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, h.logger)
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrMalformedRequest, "invalid principal id"), h.logger)
		return
	}

	affected, err := h.authUC.RevokePrincipalSessions(c.Request.Context(), identity, targetID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, authDTO.RevokedResponse{RevokedSessions: affected})
}

// ListAuditEntriesHandler returns the caller tenant's newest authorization
// decisions.
// GET /v1/admin/audit-entries - Requires admin tier.
func (h *AdminHandler) ListAuditEntriesHandler(c *gin.Context) {
	identity, ok := authHTTP.GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, h.logger)
		return
	}

	_, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	entries, err := h.capabilityUC.ListAuditEntries(
		c.Request.Context(), identity.Principal.TenantID, limit,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]authDTO.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, authDTO.NewAuditEntryResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"audit_entries": responses})
}
