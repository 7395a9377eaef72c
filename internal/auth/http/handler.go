package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/opentab/gatekeeper/internal/auth/domain"
	"github.com/opentab/gatekeeper/internal/auth/http/dto"
	authUseCase "github.com/opentab/gatekeeper/internal/auth/usecase"
	"github.com/opentab/gatekeeper/internal/httputil"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
	customValidation "github.com/opentab/gatekeeper/internal/validation"
)

// AuthHandler handles HTTP requests for the authentication lifecycle.
type AuthHandler struct {
	authUC         authUseCase.AuthUseCase
	trustForwarded bool
	logger         *slog.Logger
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(
	authUC authUseCase.AuthUseCase,
	trustForwarded bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUC:         authUC,
		trustForwarded: trustForwarded,
		logger:         logger,
	}
}

// LoginHandler authenticates a password or PIN and issues a bearer credential.
// POST /v1/login - No authentication required (this is the authentication endpoint).
// Returns 201 Created with the token and its expiry.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.authUC.Login(c.Request.Context(), &authUseCase.LoginInput{
		Login:     req.Login,
		Password:  req.Password,
		Platform:  sessionDomain.Platform(req.Platform),
		Source:    sessionDomain.Source(req.Source),
		IPAddress: httputil.ClientIP(c.Request, h.trustForwarded),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.LoginResponse{
		Token:     output.Token,
		ExpiresAt: output.Session.ExpiresAt,
		Platform:  string(output.Session.Platform),
	})
}

// LogoutHandler terminates the current session and denies its token.
// POST /v1/logout - Requires authentication.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, h.logger)
		return
	}

	if err := h.authUC.Logout(c.Request.Context(), identity); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RevokedResponse{RevokedSessions: 1})
}

// LogoutEverywhereHandler invalidates every credential of the caller.
// POST /v1/logout-everywhere - Requires authentication.
func (h *AuthHandler) LogoutEverywhereHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, h.logger)
		return
	}

	affected, err := h.authUC.LogoutEverywhere(c.Request.Context(), identity)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RevokedResponse{RevokedSessions: affected})
}

// ListSessionsHandler returns the caller's active sessions, newest activity
// first. Token identifiers and credential material are not exposed.
// GET /v1/sessions - Requires authentication.
func (h *AuthHandler) ListSessionsHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, h.logger)
		return
	}

	sessions, err := h.authUC.ListSessions(c.Request.Context(), identity.Principal.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.SessionListResponse{Sessions: make([]dto.SessionResponse, 0, len(sessions))}
	for _, session := range sessions {
		response.Sessions = append(response.Sessions, dto.NewSessionResponse(session))
	}

	c.JSON(http.StatusOK, response)
}
