package http

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	authDomain "github.com/opentab/gatekeeper/internal/auth/domain"
	authUseCase "github.com/opentab/gatekeeper/internal/auth/usecase"
	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	capabilityUseCase "github.com/opentab/gatekeeper/internal/capability/usecase"
	"github.com/opentab/gatekeeper/internal/httputil"
	ratelimitUseCase "github.com/opentab/gatekeeper/internal/ratelimit/usecase"
)

// TenantHeader is the optional header binding a request to a tenant scope.
// When present it must match the credential's tenant.
const TenantHeader = "X-Tenant-Id"

// AuthenticationMiddleware resolves the bearer credential to an identity.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Runs the full credential checks via AuthUseCase.Authenticate()
// 3. Stores the resulting identity in the request context for GetIdentity()
//
// Error handling:
//   - Missing/malformed Authorization header → 401 Unauthorized
//   - Invalid, expired, superseded, or denied credential → 401 Unauthorized
//   - Revoked, expired, or idle session → 401 Unauthorized
//   - Inactive principal → 403 Forbidden
func AuthenticationMiddleware(
	authUC authUseCase.AuthUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, logger)
			c.Abort()
			return
		}

		bearerToken := authHeader[len(bearerPrefix):]
		if bearerToken == "" {
			httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, logger)
			c.Abort()
			return
		}

		identity, err := authUC.Authenticate(c.Request.Context(), bearerToken)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// TenantScopeMiddleware requires the tenant header on every authenticated
// request and rejects it when it disagrees with the credential's tenant.
// Must run after AuthenticationMiddleware.
func TenantScopeMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, logger)
			c.Abort()
			return
		}

		header := c.GetHeader(TenantHeader)
		if header == "" {
			httputil.HandleErrorGin(c, authDomain.ErrMissingTenantHeader, logger)
			c.Abort()
			return
		}

		if header != identity.Principal.TenantID.String() {
			logger.Warn("tenant scope violation",
				slog.String("principal_id", identity.Principal.ID.String()),
				slog.String("credential_tenant", identity.Principal.TenantID.String()),
				slog.String("requested_tenant", header),
			)
			httputil.HandleErrorGin(c, authDomain.ErrTenantMismatch, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CapabilityMiddleware enforces the tier gate for a high-risk action and
// records the decision to the audit trail. Must run after
// AuthenticationMiddleware.
//
// Error handling:
//   - No identity in context → 401 Unauthorized (AuthenticationMiddleware not run)
//   - Insufficient tier → 403 Forbidden
//   - Unknown action → 422 Unprocessable Entity (a wiring defect, not a client error)
func CapabilityMiddleware(
	capabilityUC capabilityUseCase.CapabilityUseCase,
	action capabilityDomain.Action,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, logger)
			c.Abort()
			return
		}

		err := capabilityUC.Authorize(c.Request.Context(), &capabilityUseCase.AuthorizeInput{
			Principal:     identity.Principal,
			Action:        action,
			ResourceID:    c.Param("id"),
			CorrelationID: requestid.Get(c),
		})
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// AddressRateLimitMiddleware applies only the per-address window. Used on
// routes that run before authentication, where no tenant is known yet.
func AddressRateLimitMiddleware(
	rateLimitUC ratelimitUseCase.RateLimitUseCase,
	route string,
	trustForwarded bool,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		sourceAddress := httputil.ClientIP(c.Request, trustForwarded)
		if err := rateLimitUC.AdmitAddress(c.Request.Context(), sourceAddress, route); err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimitMiddleware applies the tenant-plan and per-address windows to a
// route. Must run after AuthenticationMiddleware. Rejections carry a
// Retry-After header via the central error mapping.
func RateLimitMiddleware(
	rateLimitUC ratelimitUseCase.RateLimitUseCase,
	route string,
	trustForwarded bool,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, authDomain.ErrMissingCredential, logger)
			c.Abort()
			return
		}

		sourceAddress := httputil.ClientIP(c.Request, trustForwarded)
		err := rateLimitUC.Admit(c.Request.Context(), identity.Principal.TenantID, sourceAddress, route)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
