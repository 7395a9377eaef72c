package app

import (
	"fmt"

	authHTTP "github.com/opentab/gatekeeper/internal/auth/http"
	authService "github.com/opentab/gatekeeper/internal/auth/service"
	authUseCase "github.com/opentab/gatekeeper/internal/auth/usecase"
	principalRepository "github.com/opentab/gatekeeper/internal/principal/repository"
	revocationUseCase "github.com/opentab/gatekeeper/internal/revocation/usecase"
)

// CredentialService returns the bearer credential issuing and verification service.
func (c *Container) CredentialService() (authService.CredentialService, error) {
	var err error
	c.credentialServiceInit.Do(func() {
		c.credentialService, err = c.initCredentialService()
		if err != nil {
			c.initErrors["credentialService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialService"]; exists {
		return nil, storedErr
	}
	return c.credentialService, nil
}

// PasswordService returns the password hashing and comparison service.
func (c *Container) PasswordService() authService.PasswordService {
	c.passwordServiceInit.Do(func() {
		c.passwordService = authService.NewPasswordService()
	})
	return c.passwordService
}

// PrincipalRepository returns the principal repository based on database driver.
func (c *Container) PrincipalRepository() (authUseCase.PrincipalRepository, error) {
	repo, err := c.principalStore()
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// RevocationUseCase returns the credential revocation use case.
func (c *Container) RevocationUseCase() (revocationUseCase.RevocationUseCase, error) {
	var err error
	c.revocationUCInit.Do(func() {
		c.revocationUC, err = c.initRevocationUseCase()
		if err != nil {
			c.initErrors["revocationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationUseCase"]; exists {
		return nil, storedErr
	}
	return c.revocationUC, nil
}

// AuthUseCase returns the authentication use case.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	var err error
	c.authUCInit.Do(func() {
		c.authUC, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUC, nil
}

// AuthHandler returns the HTTP handler for authentication operations.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	var err error
	c.authHandlerInit.Do(func() {
		c.authHandler, err = c.initAuthHandler()
		if err != nil {
			c.initErrors["authHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.authHandler, nil
}

// principalStore returns the shared principal repository instance.
func (c *Container) principalStore() (principalStore, error) {
	var err error
	c.principalRepoInit.Do(func() {
		c.principalRepo, err = c.initPrincipalRepository()
		if err != nil {
			c.initErrors["principalRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalRepo"]; exists {
		return nil, storedErr
	}
	return c.principalRepo, nil
}

// initCredentialService creates the bearer credential service. The signing
// secret has no default; a blank value is a deployment error surfaced here
// instead of at the first login.
func (c *Container) initCredentialService() (authService.CredentialService, error) {
	if c.config.JWTSigningSecret == "" {
		return nil, fmt.Errorf("JWT_SIGNING_SECRET is required")
	}
	return authService.NewCredentialService(
		c.config.JWTSigningSecret,
		c.config.JWTIssuer,
		c.config.MaxCredentialLifetime,
	), nil
}

// initPrincipalRepository creates the principal repository based on the database driver.
func (c *Container) initPrincipalRepository() (principalStore, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for principal repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return principalRepository.NewPostgreSQLPrincipalRepository(db), nil
	case "mysql":
		return principalRepository.NewMySQLPrincipalRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRevocationUseCase creates the revocation use case with all its dependencies.
func (c *Container) initRevocationUseCase() (revocationUseCase.RevocationUseCase, error) {
	principalRepo, err := c.principalStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for revocation use case: %w", err)
	}

	// Deny entries must outlive the longest credential they can target.
	return revocationUseCase.NewRevocationUseCase(
		principalRepo,
		c.CacheStore(),
		c.config.MaxCredentialLifetime,
		c.Logger(),
	), nil
}

// initAuthUseCase creates the authentication use case with all its dependencies.
func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	principalRepo, err := c.principalStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for auth use case: %w", err)
	}

	sessionUC, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for auth use case: %w", err)
	}

	revocationUC, err := c.RevocationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation use case for auth use case: %w", err)
	}

	credentialService, err := c.CredentialService()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential service for auth use case: %w", err)
	}

	baseUseCase := authUseCase.NewAuthUseCase(
		principalRepo,
		sessionUC,
		revocationUC,
		credentialService,
		c.PasswordService(),
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
		}
		return authUseCase.NewAuthUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthHandler creates the auth handler with all its dependencies.
func (c *Container) initAuthHandler() (*authHTTP.AuthHandler, error) {
	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for auth handler: %w", err)
	}

	return authHTTP.NewAuthHandler(authUC, c.config.TrustForwardedFor, c.Logger()), nil
}
