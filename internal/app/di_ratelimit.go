package app

import (
	"fmt"

	ratelimitUseCase "github.com/opentab/gatekeeper/internal/ratelimit/usecase"
	tenantRepository "github.com/opentab/gatekeeper/internal/tenant/repository"
)

// TenantRepository returns the tenant plan repository based on database driver.
func (c *Container) TenantRepository() (ratelimitUseCase.PlanRepository, error) {
	var err error
	c.tenantRepoInit.Do(func() {
		c.tenantRepo, err = c.initTenantRepository()
		if err != nil {
			c.initErrors["tenantRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantRepo"]; exists {
		return nil, storedErr
	}
	return c.tenantRepo, nil
}

// RateLimitUseCase returns the rate limiting use case. When rate limiting is
// disabled a use case that admits every request is returned, so the route
// table stays identical either way.
func (c *Container) RateLimitUseCase() (ratelimitUseCase.RateLimitUseCase, error) {
	var err error
	c.rateLimitUCInit.Do(func() {
		c.rateLimitUC, err = c.initRateLimitUseCase()
		if err != nil {
			c.initErrors["rateLimitUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimitUseCase"]; exists {
		return nil, storedErr
	}
	return c.rateLimitUC, nil
}

// initTenantRepository creates the tenant repository based on the database driver.
func (c *Container) initTenantRepository() (ratelimitUseCase.PlanRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tenant repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return tenantRepository.NewPostgreSQLTenantRepository(db), nil
	case "mysql":
		return tenantRepository.NewMySQLTenantRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRateLimitUseCase creates the rate limit use case with all its dependencies.
func (c *Container) initRateLimitUseCase() (ratelimitUseCase.RateLimitUseCase, error) {
	if !c.config.RateLimitEnabled {
		return ratelimitUseCase.NewNoOpRateLimitUseCase(), nil
	}

	tenantRepo, err := c.TenantRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant repository for rate limit use case: %w", err)
	}

	return ratelimitUseCase.NewRateLimitUseCase(
		tenantRepo,
		c.CacheStore(),
		c.config.RateLimitWindow,
		int64(c.config.RateLimitPerAddress),
		c.Logger(),
	), nil
}
