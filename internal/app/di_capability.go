package app

import (
	"fmt"

	capabilityHTTP "github.com/opentab/gatekeeper/internal/capability/http"
	capabilityRepository "github.com/opentab/gatekeeper/internal/capability/repository"
	capabilityUseCase "github.com/opentab/gatekeeper/internal/capability/usecase"
)

// AuditRepository returns the audit trail repository based on database driver.
func (c *Container) AuditRepository() (capabilityUseCase.AuditRepository, error) {
	var err error
	c.auditRepoInit.Do(func() {
		c.auditRepo, err = c.initAuditRepository()
		if err != nil {
			c.initErrors["auditRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// CapabilityUseCase returns the capability authorization use case.
func (c *Container) CapabilityUseCase() (capabilityUseCase.CapabilityUseCase, error) {
	var err error
	c.capabilityUCInit.Do(func() {
		c.capabilityUC, err = c.initCapabilityUseCase()
		if err != nil {
			c.initErrors["capabilityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["capabilityUseCase"]; exists {
		return nil, storedErr
	}
	return c.capabilityUC, nil
}

// AdminHandler returns the HTTP handler for the capability-gated admin surface.
func (c *Container) AdminHandler() (*capabilityHTTP.AdminHandler, error) {
	var err error
	c.adminHandlerInit.Do(func() {
		c.adminHandler, err = c.initAdminHandler()
		if err != nil {
			c.initErrors["adminHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["adminHandler"]; exists {
		return nil, storedErr
	}
	return c.adminHandler, nil
}

// initAuditRepository creates the audit repository based on the database driver.
func (c *Container) initAuditRepository() (capabilityUseCase.AuditRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return capabilityRepository.NewPostgreSQLAuditRepository(db), nil
	case "mysql":
		return capabilityRepository.NewMySQLAuditRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCapabilityUseCase creates the capability use case with all its dependencies.
func (c *Container) initCapabilityUseCase() (capabilityUseCase.CapabilityUseCase, error) {
	auditRepo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for capability use case: %w", err)
	}

	return capabilityUseCase.NewCapabilityUseCase(auditRepo, c.Logger()), nil
}

// initAdminHandler creates the admin handler with all its dependencies.
func (c *Container) initAdminHandler() (*capabilityHTTP.AdminHandler, error) {
	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for admin handler: %w", err)
	}

	capabilityUC, err := c.CapabilityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get capability use case for admin handler: %w", err)
	}

	return capabilityHTTP.NewAdminHandler(authUC, capabilityUC, c.Logger()), nil
}
