package app

import (
	"fmt"

	sessionRepository "github.com/opentab/gatekeeper/internal/session/repository"
	sessionUseCase "github.com/opentab/gatekeeper/internal/session/usecase"
)

// SessionRepository returns the session repository based on database driver.
func (c *Container) SessionRepository() (sessionUseCase.SessionRepository, error) {
	var err error
	c.sessionRepoInit.Do(func() {
		c.sessionRepo, err = c.initSessionRepository()
		if err != nil {
			c.initErrors["sessionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionRepo"]; exists {
		return nil, storedErr
	}
	return c.sessionRepo, nil
}

// SessionUseCase returns the session lifecycle use case.
func (c *Container) SessionUseCase() (sessionUseCase.SessionUseCase, error) {
	var err error
	c.sessionUCInit.Do(func() {
		c.sessionUC, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUC, nil
}

// initSessionRepository creates the session repository based on the database driver.
func (c *Container) initSessionRepository() (sessionUseCase.SessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for session repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return sessionRepository.NewPostgreSQLSessionRepository(db), nil
	case "mysql":
		return sessionRepository.NewMySQLSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSessionUseCase creates the session use case with all its dependencies.
// Revocation events are broadcast on the shared ephemeral store's pub/sub
// channel.
func (c *Container) initSessionUseCase() (sessionUseCase.SessionUseCase, error) {
	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for session use case: %w", err)
	}

	return sessionUseCase.NewSessionUseCase(
		sessionRepo,
		c.CacheStore(),
		c.config.SessionTouchThrottle,
		c.Logger(),
	), nil
}
