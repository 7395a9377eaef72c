package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

// PasswordService hashes and verifies login credentials (passwords and PINs)
// using Argon2id.
type PasswordService interface {
	Hash(plain string) (string, error)
	// Compare performs a constant-time comparison between a plain credential
	// and its stored hash.
	Compare(plain string, hash string) bool
}

// passwordService implements PasswordService.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

func (p *passwordService) Hash(plain string) (string, error) {
	hash, err := p.hasher.Hash([]byte(plain))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash credential")
	}
	return hash, nil
}

func (p *passwordService) Compare(plain string, hash string) bool {
	ok, err := p.hasher.Verify([]byte(plain), hash)
	if err != nil {
		return false
	}
	return ok
}

// NewPasswordService creates a PasswordService with the Moderate policy, a
// balance between login latency and hardening.
func NewPasswordService() PasswordService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// Only reachable with an invalid policy constant.
		panic(err)
	}
	return &passwordService{hasher: hasher}
}
