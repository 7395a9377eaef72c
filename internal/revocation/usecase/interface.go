// Package usecase implements credential revocation.
//
// Revocation works through two cooperating mechanisms: a per-principal
// session version stamped into every issued credential, and a shared deny
// list of individual token IDs. Bumping the version invalidates every
// outstanding credential of a principal at once; the deny list targets a
// single credential without touching its siblings.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PrincipalVersionRepository is the slice of principal persistence the
// revocation flow needs.
type PrincipalVersionRepository interface {
	CurrentVersion(ctx context.Context, principalID uuid.UUID) (int64, error)
	BumpVersion(ctx context.Context, principalID uuid.UUID) (int64, error)
}

// DenyListStore is the cache surface backing the token deny list.
type DenyListStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RevocationUseCase coordinates credential invalidation.
type RevocationUseCase interface {
	// CurrentVersion returns the principal's live session version. Credentials
	// stamped with an older version are no longer valid.
	CurrentVersion(ctx context.Context, principalID uuid.UUID) (int64, error)

	// BumpVersion invalidates every outstanding credential of the principal by
	// incrementing the session version, and returns the new version.
	BumpVersion(ctx context.Context, principalID uuid.UUID) (int64, error)

	// Deny places a single token ID on the deny list, recording why and when
	// it was denied. The entry outlives the longest possible credential
	// lifetime, so a denied token can never come back.
	Deny(ctx context.Context, tokenID uuid.UUID, reason string) error

	// IsDenied reports whether a token ID is on the deny list. A store outage
	// reports the token as usable; availability wins over strictness here
	// because the session-version check still bounds the damage.
	IsDenied(ctx context.Context, tokenID uuid.UUID) bool
}
