package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studydocs/internal/model"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrProfileNotFound  = errors.New("student profile not found")
)

// ProfileLookup finds the student profile linked to a principal. It returns sql.ErrNoRows when
// the principal has no profile.
type ProfileLookup interface {
	FindIDByUserID(ctx context.Context, userID string) (string, error)
}

// Caller is the request-scoped view of an authenticated principal together with its resolved
// owner identity. It is built once per request by Resolver.Resolve and never changes afterwards.
type Caller struct {
	Principal model.Principal

	ownerID  string
	ownerErr error
}

// NewCaller builds a Caller from an already resolved owner identity.
func NewCaller(p model.Principal, ownerID string, ownerErr error) Caller {
	return Caller{Principal: p, ownerID: ownerID, ownerErr: ownerErr}
}

// ID returns the principal's id.
func (c Caller) ID() string { return c.Principal.ID }

// Role returns the principal's role.
func (c Caller) Role() model.Role { return c.Principal.Role }

// OwnerID returns the student identity the caller acts as. It is empty with a nil error for
// roles that do not own documents, and ErrProfileNotFound for a student without a profile.
func (c Caller) OwnerID() (string, error) {
	return c.ownerID, c.ownerErr
}

// Resolver maps principals to owner identities.
type Resolver struct {
	profiles ProfileLookup
}

// NewResolver creates a Resolver backed by the given profile lookup.
func NewResolver(profiles ProfileLookup) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve derives the caller's owner identity with at most one profile lookup.
//
// A student whose profile is missing still gets a Caller; the failure is recorded on it and
// reported by OwnerID so that only operations which need ownership fail. Lookup errors other
// than a missing row are returned directly.
func (r *Resolver) Resolve(ctx context.Context, p model.Principal) (Caller, error) {
	if p.ID == "" || p.Role == "" {
		return Caller{}, ErrNotAuthenticated
	}
	if p.Role != model.RoleStudent {
		return Caller{Principal: p}, nil
	}
	if p.OwnerID != "" {
		return Caller{Principal: p, ownerID: p.OwnerID}, nil
	}

	id, err := r.profiles.FindIDByUserID(ctx, p.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Caller{Principal: p, ownerErr: ErrProfileNotFound}, nil
	case err != nil:
		return Caller{}, fmt.Errorf("resolve student profile: %w", err)
	case id == "":
		return Caller{Principal: p, ownerErr: ErrProfileNotFound}, nil
	}
	return Caller{Principal: p, ownerID: id}, nil
}
