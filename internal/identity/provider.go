package identity

import (
	"context"

	"github.com/opuscm/users/pkg/id"
)

// Record is the provider's view of an identity. Immutable once created.
type Record struct {
	ID    id.IdentityID
	Email string
}

// Token is the result of a successful verification. A Token with an empty
// SubjectID must be treated as a failed verification by callers.
type Token struct {
	SubjectID id.IdentityID
	Claims    map[string]any
}

// Provider is the external identity-provider boundary. Implementations are
// remote services with their own internal consistency; claim writes are
// last-write-wins per identity.
//
// SetClaims replaces the stored claim map wholesale. Callers needing
// additive semantics must read-modify-write upstream.
type Provider interface {
	CreateIdentity(ctx context.Context, email, password string, identityID id.IdentityID) (*Record, error)
	VerifyToken(ctx context.Context, token string) (*Token, error)
	GetIdentity(ctx context.Context, identityID id.IdentityID) (*Record, error)
	GetClaims(ctx context.Context, identityID id.IdentityID) (map[string]any, error)
	SetClaims(ctx context.Context, identityID id.IdentityID, claims map[string]any) error
}
