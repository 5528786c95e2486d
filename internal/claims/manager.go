package claims

import (
	"context"

	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
)

// Role is the authorization level carried by an identity's "role" claim.
// Exactly one role is authoritative per identity: the most recently written
// claim, or RoleProjectUser when none was ever set.
type Role string

const (
	RoleProjectUser  Role = "PROJECT_USER"
	RoleProjectAdmin Role = "PROJECT_ADMIN"
)

// Known reports whether r is part of the enumeration. Only the write path
// consults it; reads pass stored values through unchecked.
func (r Role) Known() bool {
	switch r {
	case RoleProjectUser, RoleProjectAdmin:
		return true
	}
	return false
}

const roleClaim = "role"

// Claims is the normalized view of an identity's claim map. Only the role
// claim is interpreted by this service.
type Claims struct {
	Role Role
}

// Manager owns the read/write protocol for the role claim.
type Manager struct {
	provider identity.Provider
	logger   *zap.Logger
}

func NewManager(provider identity.Provider, logger *zap.Logger) *Manager {
	return &Manager{provider: provider, logger: logger}
}

// SetRole writes the role claim via read-merge-write so unrelated claims set
// by other subsystems survive (the provider's SetClaims replaces the whole
// map). A provider failure is reported as false, not an error: registration
// flows decide for themselves whether a missing role is fatal.
func (m *Manager) SetRole(ctx context.Context, identityID id.IdentityID, role Role) bool {
	current, err := m.provider.GetClaims(ctx, identityID)
	if err != nil {
		m.logger.Warn("failed to read claims before role write",
			zap.String("identity_id", identityID.String()),
			zap.Error(err),
		)
		return false
	}

	merged := make(map[string]any, len(current)+1)
	for k, v := range current {
		merged[k] = v
	}
	merged[roleClaim] = string(role)

	if err := m.provider.SetClaims(ctx, identityID, merged); err != nil {
		m.logger.Warn("failed to write role claim",
			zap.String("identity_id", identityID.String()),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// GetClaims fetches the raw claim map and normalizes it. An absent map and
// an absent role claim both resolve to the default role. Stored values are
// not validated against the enumeration.
func (m *Manager) GetClaims(ctx context.Context, identityID id.IdentityID) (Claims, error) {
	raw, err := m.provider.GetClaims(ctx, identityID)
	if err != nil {
		return Claims{}, err
	}
	return Normalize(raw), nil
}

// Normalize resolves a raw claim map to its role, applying the default when
// the role claim is absent or not a string.
func Normalize(raw map[string]any) Claims {
	if raw == nil {
		return Claims{Role: RoleProjectUser}
	}
	role, ok := raw[roleClaim].(string)
	if !ok || role == "" {
		return Claims{Role: RoleProjectUser}
	}
	return Claims{Role: Role(role)}
}
