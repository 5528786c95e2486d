package user

import (
	"context"

	"github.com/opuscm/users/internal/claims"
	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
)

// Factory composes a provider identity record with its current role claim.
type Factory struct {
	claims *claims.Manager
	logger *zap.Logger
}

func NewFactory(cm *claims.Manager, logger *zap.Logger) *Factory {
	return &Factory{claims: cm, logger: logger}
}

// BuildUser joins rec with a live claims read. A nil record yields a
// zero-value user, which lets creation error paths return a User without a
// second branch. The claims read happens unconditionally, even for the
// empty id; a failed read degrades to the default role instead of failing
// the whole construction. Callers must not assume the read is free.
func (f *Factory) BuildUser(ctx context.Context, rec *identity.Record) User {
	u := User{}
	if rec != nil {
		u.ID = rec.ID.String()
		u.Email = rec.Email
	}

	cl, err := f.claims.GetClaims(ctx, id.IdentityID(u.ID))
	if err != nil {
		f.logger.Warn("claims read failed while building user, using default role",
			zap.String("identity_id", u.ID),
			zap.Error(err),
		)
		cl = claims.Claims{Role: claims.RoleProjectUser}
	}
	u.Role = cl.Role
	return u
}
