package user

import (
	"context"

	"github.com/opuscm/users/internal/bus"
	"github.com/opuscm/users/internal/claims"
	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
)

const createdSubject = "user.created"

type createdEvent struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  claims.Role `json:"role"`
}

// Service implements the user-facing operations on top of the provider
// boundary, the claims protocol, and the event bus.
type Service struct {
	provider  identity.Provider
	claims    *claims.Manager
	factory   *Factory
	publisher bus.Publisher
	logger    *zap.Logger
}

func NewService(provider identity.Provider, cm *claims.Manager, factory *Factory, publisher bus.Publisher, logger *zap.Logger) *Service {
	return &Service{
		provider:  provider,
		claims:    cm,
		factory:   factory,
		publisher: publisher,
		logger:    logger,
	}
}

// Register creates the identity at the provider and assigns the default
// role. The two steps are not atomic: when the role write fails the identity
// still exists with no persisted role until a later write, and registration
// succeeds anyway. A creation failure is classified for the caller and the
// returned User is the zero-value view.
func (s *Service) Register(ctx context.Context, email, password string) (User, error) {
	identityID := id.NewIdentityID()

	rec, err := s.provider.CreateIdentity(ctx, email, password, identityID)
	if err != nil {
		s.logger.Warn("identity creation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return s.factory.BuildUser(ctx, nil), identity.Classify(err)
	}

	if ok := s.claims.SetRole(ctx, rec.ID, claims.RoleProjectUser); !ok {
		s.logger.Warn("default role assignment failed, identity left without a role",
			zap.String("identity_id", rec.ID.String()),
		)
	}

	u := s.factory.BuildUser(ctx, rec)

	s.publisher.Publish(createdSubject, createdEvent{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
	})

	return u, nil
}

// Me resolves the user view for a verified subject id.
func (s *Service) Me(ctx context.Context, subjectID id.IdentityID) (User, error) {
	rec, err := s.provider.GetIdentity(ctx, subjectID)
	if err != nil {
		return User{}, identity.Classify(err)
	}
	return s.factory.BuildUser(ctx, rec), nil
}

// AssignRole writes a role claim. The enumeration is enforced here, at the
// write boundary only; the soft-fail boolean of the claims protocol is
// passed through untouched.
func (s *Service) AssignRole(ctx context.Context, identityID id.IdentityID, role claims.Role) bool {
	if !role.Known() {
		s.logger.Warn("refusing to assign unknown role",
			zap.String("identity_id", identityID.String()),
			zap.String("role", string(role)),
		)
		return false
	}
	return s.claims.SetRole(ctx, identityID, role)
}

// RoleOf reports the current role of an identity, applying the default when
// none is set.
func (s *Service) RoleOf(ctx context.Context, identityID id.IdentityID) (claims.Role, error) {
	cl, err := s.claims.GetClaims(ctx, identityID)
	if err != nil {
		return "", identity.Classify(err)
	}
	return cl.Role, nil
}
