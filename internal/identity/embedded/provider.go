// Package embedded is a self-contained identity provider used for local
// development and integration testing, backed by Postgres and HS256 tokens.
// It honors the same boundary contract as the remote provider, including
// the structured error codes, so everything above it is exercised
// identically in both modes.
package embedded

import (
	"context"
	"database/sql"
	"net/mail"
	"time"

	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var _ identity.Provider = (*Provider)(nil)

type Provider struct {
	repo   *identityRepo
	signer *tokenSigner
	logger *zap.Logger
}

func New(db *sql.DB, secret, issuer string, tokenTTL time.Duration, logger *zap.Logger) *Provider {
	return &Provider{
		repo:   newIdentityRepo(db, logger),
		signer: newTokenSigner(secret, issuer, tokenTTL),
		logger: logger,
	}
}

func (p *Provider) CreateIdentity(ctx context.Context, email, password string, identityID id.IdentityID) (*identity.Record, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, identity.NewProviderError(identity.CodeInvalidEmail, "email address is malformed")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error("failed to hash password", zap.Error(err))
		return nil, identity.NewProviderError(identity.CodeUnavailable, "could not process credentials")
	}

	return p.repo.create(ctx, identityID, email, string(hashed))
}

func (p *Provider) VerifyToken(ctx context.Context, token string) (*identity.Token, error) {
	claims, err := p.signer.verify(token)
	if err != nil {
		return nil, identity.NewProviderError(identity.CodeInvalidToken, err.Error())
	}
	return &identity.Token{
		SubjectID: id.IdentityID(claims.Subject),
		Claims:    claims.Custom,
	}, nil
}

func (p *Provider) GetIdentity(ctx context.Context, identityID id.IdentityID) (*identity.Record, error) {
	return p.repo.get(ctx, identityID)
}

func (p *Provider) GetClaims(ctx context.Context, identityID id.IdentityID) (map[string]any, error) {
	return p.repo.getClaims(ctx, identityID)
}

func (p *Provider) SetClaims(ctx context.Context, identityID id.IdentityID, claims map[string]any) error {
	return p.repo.setClaims(ctx, identityID, claims)
}

// IssueToken mints a token for an existing identity, embedding its current
// claim map. Only the embedded provider can do this; in production tokens
// come from the remote provider.
func (p *Provider) IssueToken(ctx context.Context, identityID id.IdentityID) (string, error) {
	if _, err := p.repo.get(ctx, identityID); err != nil {
		return "", err
	}
	custom, err := p.repo.getClaims(ctx, identityID)
	if err != nil {
		return "", err
	}
	token, err := p.signer.sign(identityID, custom)
	if err != nil {
		p.logger.Error("failed to sign token", zap.Error(err))
		return "", identity.NewProviderError(identity.CodeUnavailable, "could not sign token")
	}
	return token, nil
}
