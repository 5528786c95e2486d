package embedded

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
)

const (
	insertIdentityQuery = `
						INSERT INTO identities (id, email, password_hash)
						VALUES ($1, $2, $3)
						RETURNING id, email
						`
	selectIdentityQuery = `
						SELECT id, email FROM identities WHERE id = $1
						`
	selectClaimsQuery = `
						SELECT claims FROM identities WHERE id = $1
						`
	updateClaimsQuery = `
						UPDATE identities SET claims = $2, updated_at = now() WHERE id = $1
						`
)

type identityRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func newIdentityRepo(db *sql.DB, logger *zap.Logger) *identityRepo {
	return &identityRepo{db: db, logger: logger}
}

func (r *identityRepo) create(ctx context.Context, identityID id.IdentityID, email, passwordHash string) (*identity.Record, error) {
	row := r.db.QueryRowContext(ctx, insertIdentityQuery,
		identityID.String(),
		strings.ToLower(strings.TrimSpace(email)),
		passwordHash,
	)

	var rec identity.Record
	if err := row.Scan(&rec.ID, &rec.Email); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			r.logger.Warn("create identity canceled/timed out", zap.Error(err))
			return nil, identity.NewProviderError(identity.CodeUnavailable, "identity store unavailable")
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			r.logger.Debug("duplicate email", zap.String("email", email))
			return nil, identity.NewProviderError(identity.CodeIdentityExists, "email already registered")
		}

		r.logger.Error("failed to insert identity", zap.Error(err))
		return nil, identity.NewProviderError(identity.CodeUnavailable, "identity store unavailable")
	}
	return &rec, nil
}

func (r *identityRepo) get(ctx context.Context, identityID id.IdentityID) (*identity.Record, error) {
	row := r.db.QueryRowContext(ctx, selectIdentityQuery, identityID.String())
	var rec identity.Record
	if err := row.Scan(&rec.ID, &rec.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.NewProviderError(identity.CodeIdentityNotFound, "no identity with that id")
		}
		r.logger.Error("failed to load identity", zap.String("id", identityID.String()), zap.Error(err))
		return nil, identity.NewProviderError(identity.CodeUnavailable, "identity store unavailable")
	}
	return &rec, nil
}

func (r *identityRepo) getClaims(ctx context.Context, identityID id.IdentityID) (map[string]any, error) {
	row := r.db.QueryRowContext(ctx, selectClaimsQuery, identityID.String())
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.NewProviderError(identity.CodeIdentityNotFound, "no identity with that id")
		}
		r.logger.Error("failed to load claims", zap.String("id", identityID.String()), zap.Error(err))
		return nil, identity.NewProviderError(identity.CodeUnavailable, "identity store unavailable")
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		r.logger.Error("stored claims are not valid JSON", zap.String("id", identityID.String()), zap.Error(err))
		return nil, identity.NewProviderError(identity.CodeUnavailable, "identity store unavailable")
	}
	return claims, nil
}

func (r *identityRepo) setClaims(ctx context.Context, identityID id.IdentityID, claims map[string]any) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return identity.NewProviderError(identity.CodeUnavailable, "claims are not serializable")
	}

	res, err := r.db.ExecContext(ctx, updateClaimsQuery, identityID.String(), raw)
	if err != nil {
		r.logger.Error("failed to store claims", zap.String("id", identityID.String()), zap.Error(err))
		return identity.NewProviderError(identity.CodeUnavailable, "identity store unavailable")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return identity.NewProviderError(identity.CodeIdentityNotFound, "no identity with that id")
	}
	return nil
}
