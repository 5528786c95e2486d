package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/opuscm/users/internal/apperr"
	"github.com/opuscm/users/internal/httpx"
	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
)

// unexported, collision-proof context key
type subjectContextKeyType struct{}

var subjectKey = subjectContextKeyType{}

// SubjectFromContext extracts the verified subject id placed by RequireAuth.
func SubjectFromContext(ctx context.Context) (id.IdentityID, bool) {
	sub, ok := ctx.Value(subjectKey).(id.IdentityID)
	return sub, ok
}

// Auth verifies bearer tokens against the identity provider and attaches the
// verified subject to the request context.
type Auth struct {
	provider identity.Provider
	logger   *zap.Logger
}

func NewAuth(provider identity.Provider, logger *zap.Logger) *Auth {
	return &Auth{provider: provider, logger: logger}
}

// RequireAuth evaluates each request independently; every failure path is
// terminal and produces exactly one 401. Nothing is retried.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httpx.WriteDomainError(w, apperr.NotAuthorized("The Authorization header must be set."))
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" || token == "" {
			httpx.WriteDomainError(w, apperr.NotAuthorized(
				"The Authorization header must be formatted as 'Bearer <token>' where <token> is a valid auth key.",
			))
			return
		}

		verified, err := a.provider.VerifyToken(r.Context(), token)
		if err != nil {
			a.logger.Debug("token verification failed", zap.Error(err))
			httpx.WriteDomainError(w, identity.ClassifyVerification(err))
			return
		}

		// a non-error result with no subject is still a rejection
		if verified == nil || verified.SubjectID == "" {
			httpx.WriteDomainError(w, apperr.NotAuthorized("You are not authorized to access this resource."))
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, verified.SubjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
