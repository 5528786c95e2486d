package identity

import (
	"errors"

	"github.com/opuscm/users/internal/apperr"
)

// Classify maps a creation or claim-mutation failure onto the caller-facing
// taxonomy. Only explicitly whitelisted provider codes become 4xx; everything
// else is an opaque 500 so provider internals never leak.
func Classify(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Code {
		case CodeIdentityExists:
			return apperr.BadRequest("A user with that email already exists.")
		case CodeInvalidEmail:
			return apperr.BadRequest("Invalid email address.")
		}
	}
	return apperr.Internal()
}

// ClassifyVerification maps a token-verification failure. An unverifiable
// token is an authorization outcome, not a server fault, so the result is
// always 401 with the provider's reason echoed to the caller. This asymmetry
// with Classify is deliberate; clients rely on it for retry decisions.
func ClassifyVerification(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return apperr.NotAuthorized(perr.Message)
	}
	return apperr.NotAuthorized(err.Error())
}
