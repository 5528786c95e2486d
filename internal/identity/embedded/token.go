package embedded

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opuscm/users/pkg/id"
)

type tokenClaims struct {
	Custom map[string]any `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// tokenSigner mints and checks the HS256 tokens the embedded provider
// issues. The remote provider owns this concern in production.
type tokenSigner struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	signingAlg jwt.SigningMethod
}

func newTokenSigner(secret, issuer string, ttl time.Duration) *tokenSigner {
	return &tokenSigner{
		secret:     []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		signingAlg: jwt.SigningMethodHS256,
	}
}

func (s *tokenSigner) sign(subject id.IdentityID, custom map[string]any) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &tokenClaims{
		Custom: custom,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
			NotBefore: jwt.NewNumericDate(issuedAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        generateJTI(),
		},
	}
	return jwt.NewWithClaims(s.signingAlg, claims).SignedString(s.secret)
}

func (s *tokenSigner) verify(tokenString string) (*tokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.signingAlg.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)

	var claims tokenClaims
	tkn, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

func generateJTI() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
