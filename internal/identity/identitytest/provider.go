// Package identitytest provides an in-memory identity.Provider for tests.
package identitytest

import (
	"context"
	"sync"

	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
)

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider keeps identities and claims in memory. Error fields, when
// set, are returned by the matching operation instead of touching state.
// Tokens verify through VerifyFunc when set; otherwise a token is treated
// as the subject id of an existing identity.
type FakeProvider struct {
	mu sync.Mutex

	Records map[id.IdentityID]*identity.Record
	Claims  map[id.IdentityID]map[string]any

	CreateErr    error
	VerifyFunc   func(token string) (*identity.Token, error)
	GetErr       error
	GetClaimsErr error
	SetClaimsErr error
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Records: make(map[id.IdentityID]*identity.Record),
		Claims:  make(map[id.IdentityID]map[string]any),
	}
}

// Seed registers an identity without going through CreateIdentity.
func (f *FakeProvider) Seed(identityID id.IdentityID, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records[identityID] = &identity.Record{ID: identityID, Email: email}
}

func (f *FakeProvider) CreateIdentity(_ context.Context, email, _ string, identityID id.IdentityID) (*identity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	for _, rec := range f.Records {
		if rec.Email == email {
			return nil, identity.NewProviderError(identity.CodeIdentityExists, "email already registered")
		}
	}
	rec := &identity.Record{ID: identityID, Email: email}
	f.Records[identityID] = rec
	return rec, nil
}

func (f *FakeProvider) VerifyToken(_ context.Context, token string) (*identity.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VerifyFunc != nil {
		return f.VerifyFunc(token)
	}
	subject := id.IdentityID(token)
	if _, ok := f.Records[subject]; !ok {
		return nil, identity.NewProviderError(identity.CodeInvalidToken, "token is invalid")
	}
	return &identity.Token{SubjectID: subject, Claims: f.Claims[subject]}, nil
}

func (f *FakeProvider) GetIdentity(_ context.Context, identityID id.IdentityID) (*identity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	rec, ok := f.Records[identityID]
	if !ok {
		return nil, identity.NewProviderError(identity.CodeIdentityNotFound, "no identity with that id")
	}
	return rec, nil
}

func (f *FakeProvider) GetClaims(_ context.Context, identityID id.IdentityID) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetClaimsErr != nil {
		return nil, f.GetClaimsErr
	}
	return f.Claims[identityID], nil
}

func (f *FakeProvider) SetClaims(_ context.Context, identityID id.IdentityID, claims map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetClaimsErr != nil {
		return f.SetClaimsErr
	}
	f.Claims[identityID] = claims
	return nil
}
