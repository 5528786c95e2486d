package id

import "github.com/google/uuid"

// IdentityID is the opaque, globally unique identifier of an identity at
// the provider. It is generated by this service and handed to the provider
// at creation time, so a retried create with the same fingerprint stays
// idempotent on the provider side.
type IdentityID string

func NewIdentityID() IdentityID {
	return IdentityID(uuid.NewString())
}

func (i IdentityID) String() string {
	return string(i)
}
