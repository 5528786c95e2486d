package user

import "github.com/opuscm/users/internal/claims"

// User is the service-facing view of an identity joined with its current
// role claim. It is never persisted; every User is recomputed from the
// provider's current state.
type User struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  claims.Role `json:"role"`
}
