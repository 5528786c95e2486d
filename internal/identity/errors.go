package identity

// Code is the closed set of failure kinds a Provider may report. Keeping
// the kind explicit on the error value means no caller ever inspects a
// provider-specific error shape.
type Code string

const (
	CodeIdentityExists   Code = "identity-already-exists"
	CodeIdentityNotFound Code = "identity-not-found"
	CodeInvalidEmail     Code = "invalid-email"
	CodeInvalidToken     Code = "invalid-token"
	CodeUnavailable      Code = "provider-unavailable"
)

// ProviderError is a structured failure from the identity provider.
type ProviderError struct {
	Code    Code
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code)
}

func NewProviderError(code Code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}
