package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation         = errors.New("validation failed")
	ErrSessionInvalid     = errors.New("session invalid")
	ErrGatewayUnavailable = errors.New("verification gateway not configured")
	ErrGateway            = errors.New("verification gateway error")
	ErrCodeInvalid        = errors.New("verification code not approved")
	ErrNotification       = errors.New("notification failed")
)

// Error carries a user-facing message alongside its sentinel kind and an optional cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

// NewError builds an Error of the given kind.
func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError builds an Error of the given kind that keeps cause in the chain.
func WrapError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}
