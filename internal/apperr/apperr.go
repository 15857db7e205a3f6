package apperr

import "errors"

// Sentinel error kinds. Lower layers return these (optionally wrapped) so the
// HTTP boundary can translate them into status codes exactly once.
var (
	// ErrValidation marks malformed or missing caller input.
	ErrValidation = errors.New("invalid input")
	// ErrPolicy marks a request rejected by the authorization gate.
	ErrPolicy = errors.New("not authorized")
	// ErrNotFound marks an unknown token or profile.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks ledger transport failures: node unreachable,
	// call timeout, malformed RPC response.
	ErrUnavailable = errors.New("ledger unavailable")
)

// IsRetryable reports whether err is a transient transport failure worth
// retrying. Validation, policy and not-found errors never are.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
