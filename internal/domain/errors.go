package domain

import "errors"

// Sentinel errors shared across the service. Handlers map these onto HTTP
// status codes; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrNotFound is returned for operations on unknown domain ids.
	ErrNotFound = errors.New("domain not found")

	// ErrDuplicateDomain is returned when a create collides with an existing
	// domain name. Duplicates are a validation failure, never retried.
	ErrDuplicateDomain = errors.New("domain name already registered")

	// ErrResolverUnavailable indicates a transport-wide DNS outage: every
	// probe failed at the transport level, so "unverified" says nothing about
	// the domain itself. Distinct from an ordinary failed verification.
	ErrResolverUnavailable = errors.New("dns resolver unreachable")

	// ErrPurchaseAmbiguous indicates a registrar purchase that timed out
	// after the request was sent. The charge may or may not have gone
	// through; callers must reconcile manually, never auto-retry.
	ErrPurchaseAmbiguous = errors.New("purchase outcome ambiguous, manual reconciliation required")
)

// ValidationError is a synchronous rejection of bad input (domain syntax,
// duplicate name). Never retried.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RegistrarError carries a provider-reported failure from the registrar
// gateway. The provider's message is passed through, never swallowed.
type RegistrarError struct {
	Op       string // "search" or "purchase"
	Provider string
	Message  string
}

func (e *RegistrarError) Error() string {
	return "registrar " + e.Op + " failed (" + e.Provider + "): " + e.Message
}
