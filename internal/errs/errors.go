package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrInvalid  = errors.New("invalid")
	// ErrConflict signals a storage-level uniqueness violation (e.g. two
	// concurrent registrations racing on the same email).
	ErrConflict = errors.New("conflict")
)

// Kind tags a recoverable, user-caused error.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindBusinessRule   Kind = "business_rule"
	KindAuthentication Kind = "authentication"
)

// Error is a recoverable failure carrying a message surfaced verbatim to the
// caller. The Kind distinguishes validation, business-rule, and
// authentication failures without a shared exception hierarchy.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation wraps a field-invariant failure.
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// Business wraps a business-rule failure such as a duplicate email.
func Business(msg string) error { return &Error{Kind: KindBusinessRule, Message: msg} }

// Auth wraps a credential failure. The transport layer does not distinguish
// the two credential messages from each other, but they stay distinct
// internally.
func Auth(msg string) error { return &Error{Kind: KindAuthentication, Message: msg} }

// KindOf extracts the kind of a recoverable error, if err is one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Fault is a precondition violation: a programming error, not user input.
// It must never be converted into a not-found or a 4xx response; callers
// propagate it so it surfaces loudly.
type Fault struct {
	Message string
}

func (f *Fault) Error() string { return "fault: " + f.Message }

// NewFault builds a Fault with the given message.
func NewFault(msg string) error { return &Fault{Message: msg} }

// IsFault reports whether err is (or wraps) a Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}
