package pgp

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings;
// Error() strings are intentionally human-readable and may evolve.
type Kind string

const (
	// KindKeyGeneration covers failures of the underlying asymmetric key
	// generation, including algorithm/role mismatches. Fatal to the
	// in-progress construction; a retry means building a new backend.
	KindKeyGeneration Kind = "KeyGeneration"

	// KindSigning covers failures while building or computing any of the
	// self-signatures during finalization.
	KindSigning Kind = "Signing"

	// KindInvalidKey means post-assembly validation found unparseable or
	// unrecognized packets in the certificate. This is an assembly defect;
	// the malformed artifact is never returned.
	KindInvalidKey Kind = "InvalidKey"

	// KindEncoding covers armoring and other output-conversion failures.
	KindEncoding Kind = "Encoding"

	// KindConsumed means an operation was attempted on a backend that has
	// already been finalized.
	KindConsumed Kind = "Consumed"

	// KindSuite covers unknown or malformed cipher-suite selections.
	KindSuite Kind = "Suite"
)

// Error is the library's structured error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
