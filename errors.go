package gridsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Sentinel errors for common gridsync error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrNotFound indicates an explicitly requested identifier was never returned.
	ErrNotFound = errors.New("identifier not found")

	// ErrDuplicateIdentifier indicates two different objects claim the same identifier.
	ErrDuplicateIdentifier = errors.New("duplicate identifier conflict")

	// ErrTypeMismatch indicates an identifier resolved to an object of an unexpected kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrTransport indicates the remote call itself failed (disconnect, remote exception).
	ErrTransport = errors.New("transport failure")

	// ErrUnresolvedRequiredReference indicates a reference the schema requires was never
	// resolved by the end of a load.
	ErrUnresolvedRequiredReference = errors.New("unresolved required reference")

	// ErrCancelled indicates the caller cancelled the operation or its deadline expired.
	ErrCancelled = errors.New("operation cancelled")

	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error kinds categorize errors by their type.
const (
	// KindNotFound represents a requested identifier that was never returned.
	KindNotFound = "not_found"

	// KindDuplicateIdentifier represents two distinct objects sharing an identifier.
	KindDuplicateIdentifier = "duplicate_identifier"

	// KindTypeMismatch represents an object of the wrong kind.
	KindTypeMismatch = "type_mismatch"

	// KindTransport represents failures of the remote call.
	KindTransport = "transport"

	// KindUnresolvedRequiredReference represents a required reference left unresolved.
	KindUnresolvedRequiredReference = "unresolved_required_reference"

	// KindCancelled represents caller cancellation or deadline expiry.
	KindCancelled = "cancelled"

	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &gridsync.Error{
//		Op:   "Client.GetIdentifiedObject",
//		Kind: gridsync.KindNotFound,
//		Err:  gridsync.ErrNotFound,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Client.GetIdentifiedObjects", "Store.Add").
	Op string

	// Kind categorizes the error (e.g., KindNotFound, KindTransport).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include identifiers, kinds, or relationship names.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gridsync: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("gridsync: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("gridsync: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on
// the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	// Match on Kind, and on Op when the target sets one
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a new Error with the provided context added.
//
// Example:
//
//	err := gridsync.NewNotFoundError("Client.GetIdentifiedObject", gridsync.ErrNotFound)
//	err = err.WithContext(map[string]any{"mrid": "f001"})
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	newErr.Context = make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		newErr.Context[k] = v
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewNotFoundError creates a new Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNotFound, Err: err}
}

// NewDuplicateIdentifierError creates a new Error with KindDuplicateIdentifier.
func NewDuplicateIdentifierError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindDuplicateIdentifier, Err: err}
}

// NewTypeMismatchError creates a new Error with KindTypeMismatch.
func NewTypeMismatchError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindTypeMismatch, Err: err}
}

// NewTransportError creates a new Error with KindTransport.
func NewTransportError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindTransport, Err: err}
}

// NewUnresolvedRequiredReferenceError creates a new Error with KindUnresolvedRequiredReference.
func NewUnresolvedRequiredReferenceError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindUnresolvedRequiredReference, Err: err}
}

// NewCancelledError creates a new Error with KindCancelled.
func NewCancelledError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindCancelled, Err: err}
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: err}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Err: err}
}

// FromRPCError classifies an error returned by a gRPC call. Context cancellation
// and deadline expiry become KindCancelled; everything else becomes KindTransport
// carrying the remote-reported message.
func FromRPCError(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCancelledError(op, errors.Join(ErrCancelled, err))
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Canceled, codes.DeadlineExceeded:
			return NewCancelledError(op, errors.Join(ErrCancelled, err))
		}
		return NewTransportError(op, fmt.Errorf("%w: %s", ErrTransport, st.Message())).
			WithContext(map[string]any{"code": st.Code().String()})
	}

	return NewTransportError(op, fmt.Errorf("%w: %v", ErrTransport, err))
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements to ensure
// cleanup errors are not silently ignored.
//
// If logger is nil, slog.Default() is used.
//
// Example usage:
//
//	defer gridsync.CloseWithLog(conn, logger, "catalogue connection")
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
