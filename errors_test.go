package gridsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNotFound, "identifier not found"},
		{ErrDuplicateIdentifier, "duplicate identifier conflict"},
		{ErrTypeMismatch, "type mismatch"},
		{ErrTransport, "transport failure"},
		{ErrUnresolvedRequiredReference, "unresolved required reference"},
		{ErrCancelled, "operation cancelled"},
		{ErrInvalidConfig, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without underlying error",
			err:  &Error{Op: "Store.Add", Kind: KindValidation},
			want: "gridsync: Store.Add: validation",
		},
		{
			name: "with underlying error",
			err:  &Error{Op: "Client.GetIdentifiedObject", Kind: KindNotFound, Err: ErrNotFound},
			want: "gridsync: Client.GetIdentifiedObject (not_found): identifier not found",
		},
		{
			name: "with context",
			err: &Error{
				Op:      "Client.GetIdentifiedObject",
				Kind:    KindNotFound,
				Err:     ErrNotFound,
				Context: map[string]any{"mrid": "f001"},
			},
			want: "gridsync: Client.GetIdentifiedObject (not_found): identifier not found [context: map[mrid:f001]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := NewTypeMismatchError("Client.GetEquipmentContainer",
		fmt.Errorf("%w: f001 is a Feeder", ErrTypeMismatch))

	assert.True(t, errors.Is(err, ErrTypeMismatch), "matches the wrapped sentinel")
	assert.True(t, errors.Is(err, &Error{Kind: KindTypeMismatch}), "matches on kind")
	assert.True(t, errors.Is(err, &Error{Kind: KindTypeMismatch, Op: "Client.GetEquipmentContainer"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindTypeMismatch, Op: "Store.Add"}), "op must match when set")
	assert.False(t, errors.Is(err, &Error{Kind: KindNotFound}))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, err.Is(nil))

	wrapped := fmt.Errorf("assembling: %w", err)
	var ge *Error
	require.True(t, errors.As(wrapped, &ge))
	assert.Equal(t, KindTypeMismatch, ge.Kind)
}

func TestErrorWithContext(t *testing.T) {
	original := NewNotFoundError("Store.Require", ErrNotFound).WithContext(map[string]any{"mrid": "t001"})
	extended := original.WithContext(map[string]any{"context": "feeder head"})

	assert.Equal(t, map[string]any{"mrid": "t001"}, original.Context, "WithContext does not mutate the receiver")
	assert.Equal(t, map[string]any{"mrid": "t001", "context": "feeder head"}, extended.Context)
}

func TestNewErrorFunctions(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name string
		fn   func(string, error) *Error
		kind string
	}{
		{"NewNotFoundError", NewNotFoundError, KindNotFound},
		{"NewDuplicateIdentifierError", NewDuplicateIdentifierError, KindDuplicateIdentifier},
		{"NewTypeMismatchError", NewTypeMismatchError, KindTypeMismatch},
		{"NewTransportError", NewTransportError, KindTransport},
		{"NewUnresolvedRequiredReferenceError", NewUnresolvedRequiredReferenceError, KindUnresolvedRequiredReference},
		{"NewCancelledError", NewCancelledError, KindCancelled},
		{"NewValidationError", NewValidationError, KindValidation},
		{"NewConfigurationError", NewConfigurationError, KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn("op", cause)
			assert.Equal(t, "op", err.Op)
			assert.Equal(t, tt.kind, err.Kind)
			assert.Same(t, cause, errors.Unwrap(err))
		})
	}
}

func TestFromRPCError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, FromRPCError("op", nil))
	})

	t.Run("existing error passes through", func(t *testing.T) {
		in := NewNotFoundError("inner", ErrNotFound)
		assert.Same(t, in, FromRPCError("outer", fmt.Errorf("wrapped: %w", in)))
	})

	t.Run("context errors are cancellation", func(t *testing.T) {
		for _, cause := range []error{context.Canceled, context.DeadlineExceeded} {
			err := FromRPCError("op", cause)
			assert.Equal(t, KindCancelled, err.Kind)
			assert.True(t, errors.Is(err, ErrCancelled))
			assert.True(t, errors.Is(err, cause))
		}
	})

	t.Run("grpc cancellation codes", func(t *testing.T) {
		for _, code := range []codes.Code{codes.Canceled, codes.DeadlineExceeded} {
			err := FromRPCError("op", status.Error(code, "stop"))
			assert.Equal(t, KindCancelled, err.Kind, code.String())
		}
	})

	t.Run("other grpc codes are transport failures", func(t *testing.T) {
		err := FromRPCError("op", status.Error(codes.Unavailable, "connection refused"))
		assert.Equal(t, KindTransport, err.Kind)
		assert.True(t, errors.Is(err, ErrTransport))
		assert.Equal(t, "Unavailable", err.Context["code"])
		assert.True(t, strings.Contains(err.Error(), "connection refused"))
	})

	t.Run("plain errors are transport failures", func(t *testing.T) {
		err := FromRPCError("op", errors.New("broken pipe"))
		assert.Equal(t, KindTransport, err.Kind)
	})
}

func BenchmarkErrorsIs(b *testing.B) {
	err := fmt.Errorf("outer: %w", NewTransportError("op", ErrTransport))
	target := &Error{Kind: KindTransport}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = errors.Is(err, target)
	}
}
