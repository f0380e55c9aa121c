package firestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapErrorClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{code: codes.NotFound, notFound: true},
		{code: codes.AlreadyExists, conflict: true},
		{code: codes.Aborted, conflict: true},
		{code: codes.FailedPrecondition, conflict: true},
		{code: codes.Unavailable, unavailable: true},
		{code: codes.ResourceExhausted, unavailable: true},
		{code: codes.PermissionDenied},
	}
	for _, tc := range cases {
		err := WrapError("orders.get", status.Error(tc.code, "boom"))
		var repoErr *Error
		require.ErrorAsf(t, err, &repoErr, "code %s", tc.code)
		assert.Equalf(t, tc.notFound, repoErr.IsNotFound(), "code %s not found", tc.code)
		assert.Equalf(t, tc.conflict, repoErr.IsConflict(), "code %s conflict", tc.code)
		assert.Equalf(t, tc.unavailable, repoErr.IsUnavailable(), "code %s unavailable", tc.code)
		assert.Contains(t, err.Error(), "orders.get")
	}
}

func TestWrapErrorPassesThroughCancellation(t *testing.T) {
	assert.Nil(t, WrapError("op", nil))
	assert.ErrorIs(t, WrapError("op", context.Canceled), context.Canceled)
	assert.ErrorIs(t, WrapError("op", status.Error(codes.Canceled, "x")), context.Canceled)
	assert.ErrorIs(t, WrapError("op", status.Error(codes.DeadlineExceeded, "x")), context.DeadlineExceeded)
}

func TestWrapErrorKeepsExistingRepositoryError(t *testing.T) {
	inner := WrapError("", status.Error(codes.NotFound, "missing"))
	outer := WrapError("carts.get", inner)
	var repoErr *Error
	require.True(t, errors.As(outer, &repoErr))
	assert.True(t, repoErr.IsNotFound())
	assert.Contains(t, outer.Error(), "carts.get")
}
