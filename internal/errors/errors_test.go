package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "profile not found", NotFound("profile not found").Error())

	cause := errors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeInternal, "query failed")
	assert.Equal(t, "query failed: connection refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeInternal, "query failed")
	assert.ErrorIs(t, wrapped, cause)
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("x")))
	assert.True(t, IsNotFound(NotFoundf("profile %s not found", "u1")))
	assert.True(t, IsValidation(Validation("x")))
	assert.True(t, IsInternal(Internal("x")))
	assert.False(t, IsNotFound(Internal("x")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestCodePredicates_WrappedChain(t *testing.T) {
	inner := NotFound("document not found")
	outer := fmt.Errorf("get role: %w", inner)
	assert.True(t, IsNotFound(outer))
}

func TestGetCode(t *testing.T) {
	require.Equal(t, ErrCodeValidation, GetCode(Validation("x")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
}
