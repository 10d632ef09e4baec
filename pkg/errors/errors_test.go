package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	cause := errors.New("bucket missing")
	err := Wrap(CodeStorage, "failed to store file", cause)

	require.EqualError(t, err, "failed to store file: bucket missing")
	require.ErrorIs(t, err, cause)
	require.True(t, IsCode(err, CodeStorage))
	require.False(t, IsCode(err, CodeNotFound))
}

func TestCodeOfWrappedChain(t *testing.T) {
	err := fmt.Errorf("submit: %w", Wrap(CodeInvalidCategory, "Invalid matter type in the question payload.", nil))

	require.Equal(t, CodeInvalidCategory, CodeOf(err))
	require.Equal(t, "Invalid matter type in the question payload.", MessageOf(err))
	require.Equal(t, "", CodeOf(errors.New("plain")))
	require.Equal(t, "plain", MessageOf(errors.New("plain")))
	require.Equal(t, "", MessageOf(nil))
}
